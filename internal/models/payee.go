package models

import "time"

// PayeeAccount tracks a payee's payout-capable sub-account at the processor.
// The eligibility flags are a snapshot of the last live check and are never
// trusted without a fresh read.
type PayeeAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PayeeID        uint      `gorm:"uniqueIndex;not null" json:"payee_id"`
	Email          string    `gorm:"size:255;not null" json:"email"`
	AccountRef     string    `gorm:"size:128;default:''" json:"account_ref"`
	ChargesEnabled bool      `gorm:"not null;default:false" json:"charges_enabled"`
	PayoutsEnabled bool      `gorm:"not null;default:false" json:"payouts_enabled"`
	Requirements   string    `gorm:"type:text" json:"requirements"` // JSON array of outstanding requirements
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PayeeAccount) TableName() string {
	return "payee_accounts"
}

// PayeeBalance is the running amount owed to a payee from settlements,
// separate from lifetime earnings already paid out. OwedCents moves to
// LifetimePaidCents only through a confirmed payout.
type PayeeBalance struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	PayeeID           uint      `gorm:"uniqueIndex;not null" json:"payee_id"`
	OwedCents         int64     `gorm:"not null;default:0" json:"owed_cents"`
	LifetimePaidCents int64     `gorm:"not null;default:0" json:"lifetime_paid_cents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (PayeeBalance) TableName() string {
	return "payee_balances"
}
