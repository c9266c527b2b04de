package models

import (
	"time"

	"subly/internal/domain"

	"gorm.io/gorm"
)

// Reservation is one booking of a shared dwelling. Shares are computed at
// confirmation (or with penalty at cancellation); transfer refs are written
// at most once, by the settlement path, via conditional updates.
type Reservation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ListingID    uint      `gorm:"not null;index" json:"listing_id"`
	GuestID      uint      `gorm:"not null;index" json:"guest_id"`
	TenantID     uint      `gorm:"not null;index" json:"tenant_id"`     // main tenant (sub-lessor)
	ProprietorID uint      `gorm:"not null;index" json:"proprietor_id"` // original landlord
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null" json:"end_date"`

	TotalCents      int64 `gorm:"not null" json:"total_cents"`
	PlatformCents   int64 `gorm:"not null;default:0" json:"platform_cents"`
	TenantCents     int64 `gorm:"not null;default:0" json:"tenant_cents"`
	ProprietorCents int64 `gorm:"not null;default:0" json:"proprietor_cents"`
	SharesComputed  bool  `gorm:"not null;default:false" json:"shares_computed"`

	Status         domain.ReservationStatus `gorm:"size:20;not null;index" json:"status"`
	DepositStatus  domain.DepositStatus     `gorm:"size:20;not null;default:'none'" json:"deposit_status"`
	DepositHoldRef string                   `gorm:"size:128;default:''" json:"deposit_hold_ref"`

	TenantTransferRef     string `gorm:"size:128;not null;default:''" json:"tenant_transfer_ref"`
	ProprietorTransferRef string `gorm:"size:128;not null;default:''" json:"proprietor_transfer_ref"`

	ReadyForPayout    bool `gorm:"not null;default:false" json:"ready_for_payout"`
	BalancesAllocated bool `gorm:"not null;default:false" json:"balances_allocated"`

	Litigation      bool   `gorm:"not null;default:false" json:"litigation"`
	LitigationCause string `gorm:"size:255;default:''" json:"litigation_cause"`

	CancelRateBps      int    `gorm:"not null;default:0" json:"cancel_rate_bps"`
	CancelPenaltyCents int64  `gorm:"not null;default:0" json:"cancel_penalty_cents"`
	CancelReason       string `gorm:"size:40;default:''" json:"cancel_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Reservation) TableName() string {
	return "reservations"
}
