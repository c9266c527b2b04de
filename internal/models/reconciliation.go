package models

import "time"

// ReconciliationTask is an operator-queue entry for confirmed external money
// movement whose local record could not be written. Never retried
// automatically; a human resolves it.
type ReconciliationTask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Kind          string     `gorm:"size:40;not null;index" json:"kind"` // e.g. payout_unrecorded
	PayeeID       uint       `gorm:"index" json:"payee_id"`
	ReservationID uint       `gorm:"index" json:"reservation_id"`
	AmountCents   int64      `gorm:"not null" json:"amount_cents"`
	ProcessorRef  string     `gorm:"size:128;default:''" json:"processor_ref"`
	Note          string     `gorm:"type:text" json:"note"`
	Resolved      bool       `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ReconciliationTask) TableName() string {
	return "reconciliation_tasks"
}
