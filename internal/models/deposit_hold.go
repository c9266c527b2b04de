package models

import (
	"time"

	"subly/internal/domain"
)

// DepositHold is the processor-side authorization backing a reservation's
// refundable deposit. Capture and cancellation are terminal; the row is
// never deleted, only status-transitioned.
type DepositHold struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ReservationID uint              `gorm:"uniqueIndex;not null" json:"reservation_id"`
	ProcessorRef  string            `gorm:"size:128;not null" json:"processor_ref"`
	MaxCents      int64             `gorm:"not null" json:"max_cents"` // maximum capturable amount
	CapturedCents int64             `gorm:"not null;default:0" json:"captured_cents"`
	Status        domain.HoldStatus `gorm:"size:20;not null;index" json:"status"`
	ChargeRef     string            `gorm:"size:128;default:''" json:"charge_ref"` // set on capture
	Reason        string            `gorm:"size:255;default:''" json:"reason"`     // capture cause, for audit
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (DepositHold) TableName() string {
	return "deposit_holds"
}
