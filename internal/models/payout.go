package models

import (
	"time"

	"subly/internal/domain"
)

// Payout records one dispatch of a payee's accumulated balance to their
// external payout destination. OrderID doubles as the processor idempotency
// key for the dispatch.
type Payout struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	PayeeID      uint                `gorm:"not null;index" json:"payee_id"`
	OrderID      string              `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	AmountCents  int64               `gorm:"not null" json:"amount_cents"`
	ProcessorRef string              `gorm:"size:128;default:''" json:"processor_ref"`
	Status       domain.PayoutStatus `gorm:"size:20;not null;index" json:"status"`
	CompletedAt  *time.Time          `json:"completed_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func (Payout) TableName() string {
	return "payouts"
}
