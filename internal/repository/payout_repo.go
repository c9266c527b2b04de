package repository

import (
	"time"

	"subly/internal/domain"
	"subly/internal/models"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(p *models.Payout) error {
	return r.db.Create(p).Error
}

func (r *PayoutRepository) GetByOrderID(orderID string) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) Update(p *models.Payout) error {
	return r.db.Save(p).Error
}

// MarkConfirmed flips the order from created to confirmed as a conditional
// update. Only one of the duplicate dispatchers sharing an order gets true
// back; that caller owns the balance move.
func (r *PayoutRepository) MarkConfirmed(orderID, processorRef string, completedAt time.Time) (bool, error) {
	tx := r.db.Model(&models.Payout{}).
		Where("order_id = ? AND status = ?", orderID, domain.PayoutCreated).
		Updates(map[string]interface{}{
			"status":        domain.PayoutConfirmed,
			"processor_ref": processorRef,
			"completed_at":  &completedAt,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *PayoutRepository) ListByPayee(payeeID uint) ([]models.Payout, error) {
	var out []models.Payout
	err := r.db.Where("payee_id = ?", payeeID).Order("created_at desc").Find(&out).Error
	return out, err
}
