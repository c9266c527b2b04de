package repository

import (
	"subly/internal/domain"
	"subly/internal/models"

	"gorm.io/gorm"
)

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(h *models.DepositHold) error {
	return r.db.Create(h).Error
}

func (r *DepositRepository) GetByReservationID(reservationID uint) (*models.DepositHold, error) {
	var h models.DepositHold
	if err := r.db.Where("reservation_id = ?", reservationID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *DepositRepository) GetByProcessorRef(ref string) (*models.DepositHold, error) {
	var h models.DepositHold
	if err := r.db.Where("processor_ref = ?", ref).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkCaptured records the capture as a conditional update from a
// capturable status. A false return means another transition won the race;
// the caller re-reads and decides whether the outcome is equivalent.
func (r *DepositRepository) MarkCaptured(reservationID uint, amountCents int64, chargeRef, reason string) (bool, error) {
	tx := r.db.Model(&models.DepositHold{}).
		Where("reservation_id = ? AND status IN ?", reservationID, []domain.HoldStatus{domain.HoldAuthorized, domain.HoldRequiresCapture}).
		Updates(map[string]interface{}{
			"status":         domain.HoldCaptured,
			"captured_cents": amountCents,
			"charge_ref":     chargeRef,
			"reason":         reason,
		})
	return tx.RowsAffected > 0, tx.Error
}

// MarkCanceled releases the hold, conditionally on it not being terminal.
func (r *DepositRepository) MarkCanceled(reservationID uint) (bool, error) {
	tx := r.db.Model(&models.DepositHold{}).
		Where("reservation_id = ? AND status IN ?", reservationID, []domain.HoldStatus{domain.HoldAuthorized, domain.HoldRequiresCapture}).
		Update("status", domain.HoldCanceled)
	return tx.RowsAffected > 0, tx.Error
}

// MarkExpired records processor-side hold expiry (webhook driven).
func (r *DepositRepository) MarkExpired(reservationID uint) (bool, error) {
	tx := r.db.Model(&models.DepositHold{}).
		Where("reservation_id = ? AND status IN ?", reservationID, []domain.HoldStatus{domain.HoldAuthorized, domain.HoldRequiresCapture}).
		Update("status", domain.HoldExpired)
	return tx.RowsAffected > 0, tx.Error
}
