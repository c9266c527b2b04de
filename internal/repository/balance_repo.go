package repository

import (
	"subly/internal/models"

	"gorm.io/gorm"
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) GetByPayeeID(payeeID uint) (*models.PayeeBalance, error) {
	var b models.PayeeBalance
	if err := r.db.Where("payee_id = ?", payeeID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) GetOrCreate(payeeID uint) (*models.PayeeBalance, error) {
	b, err := r.GetByPayeeID(payeeID)
	if err == nil {
		return b, nil
	}
	b = &models.PayeeBalance{PayeeID: payeeID}
	if err := r.db.Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// Credit increments the owed balance in-store, never as a blind overwrite,
// so a concurrent settlement and payout cannot lose an update.
func (r *BalanceRepository) Credit(payeeID uint, amountCents int64) error {
	if _, err := r.GetOrCreate(payeeID); err != nil {
		return err
	}
	return r.db.Model(&models.PayeeBalance{}).
		Where("payee_id = ?", payeeID).
		UpdateColumn("owed_cents", gorm.Expr("owed_cents + ?", amountCents)).Error
}

// SettlePayout atomically moves amountCents from owed to lifetime-paid,
// guarded on the owed balance still covering the amount. Returns false when
// the guard fails (balance changed underneath the payout), in which case the
// caller must route to reconciliation rather than retry.
func (r *BalanceRepository) SettlePayout(payeeID uint, amountCents int64) (bool, error) {
	tx := r.db.Model(&models.PayeeBalance{}).
		Where("payee_id = ? AND owed_cents >= ?", payeeID, amountCents).
		UpdateColumns(map[string]interface{}{
			"owed_cents":          gorm.Expr("owed_cents - ?", amountCents),
			"lifetime_paid_cents": gorm.Expr("lifetime_paid_cents + ?", amountCents),
		})
	return tx.RowsAffected > 0, tx.Error
}
