package repository

import (
	"subly/internal/models"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(a *models.PayeeAccount) error {
	return r.db.Create(a).Error
}

func (r *AccountRepository) GetByPayeeID(payeeID uint) (*models.PayeeAccount, error) {
	var a models.PayeeAccount
	if err := r.db.Where("payee_id = ?", payeeID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) GetByAccountRef(ref string) (*models.PayeeAccount, error) {
	var a models.PayeeAccount
	if err := r.db.Where("account_ref = ?", ref).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) Update(a *models.PayeeAccount) error {
	return r.db.Save(a).Error
}

// ClearAccountRef drops a reference that turned out invalid at the
// processor so the payee can be reprovisioned.
func (r *AccountRepository) ClearAccountRef(payeeID uint) error {
	return r.db.Model(&models.PayeeAccount{}).
		Where("payee_id = ?", payeeID).
		Updates(map[string]interface{}{
			"account_ref":     "",
			"charges_enabled": false,
			"payouts_enabled": false,
		}).Error
}
