package repository

import (
	"time"

	"subly/internal/models"

	"gorm.io/gorm"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Create(t *models.ReconciliationTask) error {
	return r.db.Create(t).Error
}

func (r *ReconciliationRepository) ListOpen() ([]models.ReconciliationTask, error) {
	var out []models.ReconciliationTask
	err := r.db.Where("resolved = ?", false).Order("created_at asc").Find(&out).Error
	return out, err
}

func (r *ReconciliationRepository) Resolve(id uint, note string) (bool, error) {
	now := time.Now()
	tx := r.db.Model(&models.ReconciliationTask{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": &now, "note": note})
	return tx.RowsAffected > 0, tx.Error
}
