package repository

import (
	"subly/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(l *models.AuditLog) error {
	return r.db.Create(l).Error
}

// Log is a fire-and-forget helper for service-side audit entries.
func (r *AuditLogRepository) Log(action, resource, resourceID, metadata string) {
	_ = r.db.Create(&models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Metadata:   metadata,
	}).Error
}
