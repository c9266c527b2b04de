package database

import (
	"log"

	"subly/config"
	"subly/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Reservation{},
		&models.DepositHold{},
		&models.PayeeAccount{},
		&models.PayeeBalance{},
		&models.Payout{},
		&models.ReconciliationTask{},
		&models.Operator{},
		&models.AuditLog{},
	)
}

// SeedOperator creates the configured back-office operator if none exists.
func SeedOperator(db *gorm.DB, cfg *config.OperatorConfig) {
	var count int64
	db.Model(&models.Operator{}).Where("email = ?", cfg.Email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Seed] operator hash failed: %v", err)
		return
	}
	op := &models.Operator{Email: cfg.Email, PasswordHash: string(hash), Role: "ADMIN"}
	if err := db.Create(op).Error; err != nil {
		log.Printf("[Seed] operator create failed: %v", err)
		return
	}
	log.Printf("[Seed] created operator %s", cfg.Email)
}
