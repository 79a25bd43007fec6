package database

import (
	"log"
	"os"

	"bandhan/config"
	"bandhan/internal/domain"
	"bandhan/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
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
		&models.User{},
		&models.Profile{},
		&models.Match{},
		&models.Block{},
		&models.Plan{},
		&models.Payment{},
		&models.Subscription{},
		&models.CallCredit{},
		&models.CreditLedgerEntry{},
		&models.CallSession{},
		&models.CallLog{},
		&models.WebhookEvent{},
		&models.TelephonySettings{},
	)
}

// SeedAdmin creates the bootstrap admin account if none exists.
func SeedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[SEED] hash admin password: %v", err)
		return
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        "admin@bandhan.local",
		Phone:        "+910000000000",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[SEED] create admin: %v", err)
		return
	}
	log.Printf("[SEED] admin account created (email=%s)", admin.Email)
}
