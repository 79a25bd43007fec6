package service

import (
	"testing"
	"time"

	"bandhan/config"
	"bandhan/internal/database"
	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every pooled connection to :memory: gets its own database, so pin the
	// pool to one connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "bandhan"},
		Exotel: config.ExotelConfig{
			SID: "test", APIKey: "k", APIToken: "t",
			Subdomain: "api.exotel.com", VirtualNumber: "08000000000",
			AppURL: "http://localhost:8080",
		},
		Sweeper: config.SweeperConfig{
			Interval: time.Minute, StaleAfter: 2 * time.Minute, PollTimeout: 5 * time.Second,
		},
	}
}

func createUser(t *testing.T, db *gorm.DB, name, phone string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		Phone:        phone,
		PasswordHash: "x",
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func grantCredits(t *testing.T, db *gorm.DB, userID uint, credits int, expiresIn time.Duration) *models.CallCredit {
	t.Helper()
	c := &models.CallCredit{
		UserID:           userID,
		CreditsPurchased: credits,
		CreditsRemaining: credits,
		ExpiresAt:        time.Now().Add(expiresIn),
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("grant credits: %v", err)
	}
	return c
}

func newCreditService(db *gorm.DB) *CreditService {
	return NewCreditService(repository.NewCreditRepository(db), repository.NewSettingRepository(db))
}
