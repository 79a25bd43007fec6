package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	Exotel     ExotelConfig
	Credit     CreditConfig
	Sweeper    SweeperConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RateLimit requests per RateWindow, per user or client IP.
	RateLimit  int
	RateWindow time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// ExotelConfig holds the telephony gateway credentials. The gateway is
// considered unconfigured when any of SID/APIKey/APIToken/VirtualNumber is
// empty; call initiation then fails with CONFIG_ERROR.
type ExotelConfig struct {
	SID           string
	APIKey        string
	APIToken      string
	Subdomain     string
	VirtualNumber string
	// AppURL is the public base URL; the webhook callback is AppURL + /api/calls/webhook
	AppURL string
}

// CreditConfig controls call-credit deduction. When HasDeductionTrigger is
// true an external mechanism (DB trigger) owns the debit and the reconciler
// must not deduct in-process, or calls would be billed twice.
type CreditConfig struct {
	HasDeductionTrigger bool
}

type SweeperConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	PollTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit:    getenvInt("RATE_LIMIT", 100),
			RateWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "bandhan:bandhan@tcp(localhost:3306)/bandhan?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: getenv("JWT_SECRET", "change-me-in-production"),
			Expiry: 168 * time.Hour,
			Issuer: "bandhan",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Exotel: ExotelConfig{
			SID:           os.Getenv("EXOTEL_SID"),
			APIKey:        os.Getenv("EXOTEL_API_KEY"),
			APIToken:      os.Getenv("EXOTEL_API_TOKEN"),
			Subdomain:     getenv("EXOTEL_SUBDOMAIN", "api.exotel.com"),
			VirtualNumber: os.Getenv("EXOTEL_VIRTUAL_NUMBER"),
			AppURL:        getenv("APP_URL", "http://localhost:8080"),
		},
		Credit: CreditConfig{
			HasDeductionTrigger: getenvBool("HAS_CREDIT_DEDUCTION_TRIGGER", false),
		},
		Sweeper: SweeperConfig{
			Interval:    5 * time.Minute,
			StaleAfter:  2 * time.Minute,
			PollTimeout: 10 * time.Second,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
