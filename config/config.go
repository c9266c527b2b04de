package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Processor  ProcessorConfig
	Settlement SettlementConfig
	Operator   OperatorConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// ProcessorConfig holds credentials for the external payment processor API.
// Leave BaseURL empty to run against the in-memory stub (development).
type ProcessorConfig struct {
	BaseURL       string
	TokenURL      string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
}

// SettlementConfig carries the revenue-share and deposit rules.
// Rates are in basis points so share math stays in integers.
type SettlementConfig struct {
	CommissionBps   int   // platform commission on the gross price (300 = 3%)
	TenantShareBps  int   // main tenant's share of the net (6000 = 60%)
	DepositMaxCents int64 // cap on the refundable deposit hold
	Currency        string
	SweepSecret     string // shared secret for the cron sweep endpoint
}

type OperatorConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8091"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "subly:subly@tcp(localhost:3306)/subly?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "subly",
		},
		Processor: ProcessorConfig{
			BaseURL:       getEnv("PROCESSOR_BASE_URL", ""),
			TokenURL:      getEnv("PROCESSOR_TOKEN_URL", ""),
			ClientID:      getEnv("PROCESSOR_CLIENT_ID", ""),
			ClientSecret:  getEnv("PROCESSOR_CLIENT_SECRET", ""),
			WebhookSecret: getEnv("PROCESSOR_WEBHOOK_SECRET", ""),
		},
		Settlement: SettlementConfig{
			CommissionBps:   getEnvInt("COMMISSION_BPS", 300),
			TenantShareBps:  getEnvInt("TENANT_SHARE_BPS", 6000),
			DepositMaxCents: getEnvInt64("DEPOSIT_MAX_CENTS", 30000),
			Currency:        getEnv("CURRENCY", "EUR"),
			SweepSecret:     getEnv("SWEEP_SECRET", "change-me-sweep"),
		},
		Operator: OperatorConfig{
			Email:    getEnv("OPERATOR_EMAIL", "ops@subly.example"),
			Password: getEnv("OPERATOR_PASSWORD", "change-me-operator"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
