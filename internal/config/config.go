package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nekogravitycat/car-rental-backend/internal/logger"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"dev"`
	ProdOrigins       string        `envconfig:"PROD_ORIGINS"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8080"`
	DBDSN             string        `envconfig:"DB_DSN" required:"true"`
	MigrateOnStart    bool          `envconfig:"MIGRATE_ON_START" default:"true"`
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"12"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"json"`
	StoragePath       string        `envconfig:"STORAGE_PATH" default:"./data"`

	// SweepSchedule is a cron expression for the missed-reservation sweep.
	SweepSchedule string        `envconfig:"SWEEP_SCHEDULE" default:"@every 60s"`
	SweepTimeout  time.Duration `envconfig:"SWEEP_TIMEOUT" default:"30s"`
}

// IsProduction reports whether APP_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// envconfig accepts a variable that is set but empty
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTAccessTokenTTL <= 0 {
		return fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: must be positive, got %s", c.JWTAccessTokenTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d is outside 4..31", c.BcryptCost)
	}
	if c.IsProduction() && c.ProdOrigins == "" {
		return fmt.Errorf("PROD_ORIGINS is required when APP_ENV=%s", PROD_STRING)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.SweepTimeout <= 0 {
		return fmt.Errorf("invalid SWEEP_TIMEOUT: must be positive, got %s", c.SweepTimeout)
	}
	return nil
}
