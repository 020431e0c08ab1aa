package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/tekriders/auth-service/pkg/constant"
)

// Config holds everything the service reads from the environment. It is built
// once in main and passed into constructors; business logic never consults the
// environment directly.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	DBURL string `env:"DB_URL,required,notEmpty"`

	SessionTokenSecret string `env:"SESSION_TOKEN_SECRET,required,notEmpty"`
	SessionExpiryHours int    `env:"SESSION_TOKEN_EXPIRY_HOURS" envDefault:"168"`

	BcryptCost       int    `env:"BCRYPT_COST" envDefault:"10"`
	ResetTokenTTLMin int    `env:"RESET_TOKEN_TTL_MINUTES" envDefault:"60"`
	ResetBaseURL     string `env:"RESET_BASE_URL" envDefault:"http://localhost:3000"`

	LoginMaxAttempts      int `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindowMin int `env:"LOGIN_ATTEMPT_WINDOW_MINUTES" envDefault:"15"`

	SMTP SMTP `envPrefix:"SMTP_"`
}

// SMTP contains mail-delivery parameters for the reset-link dispatcher.
type SMTP struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@tekriders.app"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Weak hash costs are silently raised to the floor rather than rejected.
	if cfg.BcryptCost < constant.MinBcryptCost {
		cfg.BcryptCost = constant.MinBcryptCost
	}

	return &cfg, nil
}
