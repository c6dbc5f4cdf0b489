package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/shuttlesplit.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// RedisURL enables the fee report cache. Empty disables it.
	RedisURL       string        `env:"REDIS_URL"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`

	FeeRounding     string `env:"FEE_ROUNDING" envDefault:"component"`
	FeeRoundingUnit int64  `env:"FEE_ROUNDING_UNIT" envDefault:"1000"`

	ClockInterval time.Duration `env:"CLOCK_INTERVAL" envDefault:"1s"`

	// ResetPasswordHash is a bcrypt hash guarding DELETE /api/data.
	ResetPasswordHash string `env:"RESET_PASSWORD_HASH"`
	SeedDemo          bool   `env:"SEED_DEMO" envDefault:"false"`
}

// Load reads an optional .env file from the working directory and then
// parses the process environment. Variables already set in the environment
// win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.FeeRounding {
	case "component", "total":
	default:
		return fmt.Errorf("FEE_ROUNDING must be component or total, got %q", c.FeeRounding)
	}
	if c.FeeRoundingUnit <= 0 {
		return fmt.Errorf("FEE_ROUNDING_UNIT must be positive, got %d", c.FeeRoundingUnit)
	}
	if c.ClockInterval <= 0 {
		return fmt.Errorf("CLOCK_INTERVAL must be positive, got %s", c.ClockInterval)
	}
	return nil
}
