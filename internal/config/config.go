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
	DBPath   string     `env:"DB_PATH" envDefault:"data/riskhunt.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR"`

	HistoryLimit     int           `env:"HISTORY_LIMIT" envDefault:"20"`
	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`

	TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	ClickDebounce    time.Duration `env:"CLICK_DEBOUNCE" envDefault:"150ms"`
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"10m"`
	JanitorInterval  time.Duration `env:"JANITOR_INTERVAL" envDefault:"30s"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads the environment, after merging variables from the given dotenv
// files. Missing files are skipped; variables already set win.
func Load(dotenv ...string) (*Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
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

func (c Config) validate() error {
	switch {
	case c.HistoryLimit <= 0:
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	case c.AutosaveInterval <= 0:
		return fmt.Errorf("AUTOSAVE_INTERVAL must be positive, got %s", c.AutosaveInterval)
	case c.JanitorInterval <= 0:
		return fmt.Errorf("JANITOR_INTERVAL must be positive, got %s", c.JanitorInterval)
	case c.TickInterval < 0 || c.ClickDebounce < 0 || c.SessionRetention < 0:
		return errors.New("TICK_INTERVAL, CLICK_DEBOUNCE and SESSION_RETENTION must not be negative")
	}
	return nil
}
