package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr                     string     `env:"API_ADDR" envDefault:":8080"`
	DatabaseURL              string     `env:"DATABASE_URL,required,notEmpty"`
	Env                      string     `env:"APP_ENV" envDefault:"dev"`
	LogLevel                 slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	CORSAllowedOrigins       []string   `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	APIMaxBodyMB             int64      `env:"API_MAX_BODY_MB" envDefault:"2"`
	ImportMaxFileMB          int64      `env:"IMPORT_MAX_FILE_MB" envDefault:"25"`
	ImportMaxRows            int        `env:"IMPORT_MAX_ROWS" envDefault:"5000"`
	ImportProbeConcurrency   int        `env:"IMPORT_PROBE_CONCURRENCY" envDefault:"8"`
	ImportMapWorkers         int        `env:"IMPORT_MAP_WORKERS" envDefault:"4"`
	ImportRateLimitPerMinute int        `env:"IMPORT_RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	ImportAPIKeyHash         string     `env:"IMPORT_API_KEY_HASH"`
	ReadHeaderTimeoutSec     int        `env:"API_READ_HEADER_TIMEOUT_SEC" envDefault:"5"`
	ReadTimeoutSec           int        `env:"API_READ_TIMEOUT_SEC" envDefault:"15"`
	WriteTimeoutSec          int        `env:"API_WRITE_TIMEOUT_SEC" envDefault:"30"`
	IdleTimeoutSec           int        `env:"API_IDLE_TIMEOUT_SEC" envDefault:"60"`
	RateLimitMaxIPs          int        `env:"RATE_LIMIT_MAX_IPS" envDefault:"10000"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !strings.Contains(c.DatabaseURL, "://") {
		return fmt.Errorf("DATABASE_URL must include a scheme")
	}
	if c.APIMaxBodyMB <= 0 || c.ImportMaxFileMB <= 0 {
		return fmt.Errorf("body limits must be positive")
	}
	if c.ImportMaxFileMB < c.APIMaxBodyMB {
		return fmt.Errorf("IMPORT_MAX_FILE_MB (%d) must not be below API_MAX_BODY_MB (%d)", c.ImportMaxFileMB, c.APIMaxBodyMB)
	}
	if c.ImportMaxRows <= 0 {
		return fmt.Errorf("IMPORT_MAX_ROWS must be positive")
	}
	if c.ImportProbeConcurrency <= 0 || c.ImportMapWorkers <= 0 {
		return fmt.Errorf("import concurrency must be positive")
	}
	if c.ImportRateLimitPerMinute < 0 {
		return fmt.Errorf("IMPORT_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.Env == "prod" && c.ImportAPIKeyHash == "" {
		return fmt.Errorf("IMPORT_API_KEY_HASH is required when APP_ENV=prod")
	}
	return nil
}

func (c Config) APIMaxBodyBytes() int64 {
	return c.APIMaxBodyMB * 1024 * 1024
}

func (c Config) ImportMaxFileBytes() int64 {
	return c.ImportMaxFileMB * 1024 * 1024
}

func (c Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutSec) * time.Second
}

func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}
