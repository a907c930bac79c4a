// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the assembled runtime configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	Store       string
	DatabaseURL string
	DBMaxConns  int32

	JWTSecret string
	JWTIssuer string

	PersonnelFile    string
	MetricsEnabled   bool
	StatementTimeout time.Duration
}

// Development reports whether the service runs in development mode.
func (c Config) Development() bool {
	return c.Env == "development"
}

// LoadDotEnv reads the given files (default ".env") into the environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads .env and then the environment.
func Load() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv(os.LookupEnv)
}

// Read is Load without Validate. Operator commands that need only part of
// the configuration check what they use themselves.
func Read() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	return Parse(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults and validating.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg, err := Parse(lookup)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from lookup, applying defaults.
func Parse(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Env:           get("APP_ENV", "development"),
		Port:          get("APP_PORT", "8080"),
		LogLevel:      get("LOG_LEVEL", "info"),
		Store:         strings.ToLower(get("STORE", StorePostgres)),
		DatabaseURL:   get("DATABASE_URL", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		JWTIssuer:     get("JWT_ISSUER", "mams"),
		PersonnelFile: get("PERSONNEL_FILE", ""),
	}

	maxConns, err := strconv.ParseInt(get("DB_MAX_CONNS", "25"), 10, 32)
	if err != nil || maxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS: want a positive integer, got %q", get("DB_MAX_CONNS", ""))
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.MetricsEnabled, err = strconv.ParseBool(get("METRICS_ENABLED", "true")); err != nil {
		return Config{}, fmt.Errorf("METRICS_ENABLED: %w", err)
	}
	if cfg.StatementTimeout, err = time.ParseDuration(get("STATEMENT_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("STATEMENT_TIMEOUT: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if !c.Development() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes outside development")
	}
	return nil
}

// ValidateStore checks the store selection alone.
func (c Config) ValidateStore() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE: unknown store %q", c.Store)
	}
	return nil
}
