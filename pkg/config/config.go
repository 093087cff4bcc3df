package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
)

// Anonymization strategies. Selected once per pipeline run via config or
// the -anonymize flag, never per record.
const (
	StrategyInitials = "initials"
	StrategyHash     = "hash"
)

// Config holds all configuration for the ETL.
// Values come from config.yaml with environment variable overrides;
// environment always wins. The database URL is a secret and is only read
// from the environment (yaml:"-").
type Config struct {
	Env string `yaml:"env" env:"ENVIRONMENT" env-default:"production"`

	// DatabaseURL is the Postgres connection string. Treated as an opaque
	// credential: it must never be logged (see pkg/logging).
	DatabaseURL string `yaml:"-" env:"DATABASE_URL"`

	// AnonymizeStrategy selects how patient names are anonymized:
	// "initials" (default) or "hash".
	AnonymizeStrategy string `yaml:"anonymize_strategy" env:"ANONYMIZE_STRATEGY" env-default:"initials"`

	// QueueCSVPath and FacilityCSVPath are the default input extracts,
	// overridable with the -queue and -facilities flags.
	QueueCSVPath    string `yaml:"queue_csv_path" env:"QUEUE_CSV_PATH" env-default:"data/dados_regulacao.csv"`
	FacilityCSVPath string `yaml:"facility_csv_path" env:"FACILITY_CSV_PATH" env-default:"data/raw_unidades.csv"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds connection pool settings. The DSN itself lives in
// Config.DatabaseURL.
type DatabaseConfig struct {
	MaxConnections int32 `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"5"`
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		// No config file: environment variables and defaults only.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required fields are set and enumerations hold
// known values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperrors.ErrNoDatabaseURL
	}
	if c.AnonymizeStrategy != StrategyInitials && c.AnonymizeStrategy != StrategyHash {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, c.AnonymizeStrategy)
	}
	return nil
}
