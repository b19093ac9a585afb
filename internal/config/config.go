// Package config reads houseledger settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variable names.
const (
	EnvDriver      = "HOUSELEDGER_DRIVER"
	EnvDB          = "HOUSELEDGER_DB"
	EnvPostgresDSN = "HOUSELEDGER_POSTGRES_DSN"
	EnvAddr        = "HOUSELEDGER_ADDR"
	EnvLogLevel    = "HOUSELEDGER_LOG_LEVEL"
	EnvS3Bucket    = "HOUSELEDGER_S3_BUCKET"
	EnvS3Region    = "HOUSELEDGER_S3_REGION"
	EnvS3Endpoint  = "HOUSELEDGER_S3_ENDPOINT"
	EnvS3PathStyle = "HOUSELEDGER_S3_PATH_STYLE"
	EnvS3AccessKey = "HOUSELEDGER_S3_ACCESS_KEY_ID"
	EnvS3SecretKey = "HOUSELEDGER_S3_SECRET_ACCESS_KEY"
)

// Defaults.
const (
	DefaultDB   = "houseledger.db"
	DefaultAddr = ":8080"
)

// Config is the resolved runtime configuration.
type Config struct {
	Driver      string
	DBPath      string
	PostgresDSN string
	Addr        string
	LogLevel    slog.Level
	S3          S3Config
}

// S3Config locates the snapshot bucket. Bucket empty means S3 is not configured.
// Without an access key the default AWS credential chain is used.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from the environment. If envFile is non-empty it
// is loaded first and must exist; otherwise a ./.env is loaded when present.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Driver:      strings.ToLower(get(EnvDriver, DriverMemory)),
		DBPath:      get(EnvDB, DefaultDB),
		PostgresDSN: get(EnvPostgresDSN, ""),
		Addr:        get(EnvAddr, DefaultAddr),
		S3: S3Config{
			Bucket:          get(EnvS3Bucket, ""),
			Region:          get(EnvS3Region, ""),
			Endpoint:        get(EnvS3Endpoint, ""),
			AccessKeyID:     get(EnvS3AccessKey, ""),
			SecretAccessKey: get(EnvS3SecretKey, ""),
		},
	}

	level, err := ParseLevel(get(EnvLogLevel, "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if raw := get(EnvS3PathStyle, ""); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvS3PathStyle, err)
		}
		cfg.S3.PathStyle = b
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the driver is known and has what it needs.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("driver %q requires a database path", c.Driver)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("driver %q requires %s", c.Driver, EnvPostgresDSN)
		}
	default:
		return fmt.Errorf("unknown driver %q (want %s, %s or %s)", c.Driver, DriverMemory, DriverSQLite, DriverPostgres)
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}
