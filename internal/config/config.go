package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// PayrollConfig holds calculation and statutory settings. Slab tables are
// kept in their "upper:rate,..." form and parsed by the statutory package.
type PayrollConfig struct {
	Workers           int
	MinorUnits        int32
	PFRate            decimal.Decimal
	PFWageCeiling     decimal.Decimal
	ESIRate           decimal.Decimal
	ESIGrossThreshold decimal.Decimal
	TDSSlabs          string
	PTSlabs           string
	// A draft run older than StaleRunAfter is treated as interrupted.
	StaleRunAfter time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Debug("no .env file found, using environment only")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMigrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		Migrate:  dbMigrate,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}
	minorUnits, err := strconv.ParseInt(getEnv("PAYROLL_CURRENCY_MINOR_UNITS", "2"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CURRENCY_MINOR_UNITS: %w", err)
	}

	staleRunAfter, err := time.ParseDuration(getEnv("PAYROLL_STALE_RUN_AFTER", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_STALE_RUN_AFTER: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("PAYROLL_SWEEP_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_SWEEP_INTERVAL: %w", err)
	}

	config.Payroll = PayrollConfig{
		Workers:    workers,
		MinorUnits: int32(minorUnits),
		TDSSlabs:   getEnv("TDS_SLABS", "300000:0,700000:5,1000000:10,1200000:15,1500000:20,inf:30"),
		PTSlabs:    getEnv("PT_SLABS", "7500:0,10000:175,inf:200"),

		StaleRunAfter: staleRunAfter,
		SweepInterval: sweepInterval,
	}
	decimals := []struct {
		key      string
		fallback string
		dst      *decimal.Decimal
	}{
		{"PF_RATE", "12", &config.Payroll.PFRate},
		{"PF_WAGE_CEILING", "15000", &config.Payroll.PFWageCeiling},
		{"ESI_RATE", "0.75", &config.Payroll.ESIRate},
		{"ESI_GROSS_THRESHOLD", "21000", &config.Payroll.ESIGrossThreshold},
	}
	for _, d := range decimals {
		v, err := decimal.NewFromString(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.Workers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if c.Payroll.StaleRunAfter <= 0 || c.Payroll.SweepInterval <= 0 {
		return fmt.Errorf("PAYROLL_STALE_RUN_AFTER and PAYROLL_SWEEP_INTERVAL must be positive")
	}
	if c.Payroll.MinorUnits < 0 {
		return fmt.Errorf("PAYROLL_CURRENCY_MINOR_UNITS must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
