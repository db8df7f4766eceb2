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

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Sweep    SweepConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	RunMigrations bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RedisConfig is optional. An empty Address disables the sweep lock.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// LedgerConfig holds the attendance policy parameters.
type LedgerConfig struct {
	RequireLocation       bool
	MaxAccuracyMeters     float64
	HalfDayThresholdHours decimal.Decimal
	LeavePunchPolicy      string // flag, reject
	MissingClockOutStatus string // half_day, absent
}

type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	Grace    time.Duration
}

const (
	LeavePunchPolicyFlag   = "flag"
	LeavePunchPolicyReject = "reject"
)

func Load() (*Config, error) {
	// .env is optional outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	runMigrations, err := strconv.ParseBool(getEnv("RUN_MIGRATIONS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_MIGRATIONS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          dbPort,
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "worklog_ledger"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RunMigrations: runMigrations,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Address:  getEnv("REDIS_ADDRESS", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Attendance policy
	ledger, err := loadLedgerConfig()
	if err != nil {
		return nil, err
	}
	config.Ledger = ledger

	// End-of-day sweep
	sweepEnabled, err := strconv.ParseBool(getEnv("SWEEP_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_ENABLED: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	sweepGrace, err := time.ParseDuration(getEnv("SWEEP_GRACE", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_GRACE: %w", err)
	}

	config.Sweep = SweepConfig{
		Enabled:  sweepEnabled,
		Interval: sweepInterval,
		Grace:    sweepGrace,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadLedgerConfig() (LedgerConfig, error) {
	requireLocation, err := strconv.ParseBool(getEnv("LEDGER_REQUIRE_LOCATION", "true"))
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("invalid LEDGER_REQUIRE_LOCATION: %w", err)
	}

	maxAccuracy, err := strconv.ParseFloat(getEnv("LEDGER_MAX_ACCURACY_METERS", "500"), 64)
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("invalid LEDGER_MAX_ACCURACY_METERS: %w", err)
	}

	threshold, err := decimal.NewFromString(getEnv("LEDGER_HALF_DAY_THRESHOLD_HOURS", "4"))
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("invalid LEDGER_HALF_DAY_THRESHOLD_HOURS: %w", err)
	}

	return LedgerConfig{
		RequireLocation:       requireLocation,
		MaxAccuracyMeters:     maxAccuracy,
		HalfDayThresholdHours: threshold,
		LeavePunchPolicy:      strings.ToLower(getEnv("LEDGER_LEAVE_PUNCH_POLICY", LeavePunchPolicyFlag)),
		MissingClockOutStatus: strings.ToLower(getEnv("LEDGER_MISSING_CLOCK_OUT_STATUS", "half_day")),
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return c.Ledger.Validate()
}

// Validate checks the attendance policy values.
func (l LedgerConfig) Validate() error {
	if l.MaxAccuracyMeters <= 0 {
		return fmt.Errorf("LEDGER_MAX_ACCURACY_METERS must be positive")
	}
	if l.HalfDayThresholdHours.IsNegative() || l.HalfDayThresholdHours.GreaterThan(decimal.NewFromInt(24)) {
		return fmt.Errorf("LEDGER_HALF_DAY_THRESHOLD_HOURS must be between 0 and 24")
	}
	if l.LeavePunchPolicy != LeavePunchPolicyFlag && l.LeavePunchPolicy != LeavePunchPolicyReject {
		return fmt.Errorf("LEDGER_LEAVE_PUNCH_POLICY must be one of: flag, reject")
	}
	if l.MissingClockOutStatus != "half_day" && l.MissingClockOutStatus != "absent" {
		return fmt.Errorf("LEDGER_MISSING_CLOCK_OUT_STATUS must be one of: half_day, absent")
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

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
