package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "your_jwt_secret_key_here"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	JWT        JWTConfig
	Pricing    PricingConfig
	Matching   MatchingConfig
	Identifier IdentifierConfig
	Earnings   EarningsConfig
	Cache      CacheConfig
	Log        LogConfig
	Features   FeatureFlags
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	AutoMigrate    bool
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// PricingConfig holds the fare constants. Amounts are decimal strings in env.
// SurgeSchedule is a list of "from-to:multiplier" hour windows read in
// SurgeTimezone.
type PricingConfig struct {
	BaseFare      decimal.Decimal
	PerKMRate     decimal.Decimal
	SurgeSchedule string
	SurgeTimezone string
}

type MatchingConfig struct {
	MaxResults int
}

type IdentifierConfig struct {
	Length         int
	RidePrefix     string
	MaxAttempts    int
	ReservationTTL time.Duration
}

type EarningsConfig struct {
	WindowDays int
}

type CacheConfig struct {
	TTLIdempotency time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type FeatureFlags struct {
	EnableSurgePricing bool
	EnableIdempotency  bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", "ridehailing"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 10),
			MaxLifetime:    time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			AutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 100),
			MinIdleConn: 10,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "RideHailing"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", true),
			LogLevel:   getEnv("NEW_RELIC_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer: getEnv("JWT_ISSUER", "ride-hailing"),
			Expiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		},
		Pricing: PricingConfig{
			BaseFare:      getEnvAsDecimal("PRICING_BASE_FARE", decimal.NewFromInt(50)),
			PerKMRate:     getEnvAsDecimal("PRICING_PER_KM_RATE", decimal.NewFromInt(10)),
			SurgeSchedule: getEnv("PRICING_SURGE_SCHEDULE", "7-10:1.5,17-21:1.5,23-5:1.3"),
			SurgeTimezone: getEnv("PRICING_SURGE_TIMEZONE", "Asia/Kolkata"),
		},
		Matching: MatchingConfig{
			MaxResults: getEnvAsInt("MATCHING_MAX_RESULTS", 5),
		},
		Identifier: IdentifierConfig{
			Length:         getEnvAsInt("IDENTIFIER_LENGTH", 8),
			RidePrefix:     getEnv("IDENTIFIER_RIDE_PREFIX", "RIDE-"),
			MaxAttempts:    getEnvAsInt("IDENTIFIER_MAX_ATTEMPTS", 10),
			ReservationTTL: parseDuration(getEnv("IDENTIFIER_RESERVATION_TTL", "10m"), 10*time.Minute),
		},
		Earnings: EarningsConfig{
			WindowDays: getEnvAsInt("EARNINGS_WINDOW_DAYS", 7),
		},
		Cache: CacheConfig{
			TTLIdempotency: time.Duration(getEnvAsInt("CACHE_TTL_IDEMPOTENCY", 86400)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Features: FeatureFlags{
			EnableSurgePricing: getEnvAsBool("ENABLE_SURGE_PRICING", true),
			EnableIdempotency:  getEnvAsBool("ENABLE_IDEMPOTENCY", true),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWT.Secret == defaultJWTSecret && c.Server.Env == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Pricing.BaseFare.IsNegative() {
		return fmt.Errorf("PRICING_BASE_FARE must not be negative")
	}
	if !c.Pricing.PerKMRate.IsPositive() {
		return fmt.Errorf("PRICING_PER_KM_RATE must be positive")
	}
	if _, err := time.LoadLocation(c.Pricing.SurgeTimezone); err != nil {
		return fmt.Errorf("PRICING_SURGE_TIMEZONE: %w", err)
	}
	if c.Matching.MaxResults <= 0 {
		return fmt.Errorf("MATCHING_MAX_RESULTS must be positive")
	}
	if c.Identifier.Length <= 0 {
		return fmt.Errorf("IDENTIFIER_LENGTH must be positive")
	}
	if c.Identifier.MaxAttempts <= 0 {
		return fmt.Errorf("IDENTIFIER_MAX_ATTEMPTS must be positive")
	}
	if c.Earnings.WindowDays <= 0 {
		return fmt.Errorf("EARNINGS_WINDOW_DAYS must be positive")
	}
	return nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := getEnv(key, "")
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
