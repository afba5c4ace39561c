package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database (optional - run history persistence)
	Database DatabaseConfig

	// Redis (optional - price history cache)
	Redis RedisConfig

	// Market data
	Yahoo YahooConfig

	// Optimizer defaults
	Optimizer OptimizerConfig

	// API
	APIRateLimit float64 // requests per second for /api routes
	APIBurst     int

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds the price provider configuration
type YahooConfig struct {
	BaseURL     string
	HistoryURL  string // HTML history page (fallback provider)
	RatePerSec  int
	Timeout     time.Duration
	MaxParallel int
}

// OptimizerConfig holds default Monte Carlo parameters
// profile에 값이 없을 때 사용되는 기본값
type OptimizerConfig struct {
	Portfolios int
	Lookback   int
	RiskFree   float64
	Workers    int // 0 = GOMAXPROCS
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			BaseURL:     getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			HistoryURL:  getEnv("YAHOO_HISTORY_URL", "https://finance.yahoo.com"),
			RatePerSec:  getEnvAsInt("YAHOO_RATE_PER_SEC", 5),
			Timeout:     getEnvAsDuration("YAHOO_TIMEOUT", "30s"),
			MaxParallel: getEnvAsInt("YAHOO_MAX_PARALLEL", 4),
		},

		Optimizer: OptimizerConfig{
			Portfolios: getEnvAsInt("OPT_PORTFOLIOS", 10000),
			Lookback:   getEnvAsInt("OPT_LOOKBACK", 180),
			RiskFree:   getEnvAsFloat("OPT_RISK_FREE", 0),
			Workers:    getEnvAsInt("OPT_WORKERS", 0),
		},

		APIRateLimit: getEnvAsFloat("API_RATE_LIMIT", 5),
		APIBurst:     getEnvAsInt("API_BURST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile loads an explicit env file first (--config), then Load.
// Variables already set in the environment win.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return Load()
}

// PersistenceEnabled reports whether run history should be written to Postgres
func (c *Config) PersistenceEnabled() bool {
	return c.Database.URL != ""
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Optimizer.Portfolios <= 0 {
		return fmt.Errorf("OPT_PORTFOLIOS must be > 0")
	}
	if c.Optimizer.Lookback <= 0 {
		return fmt.Errorf("OPT_LOOKBACK must be > 0")
	}
	if c.Optimizer.Workers < 0 {
		return fmt.Errorf("OPT_WORKERS must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
