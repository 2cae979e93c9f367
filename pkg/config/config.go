package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	Storage  string // postgres, memory
	Database DatabaseConfig

	// Redis (optional, shared rate limiting)
	Redis RedisConfig

	// Quote provider
	Finnhub FinnhubConfig

	// Pipeline
	Pipeline PipelineConfig

	// Distribution hub
	Hub HubConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FinnhubConfig holds quote provider configuration
type FinnhubConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration // per-symbol request bound
	RateLimit  int           // requests per second
	MaxRetries int
}

// PipelineConfig holds analysis cycle configuration
type PipelineConfig struct {
	Schedule        string // cron spec, e.g. "@every 30s"
	Workers         int
	RandomSeed      int64 // 0 = seeded from clock
	InstrumentsFile string
	Premium         map[string]int // symbol -> strength bonus
}

// HubConfig holds distribution hub configuration
type HubConfig struct {
	BufferSize            int
	SnapshotNotifications int
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	premium, err := parsePremium(getEnv("PREMIUM_INSTRUMENTS", "XAUUSD:15"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Storage: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Finnhub: FinnhubConfig{
			APIKey:     getEnv("FINNHUB_API_KEY", ""),
			BaseURL:    getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			Timeout:    getEnvAsDuration("FINNHUB_TIMEOUT", "10s"),
			RateLimit:  getEnvAsInt("FINNHUB_RATE_LIMIT", 25),
			MaxRetries: getEnvAsInt("FINNHUB_MAX_RETRIES", 1),
		},

		Pipeline: PipelineConfig{
			Schedule:        getEnv("REFRESH_SCHEDULE", "@every 30s"),
			Workers:         getEnvAsInt("PIPELINE_WORKERS", 4),
			RandomSeed:      int64(getEnvAsInt("PIPELINE_RANDOM_SEED", 0)),
			InstrumentsFile: getEnv("INSTRUMENTS_FILE", "configs/instruments.yaml"),
			Premium:         premium,
		},

		Hub: HubConfig{
			BufferSize:            getEnvAsInt("HUB_BUFFER_SIZE", 256),
			SnapshotNotifications: getEnvAsInt("HUB_SNAPSHOT_NOTIFICATIONS", 50),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: postgres, memory")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be positive")
	}

	if c.Hub.BufferSize < 1 {
		return fmt.Errorf("HUB_BUFFER_SIZE must be positive")
	}

	if c.Finnhub.Timeout <= 0 {
		return fmt.Errorf("FINNHUB_TIMEOUT must be positive")
	}

	return nil
}

// parsePremium parses "XAUUSD:15,XAGUSD:5" into a bonus table
func parsePremium(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		symbol, bonusStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("PREMIUM_INSTRUMENTS entry %q must be SYMBOL:bonus", part)
		}

		bonus, err := strconv.Atoi(strings.TrimSpace(bonusStr))
		if err != nil {
			return nil, fmt.Errorf("PREMIUM_INSTRUMENTS bonus for %s: %w", symbol, err)
		}

		out[strings.ToUpper(strings.TrimSpace(symbol))] = bonus
	}
	return out, nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
