// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/utils"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Store
	StoreDriver string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresURI string

	// SQLite
	SQLitePath string

	// AeroAPI
	AeroAPIKey           string
	AeroAPIBaseURL       string
	AeroAPIRatePerMinute int

	// OpenSky
	OpenSkyClientID      string
	OpenSkyClientSecret  string
	OpenSkyTokenURL      string
	OpenSkyBaseURL       string
	OpenSkyRatePerMinute int

	// Polling
	Airports      []string
	PollInterval  time.Duration
	PollLookahead time.Duration

	// Retention
	RetentionMaxAge time.Duration
	PruneInterval   time.Duration

	// Webhook
	WebhookURL   string
	WebhookToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		StoreDriver: getEnv("STORE_DRIVER", DriverMemory),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "enroute"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", ""),

		SQLitePath: getEnv("SQLITE_PATH", "data/enroute.db"),

		AeroAPIKey:           getEnv("AEROAPI_KEY", ""),
		AeroAPIBaseURL:       getEnv("AEROAPI_BASE_URL", ""),
		AeroAPIRatePerMinute: getEnvAsInt("AEROAPI_RATE_PER_MINUTE", 10),

		OpenSkyClientID:      getEnv("OPENSKY_CLIENT_ID", ""),
		OpenSkyClientSecret:  getEnv("OPENSKY_CLIENT_SECRET", ""),
		OpenSkyTokenURL:      getEnv("OPENSKY_TOKEN_URL", ""),
		OpenSkyBaseURL:       getEnv("OPENSKY_BASE_URL", ""),
		OpenSkyRatePerMinute: getEnvAsInt("OPENSKY_RATE_PER_MINUTE", 4),

		Airports:      getEnvAsList("AIRPORTS", []string{"KSFO"}),
		PollInterval:  time.Duration(getEnvAsInt("POLL_INTERVAL", 60)) * time.Second,
		PollLookahead: time.Duration(getEnvAsInt("POLL_LOOKAHEAD", 90)) * time.Minute,

		RetentionMaxAge: time.Duration(getEnvAsInt("RETENTION_MAX_AGE", 360)) * time.Minute,
		PruneInterval:   time.Duration(getEnvAsInt("PRUNE_INTERVAL", 600)) * time.Second,

		WebhookURL:   getEnv("WEBHOOK_URL", ""),
		WebhookToken: getEnv("WEBHOOK_TOKEN", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverMongo, DriverSQLite:
	case DriverPostgres:
		if c.PostgresURI == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres driver", entity.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", entity.ErrInvalidConfig, c.StoreDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: POLL_INTERVAL must be positive", entity.ErrInvalidConfig)
	}
	if c.PollLookahead <= 0 {
		return fmt.Errorf("%w: POLL_LOOKAHEAD must be positive", entity.ErrInvalidConfig)
	}
	if c.PruneInterval <= 0 {
		return fmt.Errorf("%w: PRUNE_INTERVAL must be positive", entity.ErrInvalidConfig)
	}
	for _, code := range c.Airports {
		if entity.NormalizeICAO(code) == "" {
			return fmt.Errorf("%w: empty airport code in AIRPORTS", entity.ErrInvalidConfig)
		}
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if values := utils.SplitList(getEnv(key, "")); len(values) > 0 {
		return values
	}
	return defaultValue
}
