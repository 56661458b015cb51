package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Courier dispatch service
	CourierAPIBase string
	CourierAPIKey  string
	CourierTimeout time.Duration

	// Order registration collaborator (web API)
	RegistryAPIBase string
	RegistryAPIKey  string
	RegistryTimeout time.Duration

	// Telegram notification channel
	TelegramBotToken string
	TelegramAPIBase  string

	// ReconcileInterval is the polling period of the reconciliation loop.
	// It is also the maximum staff-notification delay the platform promises.
	ReconcileInterval time.Duration

	// PickupCacheTTL bounds how stale a cached kitchen pickup address may be.
	PickupCacheTTL time.Duration

	// Delivery pricing
	FreeDeliveryFrom int64
	DeliveryFee      int64

	LogLevel string
}

var configInstance *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production the environment variables are set directly,
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CourierAPIBase:     getEnv("COURIER_API_BASE", ""),
		CourierAPIKey:      getEnv("COURIER_API_KEY", ""),
		CourierTimeout:     getEnvSeconds("COURIER_TIMEOUT_SECONDS", 10),
		RegistryAPIBase:    getEnv("REGISTRY_API_BASE", ""),
		RegistryAPIKey:     getEnv("REGISTRY_API_KEY", ""),
		RegistryTimeout:    getEnvSeconds("REGISTRY_TIMEOUT_SECONDS", 5),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBase:    getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		ReconcileInterval:  getEnvSeconds("RECONCILE_INTERVAL_SECONDS", 5),
		PickupCacheTTL:     getEnvSeconds("PICKUP_CACHE_TTL_SECONDS", 300),
		FreeDeliveryFrom:   getEnvInt64("FREE_DELIVERY_FROM", 30000),
		DeliveryFee:        getEnvInt64("DELIVERY_FEE", 4000),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	configInstance = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the loaded configuration instance
func GetConfig() *Config {
	return configInstance
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(c *Config) {
	configInstance = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvSeconds retrieves an integer environment variable as a duration in seconds
func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("Invalid %s=%q, falling back to %ds", key, value, defaultSeconds)
	}
	return time.Duration(defaultSeconds) * time.Second
}

// getEnvInt64 retrieves an integer environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid %s=%q, falling back to %d", key, value, defaultValue)
	}
	return defaultValue
}
