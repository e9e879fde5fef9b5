package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catalogsync/internal/services/logicom"

	"github.com/joho/godotenv"
)

type Config struct {
	// Supplier (Logicom)
	LogicomConsumerKey    string
	LogicomConsumerSecret string
	LogicomAccessTokenKey string
	LogicomCustomerID     string
	LogicomAPIURL         string
	LogicomRateLimit      float64
	LogicomTimeout        time.Duration

	// Images
	ImageReferer string
	ImageRetries int
	ImageTimeout time.Duration

	// Document store
	DatabaseURL string

	// Kafka
	KafkaBrokers     string
	KafkaSyncTopic   string
	KafkaEventsTopic string
	KafkaGroupID     string

	// API Configuration
	APIPort     string
	APIHost     string
	CORSOrigins string

	// JWT
	JWTSecret string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		LogicomConsumerKey:    getEnv("LOGICOM_CONSUMER_KEY", ""),
		LogicomConsumerSecret: getEnv("LOGICOM_CONSUMER_SECRET", ""),
		LogicomAccessTokenKey: getEnv("LOGICOM_ACCESS_TOKEN_KEY", ""),
		LogicomCustomerID:     getEnv("LOGICOM_CUSTOMER_ID", ""),
		LogicomAPIURL:         strings.TrimRight(getEnv("LOGICOM_API_URL", ""), "/"),
		LogicomRateLimit:      getEnvAsFloat("LOGICOM_RATE_LIMIT", 5),
		LogicomTimeout:        getEnvAsDuration("LOGICOM_TIMEOUT", 60*time.Second),
		ImageReferer:          getEnv("IMAGE_REFERER", "https://www.logicompartners.com/"),
		ImageRetries:          getEnvAsInt("IMAGE_RETRIES", 2),
		ImageTimeout:          getEnvAsDuration("IMAGE_TIMEOUT", 20*time.Second),
		DatabaseURL:           getEnv("DATABASE_URL", "sqlite://catalog.db"),
		KafkaBrokers:          getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaSyncTopic:        getEnv("KAFKA_SYNC_TOPIC", "catalog-sync-requests"),
		KafkaEventsTopic:      getEnv("KAFKA_EVENTS_TOPIC", "catalog-sync-events"),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "catalogsync-worker"),
		APIPort:               getEnv("API_PORT", "8080"),
		APIHost:               getEnv("API_HOST", "0.0.0.0"),
		CORSOrigins:           getEnv("CORS_ORIGINS", "*"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Credentials returns the supplier credentials. They are read once at start
// and never written anywhere.
func (c *Config) Credentials() logicom.Credentials {
	return logicom.Credentials{
		ConsumerKey:    c.LogicomConsumerKey,
		ConsumerSecret: c.LogicomConsumerSecret,
		AccessTokenKey: c.LogicomAccessTokenKey,
		CustomerID:     c.LogicomCustomerID,
		BaseURL:        c.LogicomAPIURL,
	}
}

// Validate reports every missing supplier setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"LOGICOM_CONSUMER_KEY":     c.LogicomConsumerKey,
		"LOGICOM_CONSUMER_SECRET":  c.LogicomConsumerSecret,
		"LOGICOM_ACCESS_TOKEN_KEY": c.LogicomAccessTokenKey,
		"LOGICOM_CUSTOMER_ID":      c.LogicomCustomerID,
		"LOGICOM_API_URL":          c.LogicomAPIURL,
	}
	for _, key := range []string{
		"LOGICOM_CONSUMER_KEY",
		"LOGICOM_CONSUMER_SECRET",
		"LOGICOM_ACCESS_TOKEN_KEY",
		"LOGICOM_CUSTOMER_ID",
		"LOGICOM_API_URL",
	} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.ImageRetries < 0 {
		errs = append(errs, fmt.Errorf("IMAGE_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
