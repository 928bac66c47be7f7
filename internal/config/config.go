// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Geo         GeoConfig
	Jobs        JobsConfig
	AWS         AWSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type GeoConfig struct {
	GeocodeBaseURL string `validate:"required,url"`
	RouteBaseURL   string `validate:"required,url"`
	CountryCode    string `validate:"required,len=2"`
	RequestTimeout int    `validate:"min=1"` // in seconds
	RatePerSecond  int    `validate:"min=1"` // outbound geocoding calls
}

type JobsConfig struct {
	ReconciliationSchedule string `validate:"required"`
	RankingSchedule        string `validate:"required"`
	RevenueSchedule        string `validate:"required"`
	RunTimeout             int    `validate:"min=1"` // in seconds, per run
	LeaseTTL               int    `validate:"min=1"` // in seconds
	BestSellerCount        int    `validate:"min=1"`
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string // empty disables report export
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8081"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "commerce"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Geo: GeoConfig{
			GeocodeBaseURL: getEnv("GEO_GEOCODE_URL", "https://nominatim.openstreetmap.org"),
			RouteBaseURL:   getEnv("GEO_ROUTE_URL", "https://router.project-osrm.org"),
			CountryCode:    getEnv("GEO_COUNTRY_CODE", "vn"),
			RequestTimeout: getEnvAsInt("GEO_REQUEST_TIMEOUT", 10),
			RatePerSecond:  getEnvAsInt("GEO_RATE_PER_SECOND", 1),
		},
		Jobs: JobsConfig{
			ReconciliationSchedule: getEnv("JOB_RECONCILIATION_SCHEDULE", "@hourly"),
			RankingSchedule:        getEnv("JOB_RANKING_SCHEDULE", "@daily"),
			RevenueSchedule:        getEnv("JOB_REVENUE_SCHEDULE", "@every 1m"),
			RunTimeout:             getEnvAsInt("JOB_RUN_TIMEOUT", 300),
			LeaseTTL:               getEnvAsInt("JOB_LEASE_TTL", 600),
			BestSellerCount:        getEnvAsInt("JOB_BEST_SELLER_COUNT", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		},
	}

	return config, config.Validate()
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Jobs.LeaseTTL < c.Jobs.RunTimeout {
		return fmt.Errorf("job lease TTL (%ds) must cover the run timeout (%ds)", c.Jobs.LeaseTTL, c.Jobs.RunTimeout)
	}

	return nil
}

// Helper functions
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
