package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	JWTSecret   string
	Database    DatabaseConfig
	Redis       RedisConfig
	CCAvenue    CCAvenueConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds the pub/sub channel connection details
type RedisConfig struct {
	URL string
}

// CCAvenueConfig holds the refund gateway settings
type CCAvenueConfig struct {
	BaseURL        string
	MerchantID     string
	APIKey         string
	TimeoutSeconds int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hospital_admin"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	gatewayTimeout, err := strconv.Atoi(getEnv("CCAVENUE_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid CCAVENUE_TIMEOUT_SECONDS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("APP_ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "default_jwt_secret"),
		Database:    dbConfig,
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		CCAvenue: CCAvenueConfig{
			BaseURL:        getEnv("CCAVENUE_BASE_URL", "https://api.ccavenue.com"),
			MerchantID:     getEnv("CCAVENUE_MERCHANT_ID", ""),
			APIKey:         getEnv("CCAVENUE_API_KEY", ""),
			TimeoutSeconds: gatewayTimeout,
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
