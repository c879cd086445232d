package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Session configuration
	Session SessionConfig

	// Geolocation lookup configuration
	Geo GeoConfig

	// Image upload configuration
	Upload UploadConfig

	// Content configuration
	Content ContentConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// SessionConfig holds visitor/admin session cookie settings
type SessionConfig struct {
	Secret       string
	TTL          time.Duration // default visitor session lifetime
	PermanentTTL time.Duration // lifetime once a gate has been unlocked
	AdminTTL     time.Duration
	CookieSecure bool
}

// GeoConfig holds IP geolocation lookup settings
type GeoConfig struct {
	BaseURL string
	Timeout time.Duration
}

// UploadConfig holds image upload settings
type UploadConfig struct {
	Dir     string
	MaxSize int64 // in bytes
}

// ContentConfig holds listing/pagination settings
type ContentConfig struct {
	PageSize    int
	TopArticles int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "record_log"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", "dev-secret-key-change-in-production"),
			TTL:          getDurationEnv("SESSION_TTL", time.Hour),
			PermanentTTL: getDurationEnv("SESSION_PERMANENT_TTL", 30*24*time.Hour),
			AdminTTL:     getDurationEnv("ADMIN_SESSION_TTL", time.Hour),
			CookieSecure: getBoolEnv("SESSION_COOKIE_SECURE", false),
		},
		Geo: GeoConfig{
			BaseURL: getEnv("GEO_API_URL", "http://ip-api.com/json"),
			Timeout: getDurationEnv("GEO_TIMEOUT", 2*time.Second),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./static/images/uploads"),
			MaxSize: getInt64Env("MAX_UPLOAD_SIZE", 16*1024*1024), // 16MB
		},
		Content: ContentConfig{
			PageSize:    getIntEnv("PAGE_SIZE", 10),
			TopArticles: getIntEnv("TOP_ARTICLES", 5),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if os.Getenv("ENV") == "production" && c.Session.Secret == "dev-secret-key-change-in-production" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
