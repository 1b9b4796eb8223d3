// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8000"`

	// Database (PostgreSQL). Connection parameters are provided as
	// separate variables and assembled by DatabaseDSN.
	DBUsername string `env:"DBUsername,required"`
	DBPassword string `env:"DBPassword,required"`
	DBHost     string `env:"DBHost" envDefault:"localhost"`
	DBPort     int    `env:"DBPort" envDefault:"5432"`
	DBDatabase string `env:"DBDatabase,required"`
	DBSSLMode  string `env:"DBSSLMode" envDefault:"disable"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Authentication
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"60m"`

	// Document storage
	DocumentStorageDir string `env:"DOCUMENT_STORAGE_DIR" envDefault:"./data/documents"`
	MaxUploadSize      int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	// Optional log file path. When set, logs are written to this file
	// with size-based rotation in addition to stderr.
	LogFile string `env:"LOG_FILE" envDefault:""`

	// Metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPS     int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`
	RateLimitAPIEnabled  bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIRPS      int  `env:"RATE_LIMIT_API_RPS" envDefault:"25"`
	RateLimitAPIBurst    int  `env:"RATE_LIMIT_API_BURST" envDefault:"50"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes for JSON endpoints (default 1MB).
	// Document uploads are limited by MAX_UPLOAD_SIZE instead.
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DatabaseDSN assembles a PostgreSQL connection URL from the separate
// DB* variables. Credentials are URL-escaped.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUsername, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBDatabase,
	}
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	// Allow a .env file for local runs. Real environments set the
	// variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
