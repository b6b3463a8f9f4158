package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/leafnote/leafnote/pkg/config"
)

// Config holds all configuration for the leafnote service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"leafnote"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"leafnote_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"leafnote_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tokens. The two secrets sign independent token classes and must never
	// be the same value.
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:8080/api/v1/auth/google/callback"`

	// Frontend
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables. Missing or equal token
// secrets are fatal: the process must not start without both signing domains.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load leafnote config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET must be set")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	// In non-development environments, require strong secrets.
	if cfg.Environment != "development" {
		if len(cfg.AccessTokenSecret) < 32 {
			return nil, fmt.Errorf("ACCESS_TOKEN_SECRET must be at least 32 characters long, got %d", len(cfg.AccessTokenSecret))
		}
		if len(cfg.RefreshTokenSecret) < 32 {
			return nil, fmt.Errorf("REFRESH_TOKEN_SECRET must be at least 32 characters long, got %d", len(cfg.RefreshTokenSecret))
		}
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode. Cookie
// security attributes depend on it.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
