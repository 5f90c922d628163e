// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles,
// with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Email providers.
const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
	EmailProviderLog    = "log"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`
	// Public URL linked from reminder emails
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Shared secret for the scheduled notification trigger
	CronSecret string `env:"CRON_SECRET,required"`

	// Reference timezone for calendar-day decisions (IANA name)
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Notification scan
	ScanWorkers     int           `env:"SCAN_WORKERS" envDefault:"8"`
	ScanReadTimeout time.Duration `env:"SCAN_READ_TIMEOUT" envDefault:"10s"`
	ScanSendTimeout time.Duration `env:"SCAN_SEND_TIMEOUT" envDefault:"15s"`

	// Rate limiting
	RateLimitEnabled  bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	APIRatePerMinute  int  `env:"API_RATE_PER_MINUTE" envDefault:"120"`
	APIRateBurst      int  `env:"API_RATE_BURST" envDefault:"30"`
	CronRatePerSecond int  `env:"CRON_RATE_PER_SECOND" envDefault:"1"`
	CronRateBurst     int  `env:"CRON_RATE_BURST" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Dashboard summary cache
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`

	// Email delivery
	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"SubTrackr <onboarding@resend.dev>"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks cross-field settings that struct tags cannot express.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ScanWorkers < 1 {
		return errors.New("SCAN_WORKERS must be at least 1")
	}

	switch c.EmailProvider {
	case EmailProviderResend:
		if c.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case EmailProviderSMTP:
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	case EmailProviderLog:
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}

	return nil
}

// Load reads an optional .env file, parses environment variables and
// returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads ENV_FILE (default .env) into the process environment if
// it exists. Variables already set in the environment win over the file.
func LoadEnvFile() error {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	return nil
}
