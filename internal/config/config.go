package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Email       EmailConfig
	Jobs        JobsConfig
	Logging     LoggingConfig
	Bootstrap   BootstrapConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type AuthConfig struct {
	// TokenExpiry of zero means issued tokens never expire.
	TokenExpiry time.Duration
}

type RateLimitConfig struct {
	// Requests per minute per client IP; zero disables the tier.
	PublicPerMinute int
	UserPerMinute   int
	// Login allows this many attempts per 15 minutes per client IP.
	LoginPer15Minutes int
	TrustedProxyCIDRs []string
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

type JobsConfig struct {
	// ReminderInterval is how often the reminder dispatch job runs.
	ReminderInterval time.Duration
	// ReminderWindow is the look-ahead horizon for upcoming events.
	ReminderWindow time.Duration
	// ReminderConcurrency bounds parallel notification sends per run.
	ReminderConcurrency int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// BootstrapConfig seeds a first user on startup so a fresh deployment
// has an account that can log in.
type BootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Auth: AuthConfig{
			TokenExpiry: time.Duration(getEnvInt("AUTH_TOKEN_EXPIRY_HOURS", 0)) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 0),
			UserPerMinute:     getEnvInt("RATE_LIMIT_USER", 60),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", "reminders@attend.events"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Jobs: JobsConfig{
			ReminderInterval:    time.Duration(getEnvInt("REMINDER_INTERVAL_MINUTES", 60)) * time.Minute,
			ReminderWindow:      time.Duration(getEnvInt("REMINDER_WINDOW_HOURS", 24)) * time.Hour,
			ReminderConcurrency: getEnvInt("REMINDER_CONCURRENCY", 4),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Bootstrap: BootstrapConfig{
			Name:     getEnv("BOOTSTRAP_USER_NAME", ""),
			Email:    getEnv("BOOTSTRAP_USER_EMAIL", ""),
			Password: getEnv("BOOTSTRAP_USER_PASSWORD", ""),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return Config{}, fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is true")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
