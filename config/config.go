package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string
	JWTSecretKey   string
	ServerPort     int
	MigrateOnStart bool

	// Часовой пояс, в котором интерпретируются дата и время игр.
	Location        *time.Location
	ListingPageSize int

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	ReminderSchedule string
	ReminderLead     time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// R2Enabled reports whether object storage credentials are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env может отсутствовать.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseURL:       env("DATABASE_URL", ""),
		JWTSecretKey:      env("JWT_SECRET_KEY", ""),
		ReminderSchedule:  env("REMINDER_SCHEDULE", "*/10 * * * *"),
		R2AccountID:       env("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     env("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: env("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      env("R2_BUCKET_NAME", ""),
		R2PublicBaseURL:   env("R2_PUBLIC_BASE_URL", ""),
		SMTPHost:          env("SMTP_HOST", ""),
		SMTPUser:          env("SMTP_USER", ""),
		SMTPPass:          env("SMTP_PASS", ""),
		SMTPFrom:          env("SMTP_FROM", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	var err error
	if cfg.ServerPort, err = strconv.Atoi(env("SERVER_PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.MigrateOnStart, err = strconv.ParseBool(env("MIGRATE_ON_START", "false")); err != nil {
		return nil, fmt.Errorf("invalid MIGRATE_ON_START environment variable: %w", err)
	}

	if cfg.Location, err = time.LoadLocation(env("APP_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE environment variable: %w", err)
	}

	if cfg.ListingPageSize, err = strconv.Atoi(env("LISTING_PAGE_SIZE", "12")); err != nil {
		return nil, fmt.Errorf("invalid LISTING_PAGE_SIZE environment variable: %w", err)
	}
	if cfg.ListingPageSize <= 0 || cfg.ListingPageSize > 100 {
		return nil, fmt.Errorf("LISTING_PAGE_SIZE must be between 1 and 100, got %d", cfg.ListingPageSize)
	}

	for _, origin := range strings.Split(env("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.RateLimitRPS, err = strconv.ParseFloat(env("RATE_LIMIT_RPS", "5"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", getenv("RATE_LIMIT_RPS"))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(env("RATE_LIMIT_BURST", "10")); err != nil || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", getenv("RATE_LIMIT_BURST"))
	}

	if cfg.ReminderLead, err = time.ParseDuration(env("REMINDER_LEAD", "2h")); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_LEAD environment variable: %w", err)
	}

	if cfg.SMTPPort, err = strconv.Atoi(env("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
	}

	return cfg, nil
}
