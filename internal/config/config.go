// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"VITRINE_DB_PATH" envDefault:"./data/vitrine.db"`
	SessionSecret string `env:"VITRINE_SESSION_SECRET,required"`
	ServerHost    string `env:"VITRINE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"VITRINE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"VITRINE_ENV" envDefault:"development"`
	LogLevel      string `env:"VITRINE_LOG_LEVEL" envDefault:"info"`
	DashboardURL  string `env:"VITRINE_DASHBOARD_URL" envDefault:"http://localhost:3000/dashboard"`
	SiteURL       string `env:"VITRINE_SITE_URL" envDefault:"http://localhost:3000"` // Public site base for sitemap URLs

	// Identity headers set by the upstream identity proxy
	SubjectHeader string `env:"VITRINE_IDENTITY_SUBJECT_HEADER" envDefault:"X-Auth-Subject"`
	EmailHeader   string `env:"VITRINE_IDENTITY_EMAIL_HEADER" envDefault:"X-Auth-Email"`
	NameHeader    string `env:"VITRINE_IDENTITY_NAME_HEADER" envDefault:"X-Auth-Name"`
	AvatarHeader  string `env:"VITRINE_IDENTITY_AVATAR_HEADER" envDefault:"X-Auth-Avatar"`
	TrustProxy    bool   `env:"VITRINE_TRUST_PROXY" envDefault:"false"` // Trust X-Forwarded-For / X-Real-IP

	// Mail relay
	MailRelayURL     string `env:"VITRINE_MAIL_RELAY_URL"`
	MailRelaySecret  string `env:"VITRINE_MAIL_RELAY_SECRET"`
	MailWorkers      int    `env:"VITRINE_MAIL_WORKERS" envDefault:"2"`
	MailFrom         string `env:"VITRINE_MAIL_FROM" envDefault:"noreply@localhost"`
	MailAllowPrivate bool   `env:"VITRINE_MAIL_ALLOW_PRIVATE" envDefault:"false"` // Allow relay hosts on private networks

	// Retention
	NotificationRetentionDays int    `env:"VITRINE_NOTIFICATION_RETENTION_DAYS" envDefault:"30"`
	EventRetentionDays        int    `env:"VITRINE_EVENT_RETENTION_DAYS" envDefault:"30"`
	PurgeSchedule             string `env:"VITRINE_PURGE_SCHEDULE" envDefault:"0 3 * * *"`

	// Cache configuration
	RedisURL     string `env:"VITRINE_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"VITRINE_CACHE_PREFIX" envDefault:"vitrine:"` // Redis key prefix
	CacheTTL     int    `env:"VITRINE_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"VITRINE_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"VITRINE_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Public inquiry endpoints
	InquiryRateLimit float64  `env:"VITRINE_INQUIRY_RATE_LIMIT" envDefault:"0.1"` // Requests per second per client IP
	InquiryBurst     int      `env:"VITRINE_INQUIRY_BURST" envDefault:"3"`
	CORSOrigins      []string `env:"VITRINE_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MailEnabled returns true if an outbound mail relay is configured.
func (c Config) MailEnabled() bool {
	return c.MailRelayURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// NotificationRetention is the age after which notifications are purged.
func (c Config) NotificationRetention() time.Duration {
	return days(c.NotificationRetentionDays)
}

// EventRetention is the age after which audit events are purged.
func (c Config) EventRetention() time.Duration {
	return days(c.EventRetentionDays)
}

// CacheDefaultTTL returns CacheTTL as a duration.
func (c Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("VITRINE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, errors.New("VITRINE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("VITRINE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("VITRINE_ENV must be development or production, got %q", c.Env)
	}
	if c.NotificationRetentionDays <= 0 {
		return errors.New("VITRINE_NOTIFICATION_RETENTION_DAYS must be positive")
	}
	if c.EventRetentionDays <= 0 {
		return errors.New("VITRINE_EVENT_RETENTION_DAYS must be positive")
	}
	if _, err := cron.ParseStandard(c.PurgeSchedule); err != nil {
		return fmt.Errorf("VITRINE_PURGE_SCHEDULE: %w", err)
	}
	if c.MailWorkers <= 0 {
		return errors.New("VITRINE_MAIL_WORKERS must be positive")
	}
	if c.InquiryRateLimit <= 0 || c.InquiryBurst <= 0 {
		return errors.New("VITRINE_INQUIRY_RATE_LIMIT and VITRINE_INQUIRY_BURST must be positive")
	}
	if c.SubjectHeader == "" {
		return errors.New("VITRINE_IDENTITY_SUBJECT_HEADER must not be empty")
	}
	c.DashboardURL = strings.TrimRight(c.DashboardURL, "/")
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
