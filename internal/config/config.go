package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/greenstash/greenstash/internal/backup"
	"github.com/greenstash/greenstash/internal/draft"
	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string
	AutoMigrate  bool // run pending migrations on startup

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// HTTP
	CORSAllowedOrigins []string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	// Snapshots are disabled when S3Bucket is empty.
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration

	// Backups
	BackupImagePolicy string // "fail" or "placeholder"
	BackupTimezone    string // IANA name dates are written in
	DateStyle         string // how users type deadlines
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "GreenStash"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/greenstash.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"),
		AutoMigrate:  envBool("DB_AUTO_MIGRATE", true),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 30*24*time.Hour), // 30 days

		// HTTP
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", nil),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (optional)
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),

		// Backups
		BackupImagePolicy: envString("BACKUP_IMAGE_POLICY", string(backup.ImagePolicyFail)),
		BackupTimezone:    envString("BACKUP_TIMEZONE", "UTC"),
		DateStyle:         envString("DATE_STYLE", draft.DateStyleDayMonthYear),
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks enumerated and parsed settings.
func (c *Config) Validate() error {
	switch c.AppEnv {
	case "development", "production":
	default:
		return fmt.Errorf("APP_ENV must be development or production, got %q", c.AppEnv)
	}

	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", c.DBDriver)
	}

	_, err := backup.ParseImagePolicy(c.BackupImagePolicy)
	if err != nil {
		return fmt.Errorf("BACKUP_IMAGE_POLICY: %w", err)
	}

	_, err = time.LoadLocation(c.BackupTimezone)
	if err != nil {
		return fmt.Errorf("BACKUP_TIMEZONE: %w", err)
	}

	_, ok := draft.Layout(c.DateStyle)
	if !ok {
		return fmt.Errorf("DATE_STYLE must be one of [%s %s %s], got %q",
			draft.DateStyleDayMonthYear, draft.DateStyleYearMonthDay, draft.DateStyleMonthDayYear, c.DateStyle)
	}

	if c.S3Bucket != "" && c.S3PresignExpiry <= 0 {
		return fmt.Errorf("S3_PRESIGN_EXPIRY must be positive")
	}

	return nil
}

// BackupOptions returns codec options for the configured policy and timezone.
// Call after Validate.
func (c *Config) BackupOptions() backup.Options {
	policy, _ := backup.ParseImagePolicy(c.BackupImagePolicy)
	loc, err := time.LoadLocation(c.BackupTimezone)
	if err != nil {
		loc = time.UTC
	}
	return backup.Options{ImagePolicy: policy, Location: loc}
}

// DateLayout returns the Go layout for DateStyle.
func (c *Config) DateLayout() string {
	layout, ok := draft.Layout(c.DateStyle)
	if !ok {
		layout, _ = draft.Layout(draft.DateStyleDayMonthYear)
	}
	return layout
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether snapshot storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}
