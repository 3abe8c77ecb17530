package config

import (
	"strings"
	"testing"
	"time"

	"github.com/greenstash/greenstash/internal/backup"
)

func validConfig() *Config {
	return &Config{
		AppEnv:            "development",
		DBDriver:          "sqlite",
		BackupImagePolicy: "fail",
		BackupTimezone:    "UTC",
		DateStyle:         "dd/MM/yyyy",
		S3PresignExpiry:   time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errHas string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty image policy defaults", func(c *Config) { c.BackupImagePolicy = "" }, ""},
		{"placeholder policy", func(c *Config) { c.BackupImagePolicy = "placeholder" }, ""},
		{"bad env", func(c *Config) { c.AppEnv = "staging" }, "APP_ENV"},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"bad policy", func(c *Config) { c.BackupImagePolicy = "skip" }, "BACKUP_IMAGE_POLICY"},
		{"bad timezone", func(c *Config) { c.BackupTimezone = "Not/AZone" }, "BACKUP_TIMEZONE"},
		{"bad date style", func(c *Config) { c.DateStyle = "dd-MM-yyyy" }, "DATE_STYLE"},
		{"bad presign expiry", func(c *Config) { c.S3Bucket = "b"; c.S3PresignExpiry = 0 }, "S3_PRESIGN_EXPIRY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.errHas == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errHas) {
				t.Fatalf("expected error mentioning %s, got %v", tt.errHas, err)
			}
		})
	}
}

func TestDerivedSettings(t *testing.T) {
	c := validConfig()
	c.BackupImagePolicy = "placeholder"
	c.DateStyle = "MM/dd/yyyy"

	opts := c.BackupOptions()
	if opts.ImagePolicy != backup.ImagePolicyPlaceholder || opts.Location != time.UTC {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if got := c.DateLayout(); got != "01/02/2006" {
		t.Fatalf("unexpected layout %q", got)
	}
	if c.StorageEnabled() {
		t.Fatalf("storage should be disabled without a bucket")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GS_TEST_LIST", " https://a.example , ,https://b.example")
	t.Setenv("GS_TEST_DURATION", "nonsense")
	t.Setenv("GS_TEST_BOOL", "false")

	list := envList("GS_TEST_LIST", nil)
	if len(list) != 2 || list[0] != "https://a.example" || list[1] != "https://b.example" {
		t.Fatalf("unexpected list %v", list)
	}
	if got := envDuration("GS_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("expected default duration, got %v", got)
	}
	if envBool("GS_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	if got := envString("GS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
