package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValidOutsideProd(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.App.Environment = "dev"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "nominal", mutate: func(c *Config) {}},
		{name: "bad env", mutate: func(c *Config) { c.App.Environment = "staging" }, wantErr: true},
		{name: "privileged port", mutate: func(c *Config) { c.HTTP.Port = 80 }, wantErr: true},
		{name: "unknown media backend", mutate: func(c *Config) { c.Media.Backend = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) {
			c.Media.Backend = "s3"
			c.S3.Endpoint = "http://localhost:3900"
		}, wantErr: true},
		{name: "s3 complete", mutate: func(c *Config) {
			c.Media.Backend = "s3"
			c.S3 = S3Config{Endpoint: "http://localhost:3900", Region: "garage", AccessKey: "k", SecretKey: "s", Bucket: "media"}
		}},
		{name: "admin username without password", mutate: func(c *Config) { c.Auth.AdminUsername = "admin" }, wantErr: true},
		{name: "short admin password", mutate: func(c *Config) {
			c.Auth.AdminUsername = "admin"
			c.Auth.AdminPassword = "short"
		}, wantErr: true},
		{name: "zero upload size", mutate: func(c *Config) { c.Media.MaxUploadBytes = 0 }, wantErr: true},
		{name: "zero session ttl", mutate: func(c *Config) { c.Auth.SessionTTL = 0 }, wantErr: true},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Metrics.TraceSampleRatio = 1.5 }, wantErr: true},
		{name: "reset without credentials", mutate: func(c *Config) { c.Auth.ResetAdminPassword = true }, wantErr: true},
		{name: "reset with credentials", mutate: func(c *Config) {
			c.Auth.AdminUsername = "admin"
			c.Auth.AdminPassword = "correct horse"
			c.Auth.ResetAdminPassword = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("MEDIA_URL_PREFIX", "/uploads/")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("LOGGER_LEVEL", "WARNING")
	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("MEDIA_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("ADMIN_RESET_PASSWORD", "true")

	cfg := LoadWithDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("port: want 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Logger.Level != slog.LevelWarn {
		t.Errorf("level: want warn, got %v", cfg.Logger.Level)
	}
	if cfg.Metrics.TraceSampleRatio != 0.25 {
		t.Errorf("sample ratio: want 0.25, got %g", cfg.Metrics.TraceSampleRatio)
	}
	if cfg.Media.MaxUploadBytes != 1<<20 {
		t.Errorf("max upload: want 1MiB, got %d", cfg.Media.MaxUploadBytes)
	}
	if !cfg.Auth.ResetAdminPassword {
		t.Error("ADMIN_RESET_PASSWORD not read")
	}
	if cfg.Media.URLPrefix != "uploads" {
		t.Errorf("prefix should be trimmed of slashes, got %q", cfg.Media.URLPrefix)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("invalid duration should fall back to default, got %s", cfg.Auth.SessionTTL)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HTTP.Port = 80
	cfg.Limiter.Burst = 0
	cfg.Media.Backend = "ftp"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"HTTP_PORT", "LIMITER_BURST", "MEDIA_BACKEND"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
