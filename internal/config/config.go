package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	Version     string
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
	// TraceSampleRatio is the share of root spans kept, 0 to 1.
	TraceSampleRatio float64
}

type AuthConfig struct {
	SessionTTL    time.Duration
	AdminUsername string
	AdminPassword string
	// ResetAdminPassword overwrites the stored hash with AdminPassword on start.
	ResetAdminPassword bool
}

type MediaConfig struct {
	Backend        string // 'local' | 's3'
	Root           string // local directory the files live in
	URLPrefix      string // public path segment, e.g. "media" -> /media/...
	MaxUploadBytes int64
	VariantWorkers int
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Auth    AuthConfig
	Media   MediaConfig
	S3      S3Config
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Architecture Studio",
			Environment: "prod",
			Version:     "dev",
		},
		DB: DBConfig{
			Path:           "archsite.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     15 * time.Second, // multipart uploads
				Write:    30 * time.Second,
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint:     "localhost:4318",
			TraceSampleRatio: 1,
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
		Media: MediaConfig{
			Backend:        "local",
			Root:           "./public",
			URLPrefix:      "media",
			MaxUploadBytes: 32 << 20,
			VariantWorkers: 2,
		},
		S3: S3Config{
			Region: "garage",
		},
	}
}

// LoadWithDefaults reads the environment. Unset or unparsable variables keep
// their default value; Validate catches the rest.
func LoadWithDefaults() *Config {
	d := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        env("APP_NAME", d.App.Name, parseString),
			Environment: env("APP_ENV", d.App.Environment, parseString),
			Version:     env("APP_VERSION", d.App.Version, parseString),
		},
		DB: DBConfig{
			Path:           env("DB_PATH", d.DB.Path, parseString),
			MigrationsPath: env("DB_MIGRATIONS_PATH", d.DB.MigrationsPath, parseString),
		},
		Proxy: ProxyConfig{
			Trusted: env("PROXY_TRUSTED", d.Proxy.Trusted, strconv.ParseBool),
		},
		HTTP: HTTPConfig{
			Port: env("HTTP_PORT", d.HTTP.Port, strconv.Atoi),
			Timeouts: HTTPTimeoutsConfig{
				Read:     env("HTTP_READ_TIMEOUT", d.HTTP.Timeouts.Read, time.ParseDuration),
				Write:    env("HTTP_WRITE_TIMEOUT", d.HTTP.Timeouts.Write, time.ParseDuration),
				Idle:     env("HTTP_IDLE_TIMEOUT", d.HTTP.Timeouts.Idle, time.ParseDuration),
				Shutdown: env("HTTP_SHUTDOWN_DELAY", d.HTTP.Timeouts.Shutdown, time.ParseDuration),
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   env("LIMITER_RPS", d.Limiter.RPS, strconv.Atoi),
			Burst: env("LIMITER_BURST", d.Limiter.Burst, strconv.Atoi),
		},
		Logger: LoggerConfig{
			Level: env("LOGGER_LEVEL", d.Logger.Level, parseLevel),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry:  env("ENABLE_TELEMETRY", false, strconv.ParseBool),
			OtelEndpoint:     env("OTEL_EXPORTER_OTLP_ENDPOINT", d.Metrics.OtelEndpoint, parseString),
			TraceSampleRatio: env("OTEL_TRACE_SAMPLE_RATIO", d.Metrics.TraceSampleRatio, parseFloat),
		},
		Auth: AuthConfig{
			SessionTTL:         env("SESSION_TTL", d.Auth.SessionTTL, time.ParseDuration),
			AdminUsername:      env("ADMIN_USERNAME", d.Auth.AdminUsername, parseString),
			AdminPassword:      env("ADMIN_PASSWORD", d.Auth.AdminPassword, parseString),
			ResetAdminPassword: env("ADMIN_RESET_PASSWORD", false, strconv.ParseBool),
		},
		Media: MediaConfig{
			Backend:        strings.ToLower(env("MEDIA_BACKEND", d.Media.Backend, parseString)),
			Root:           env("MEDIA_ROOT", d.Media.Root, parseString),
			URLPrefix:      strings.Trim(env("MEDIA_URL_PREFIX", d.Media.URLPrefix, parseString), "/"),
			MaxUploadBytes: env("MEDIA_MAX_UPLOAD_BYTES", d.Media.MaxUploadBytes, parseInt64),
			VariantWorkers: env("MEDIA_VARIANT_WORKERS", d.Media.VariantWorkers, strconv.Atoi),
		},
		S3: S3Config{
			Endpoint:  env("S3_ENDPOINT", d.S3.Endpoint, parseString),
			Region:    env("S3_REGION", d.S3.Region, parseString),
			AccessKey: env("S3_ACCESS_KEY", d.S3.AccessKey, parseString),
			SecretKey: env("S3_SECRET_KEY", d.S3.SecretKey, parseString),
			Bucket:    env("S3_BUCKET", d.S3.Bucket, parseString),
		},
	}
}

// env parses the variable key, falling back when it is empty or invalid.
func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// IsProd reports whether cookies and HSTS should assume TLS.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Environment, "prod")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.App.Name != "", "APP_NAME must not be empty")
	appEnv := strings.ToLower(c.App.Environment)
	check(appEnv == "dev" || appEnv == "prod", `APP_ENV must be "dev" or "prod", got %q`, c.App.Environment)
	check(c.DB.Path != "", "DB_PATH must not be empty")
	check(c.DB.MigrationsPath != "", "DB_MIGRATIONS_PATH must not be empty")

	// stay away from well-known ports
	check(c.HTTP.Port >= 1024 && c.HTTP.Port <= 65535, "HTTP_PORT must be between 1024 and 65535, got %d", c.HTTP.Port)
	for name, d := range map[string]time.Duration{
		"HTTP_READ_TIMEOUT":   c.HTTP.Timeouts.Read,
		"HTTP_WRITE_TIMEOUT":  c.HTTP.Timeouts.Write,
		"HTTP_IDLE_TIMEOUT":   c.HTTP.Timeouts.Idle,
		"HTTP_SHUTDOWN_DELAY": c.HTTP.Timeouts.Shutdown,
		"SESSION_TTL":         c.Auth.SessionTTL,
	} {
		check(d > 0, "%s must be a positive duration, got %s", name, d)
	}

	check(c.Limiter.RPS > 0, "LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	check(c.Limiter.Burst > 0, "LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	check(c.Metrics.TraceSampleRatio >= 0 && c.Metrics.TraceSampleRatio <= 1,
		"OTEL_TRACE_SAMPLE_RATIO must be within [0, 1], got %g", c.Metrics.TraceSampleRatio)

	check((c.Auth.AdminUsername == "") == (c.Auth.AdminPassword == ""), "ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	check(c.Auth.AdminPassword == "" || len(c.Auth.AdminPassword) >= 8, "ADMIN_PASSWORD must be at least 8 characters")
	check(!c.Auth.ResetAdminPassword || c.Auth.AdminPassword != "", "ADMIN_RESET_PASSWORD needs ADMIN_USERNAME and ADMIN_PASSWORD")

	check(c.Media.URLPrefix != "", "MEDIA_URL_PREFIX must not be empty")
	check(c.Media.MaxUploadBytes > 0, "MEDIA_MAX_UPLOAD_BYTES must be positive, got %d", c.Media.MaxUploadBytes)
	check(c.Media.VariantWorkers >= 1, "MEDIA_VARIANT_WORKERS must be at least 1, got %d", c.Media.VariantWorkers)

	switch c.Media.Backend {
	case "local":
		check(c.Media.Root != "", "MEDIA_ROOT must not be empty for the local backend")
	case "s3":
		check(c.S3.Endpoint != "" && c.S3.Bucket != "", "S3_ENDPOINT and S3_BUCKET must be set for the s3 backend")
		check(c.S3.AccessKey != "" && c.S3.SecretKey != "", "S3_ACCESS_KEY and S3_SECRET_KEY must be set for the s3 backend")
	default:
		check(false, `MEDIA_BACKEND must be "local" or "s3", got %q`, c.Media.Backend)
	}

	return errors.Join(errs...)
}
