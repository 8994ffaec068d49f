// Package config loads the gateway's settings from the environment. Every
// field names its variable in an env tag and its constraints in a validate
// tag; Load reports all problems at once.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CORSConfig lists the browser origins allowed to call the API. Empty
// allows any origin without credentials.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" validate:"gte=0"`
}

// OTELConfig configures trace export over OTLP/gRPC.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" validate:"required"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
}

// UpstreamConfig locates the services the proxy forwards to.
type UpstreamConfig struct {
	BackendBaseURL    string        `env:"BACKEND_BASE_URL" validate:"required,http_url"`
	Timeout           time.Duration `env:"UPSTREAM_TIMEOUT" validate:"gte=0"` // 0 disables
	TwitterAPIBaseURL string        `env:"TWITTER_API_BASE_URL" validate:"required,http_url"`
	TwitterIntentURL  string        `env:"TWITTER_INTENT_URL" validate:"required,http_url"`
}

// SessionConfig names the cookies carrying the session token.
type SessionConfig struct {
	Cookie        string `env:"SESSION_COOKIE" validate:"required"`
	DiscordCookie string `env:"DISCORD_COOKIE" validate:"required"`
	CookieSecure  bool   `env:"COOKIE_SECURE"`
	JWTSecret     string `env:"SESSION_JWT_SECRET"` // optional HS256 verification
}

// UploadConfig bounds the media upload route.
type UploadConfig struct {
	RequireLogo bool  `env:"UPLOAD_REQUIRE_LOGO"`
	MaxBytes    int64 `env:"UPLOAD_MAX_BYTES" validate:"gt=0"` // whole multipart body
}

// Config holds all configuration values for the gateway.
type Config struct {
	Port              string        `env:"PORT" validate:"required,numeric"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" validate:"gt=0"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" validate:"gt=0"` // non-upload bodies
	GinMode           string        `env:"GIN_MODE" validate:"oneof=debug release test"`

	LogLevel       string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error fatal panic"`
	LogPretty      bool   `env:"LOG_PRETTY"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED"`
	APIBasePath    string `env:"API_BASE_PATH" validate:"startswith=/"`

	Upstream      UpstreamConfig
	Session       SessionConfig
	Upload        UploadConfig
	CategoriesTTL time.Duration `env:"CATEGORIES_TTL" validate:"gte=0"` // 0 disables caching

	// MockProjectsPath serves search from a local project list when set.
	MockProjectsPath string `env:"MOCK_PROJECTS_PATH"`

	DBPath         string        `env:"DB_PATH" validate:"required"` // SQLite file or ":memory:"
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" validate:"gt=0"`

	CORS     CORSConfig
	Security SecurityConfig
	OTEL     OTELConfig
}

// MustLoad is Load for main: it panics on any error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and validates the result.
// A variable that is set but malformed is an error, not a silent default.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              strings.TrimSpace(e.str("PORT", "8080")),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.num("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(e.num("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api")),

		Upstream: UpstreamConfig{
			BackendBaseURL:    trimURL(e.str("BACKEND_BASE_URL", "")),
			Timeout:           e.dur("UPSTREAM_TIMEOUT", 0),
			TwitterAPIBaseURL: trimURL(e.str("TWITTER_API_BASE_URL", "https://api.twitter.com")),
			TwitterIntentURL:  strings.TrimSpace(e.str("TWITTER_INTENT_URL", "https://x.com/intent/tweet")),
		},
		Session: SessionConfig{
			Cookie:        strings.TrimSpace(e.str("SESSION_COOKIE", "token")),
			DiscordCookie: strings.TrimSpace(e.str("DISCORD_COOKIE", "discord")),
			CookieSecure:  e.flag("COOKIE_SECURE", true),
			JWTSecret:     e.str("SESSION_JWT_SECRET", ""),
		},
		Upload: UploadConfig{
			RequireLogo: e.flag("UPLOAD_REQUIRE_LOGO", true),
			MaxBytes:    int64(e.num("UPLOAD_MAX_BYTES", 4<<20)),
		},
		CategoriesTTL:    e.dur("CATEGORIES_TTL", 5*time.Minute),
		MockProjectsPath: strings.TrimSpace(e.str("MOCK_PROJECTS_PATH", "")),

		DBPath:         strings.TrimSpace(e.str("DB_PATH", "gateway.db")),
		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "curation-gateway"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := errors.Join(e.errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the struct-tag constraints and names offending variables.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, describe(fe))
	}
	return errors.Join(errs...)
}

// DevSearch reports whether search is served from the local mock index.
func (c Config) DevSearch() bool { return c.MockProjectsPath != "" }

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}()

func describe(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s must not be empty", name)
	case "http_url":
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Errorf("%s must be > %s", name, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be >= %s", name, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be <= %s", name, fe.Param())
	case "numeric":
		return fmt.Errorf("%s must be a number", name)
	}
	return fmt.Errorf("%s failed %s", name, fe.Tag())
}

// env reads variables, collecting parse errors instead of stopping at the
// first. Unset and empty variables take the default.
type env struct {
	errs []error
}

func (e *env) str(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func (e *env) parse(k string, fn func(string) error) {
	v := e.str(k, "")
	if v == "" {
		return
	}
	if err := fn(strings.TrimSpace(v)); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: cannot parse %q", k, v))
	}
}

func (e *env) num(k string, def int) int {
	n := def
	e.parse(k, func(s string) (err error) {
		n, err = strconv.Atoi(s)
		return err
	})
	return n
}

func (e *env) float(k string, def float64) float64 {
	f := def
	e.parse(k, func(s string) (err error) {
		f, err = strconv.ParseFloat(s, 64)
		return err
	})
	return f
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	d := def
	e.parse(k, func(s string) (err error) {
		d, err = time.ParseDuration(s)
		return err
	})
	return d
}

func (e *env) flag(k string, def bool) bool {
	b := def
	e.parse(k, func(s string) error {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "y", "on":
			b = true
		case "0", "false", "no", "n", "off":
			b = false
		default:
			return errors.New("not a boolean")
		}
		return nil
	})
	return b
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns "/" or a path with a leading and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}

func trimURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
