package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// Each test starts from a valid backend and otherwise default environment.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "GIN_MODE", "DB_PATH"} {
		os.Unsetenv(k)
	}
	os.Setenv("BACKEND_BASE_URL", "http://backend.test")
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" || cfg.APIBasePath != "/api" {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.Upstream.BackendBaseURL != "http://backend.test" || cfg.Upstream.Timeout != 0 {
		t.Fatalf("upstream defaults: %+v", cfg.Upstream)
	}
	if cfg.Session.Cookie != "token" || cfg.Session.DiscordCookie != "discord" || !cfg.Session.CookieSecure {
		t.Fatalf("session defaults: %+v", cfg.Session)
	}
	if !cfg.Upload.RequireLogo || cfg.DevSearch() || cfg.CategoriesTTL != 5*time.Minute {
		t.Fatalf("catalog defaults: %+v", cfg)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "curation-gateway" {
		t.Fatalf("store/otel defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	for k, v := range map[string]string{
		"PORT":                        " 9090 ",
		"WRITE_TIMEOUT":               "3s",
		"GIN_MODE":                    "DEBUG",
		"LOG_LEVEL":                   "Warning",
		"LOG_PRETTY":                  "yes",
		"API_BASE_PATH":               "proxy/",
		"BACKEND_BASE_URL":            " https://backend.example.com/ ",
		"UPSTREAM_TIMEOUT":            "5s",
		"SESSION_COOKIE":              "sess",
		"COOKIE_SECURE":               "off",
		"UPLOAD_MAX_BYTES":            "2048",
		"CATEGORIES_TTL":              "0s",
		"MOCK_PROJECTS_PATH":          "testdata/projects.json",
		"DB_PATH":                     ":memory:",
		"CORS_ALLOWED_ORIGINS":        " https://a.com , , http://b ",
		"ENABLE_HSTS":                 "TRUE",
		"HSTS_MAX_AGE":                "24h",
		"OTEL_TRACES_SAMPLER_ARG":     "0.25",
		"OTEL_EXPORTER_OTLP_INSECURE": "0",
	} {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.WriteTimeout != 3*time.Second || cfg.GinMode != "debug" || cfg.LogLevel != "warn" {
		t.Fatalf("server: %+v", cfg)
	}
	if !cfg.LogPretty || cfg.APIBasePath != "/proxy" {
		t.Fatalf("logging/path: %+v", cfg)
	}
	if cfg.Upstream.BackendBaseURL != "https://backend.example.com" || cfg.Upstream.Timeout != 5*time.Second {
		t.Fatalf("upstream: %+v", cfg.Upstream)
	}
	if cfg.Session.Cookie != "sess" || cfg.Session.CookieSecure || cfg.Upload.MaxBytes != 2048 {
		t.Fatalf("session/upload: %+v %+v", cfg.Session, cfg.Upload)
	}
	if cfg.CategoriesTTL != 0 || !cfg.DevSearch() || cfg.DBPath != ":memory:" {
		t.Fatalf("catalog/store: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("origins: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security: %+v", cfg.Security)
	}
	if cfg.OTEL.SampleRatio != 0.25 || cfg.OTEL.Insecure {
		t.Fatalf("otel: %+v", cfg.OTEL)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, val, want string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL must be one of: trace, debug"},
		{"GIN_MODE", "weird", "GIN_MODE must be one of"},
		{"PORT", "   ", "PORT must not be empty"},
		{"PORT", "http", "PORT must be a number"},
		{"READ_TIMEOUT", "0s", "READ_TIMEOUT must be > 0"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES must be > 0"},
		{"BACKEND_BASE_URL", "", "BACKEND_BASE_URL must not be empty"},
		{"BACKEND_BASE_URL", "backend:4000", "BACKEND_BASE_URL must be an absolute http(s) URL"},
		{"TWITTER_API_BASE_URL", "ftp://x", "TWITTER_API_BASE_URL must be an absolute"},
		{"UPSTREAM_TIMEOUT", "-1s", "UPSTREAM_TIMEOUT must be >= 0"},
		{"SESSION_COOKIE", " ", "SESSION_COOKIE must not be empty"},
		{"UPLOAD_MAX_BYTES", "0", "UPLOAD_MAX_BYTES must be > 0"},
		{"CATEGORIES_TTL", "-1m", "CATEGORIES_TTL must be >= 0"},
		{"DB_PATH", "   ", "DB_PATH must not be empty"},
		{"IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL must be > 0"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG must be <= 1"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_MalformedValuesAreErrors(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "nope")
	t.Setenv("IDLE_TIMEOUT", "soon")
	t.Setenv("LOG_PRETTY", "sometimes")

	_, err := Load()
	if err == nil {
		t.Fatal("malformed values accepted")
	}
	for _, want := range []string{
		`MAX_BODY_BYTES: cannot parse "nope"`,
		`IDLE_TIMEOUT: cannot parse "soon"`,
		`LOG_PRETTY: cannot parse "sometimes"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestLoad_ReportsEveryViolation(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("IDEMPOTENCY_TTL", "0s")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") || !strings.Contains(err.Error(), "IDEMPOTENCY_TTL") {
		t.Fatalf("expected both violations, got %v", err)
	}
}

func TestMustLoad(t *testing.T) {
	if cfg := MustLoad(); cfg.Port == "" {
		t.Fatal("MustLoad returned an empty config")
	}

	t.Setenv("GIN_MODE", "chaos")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad did not panic on invalid config")
		}
	}()
	MustLoad()
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":       "/",
		" / ":    "/",
		"v1":     "/v1",
		"/api/":  "/api",
		"/a/b//": "/a/b",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("empty input: %#v", got)
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %#v", got)
	}
}
