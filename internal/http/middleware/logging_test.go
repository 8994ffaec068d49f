package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// lines decodes the JSON log lines written to buf.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(l), &m); err != nil {
			t.Fatalf("bad log line %q: %v", l, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/rid", func(c *gin.Context) { seen = RequestIDFrom(c) })

	cases := []struct {
		name, in string
		keep     bool
	}{
		{"generated", "", false},
		{"propagated", "abc-123", true},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/rid", nil)
			if tc.in != "" {
				req.Header.Set("x-request-id", tc.in)
			}
			r.ServeHTTP(w, req)
			got := w.Header().Get(HeaderRequestID)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if (got == tc.in) != tc.keep {
				t.Fatalf("keep=%v but got %q", tc.keep, got)
			}
		})
	}
}

func TestAccessLog_LevelsAndRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(LogOptions{}))
	r.GET("/projects/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/gin-error", func(c *gin.Context) {
		_ = c.Error(http.ErrAbortHandler)
		c.Status(http.StatusBadRequest)
	})
	r.GET("/upstream-down", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, p := range []string{"/projects/p1", "/missing", "/gin-error", "/upstream-down"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := lines(t, buf)
	if len(got) != 4 {
		t.Fatalf("want 4 lines, got %d: %s", len(got), buf.String())
	}
	want := []struct{ level, path string }{
		{"info", "/projects/:id"},
		{"warn", "/missing"},
		{"error", "/gin-error"},
		{"error", "/upstream-down"},
	}
	for i, w := range want {
		if got[i]["level"] != w.level || got[i]["path"] != w.path {
			t.Fatalf("line %d: level=%v path=%v, want %s %s", i, got[i]["level"], got[i]["path"], w.level, w.path)
		}
		if rid, _ := got[i]["request_id"].(string); rid == "" {
			t.Fatalf("line %d: missing request_id", i)
		}
	}
}

func TestAccessLog_Redaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(AccessLog(LogOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/wallet", func(c *gin.Context) { c.Status(http.StatusOK) })

	const (
		jwt    = "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1MSJ9.sig"
		wallet = "0x52908400098527886E0F7030069857D2E4169EE7"
	)
	req := httptest.NewRequest(http.MethodGet, "/wallet?addr="+wallet+"&mail=a@b.io&id=p-1", nil)
	req.Header.Set("Authorization", "Bearer "+jwt)
	req.Header.Set("X-Api-Key", "k")
	req.Header.Set("X-Forwarded-Token", jwt)
	req.AddCookie(&http.Cookie{Name: "token", Value: "raw"})
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, leak := range []string{jwt, wallet, "a@b.io", "raw"} {
		if strings.Contains(out, leak) {
			t.Fatalf("%q leaked: %s", leak, out)
		}
	}
	for _, kept := range []string{"[REDACTED:wallet]", "[REDACTED:email]", "[REDACTED:token]", "id=p-1"} {
		if !strings.Contains(out, kept) {
			t.Fatalf("missing %q: %s", kept, out)
		}
	}
	h := lines(t, buf)[0]["headers"].(map[string]any)
	if h["Authorization"] != "[REDACTED]" || h["X-Api-Key"] != "[REDACTED]" || h["Cookie"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", h)
	}
}

func TestAccessLog_QuietPathsOnlyOnFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	fail := false
	r := gin.New()
	r.Use(AccessLog(LogOptions{Quiet: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) {
		if fail {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Fatalf("healthy probe logged: %s", buf.String())
	}
	fail = true
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(buf.String(), `"status":503`) {
		t.Fatalf("failing probe not logged: %s", buf.String())
	}
}

func TestLoggerFrom_ScopedAndFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.GET("/bare", func(c *gin.Context) { LoggerFrom(c).Info().Msg("bare") })
	scoped := r.Group("/", RequestID(), AccessLog(LogOptions{}))
	scoped.GET("/scoped", func(c *gin.Context) { LoggerFrom(c).Info().Msg("scoped") })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bare", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scoped", nil))

	got := lines(t, buf)
	if got[0]["message"] != "bare" || got[0]["request_id"] != nil {
		t.Fatalf("fallback logger: %v", got[0])
	}
	if got[1]["message"] != "scoped" || got[1]["request_id"] == nil || got[1]["path"] != "/scoped" {
		t.Fatalf("scoped logger: %v", got[1])
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(LogOptions{}), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/panic-late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "rid-p")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["request_id"] != "rid-p" || body["code"] != "internal_error" {
		t.Fatalf("body %v", body)
	}
	if !strings.Contains(buf.String(), `"panic recovered"`) || !strings.Contains(buf.String(), `"request_id":"rid-p"`) {
		t.Fatalf("panic not logged with request id: %s", buf.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-late", nil))
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("envelope written after body: %s", w.Body.String())
	}
}

func TestTruncateAndShortID(t *testing.T) {
	if truncate("hello", 10) != "hello" || truncate("hello", 0) != "hello" {
		t.Fatalf("truncate changed a short string")
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if shortID("abc") != "abc" || len(shortID(strings.Repeat("f", 64))) != 12 {
		t.Fatalf("shortID")
	}
}
