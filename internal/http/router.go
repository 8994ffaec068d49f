// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, sessions and idempotent writes.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/config"
	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/http/handlers"
	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/repo"
	"github.com/tbourn/go-curation-gateway/internal/search"
	"github.com/tbourn/go-curation-gateway/internal/services"
)

// replayStore adapts repo.ReplayStore to middleware.IdempotencyStore. This
// keeps the middleware decoupled from gorm while reusing the repo functions.
type replayStore struct {
	s *repo.ReplayStore
}

// Lookup proxies repo.ReplayStore.Find.
func (r replayStore) Lookup(ctx context.Context, subject, scope, key string, now time.Time) (*middleware.StoredResponse, error) {
	rec, err := r.s.Find(ctx, subject, scope, key, now)
	if err != nil || rec == nil {
		return nil, err
	}
	return &middleware.StoredResponse{Status: rec.Status, ContentType: rec.ContentType, Body: rec.Body}, nil
}

// Save proxies repo.ReplayStore.Record.
func (r replayStore) Save(ctx context.Context, subject, scope, key string, res middleware.StoredResponse) error {
	return r.s.Record(ctx, subject, scope, key, res.Status, res.ContentType, res.Body)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It builds the upstream clients and services from cfg, configures
// observability (tracing, metrics), CORS and security headers, sessions and
// idempotent writes, health and metrics endpoints, and then mounts the public
// API under cfg.APIBasePath.
//
// db may be nil, in which case Idempotency-Key is validated but never
// replayed. idx may be nil, in which case search goes to the backend.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Session cookies
//  4. AccessLog: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter (larger cap on the upload route)
//  7. Metrics
//  8. CORS and Security headers (so replays carry them too)
//  9. Gzip (outside idempotency, so recorded bodies are uncompressed)
//  10. Idempotency replay/record
func RegisterRoutes(r *gin.Engine, db *gorm.DB, idx search.Index, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := normalizePrefix(cfg.APIBasePath)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Session cookies, so the access log can fingerprint the caller
	r.Use(middleware.Session(middleware.SessionOptions{
		Cookie:        cfg.Session.Cookie,
		DiscordCookie: cfg.Session.DiscordCookie,
	}))

	// 4) Structured logging with redaction
	r.Use(middleware.AccessLog(middleware.LogOptions{
		Quiet: []string{"/health", "/metrics"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Body size limits
	r.Use(limitBody(cfg.MaxBodyBytes, map[string]int64{
		apiBase + "/upload": cfg.Upload.MaxBytes,
	}))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{middleware.HeaderRequestID, "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true, // session cookies
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Per-user responses are never cached.
	var hsts time.Duration
	if cfg.Security.EnableHSTS {
		hsts = cfg.Security.HSTSMaxAge
	}
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		HSTS:    hsts,
		Private: privatePath(apiBase),
		Expose:  []string{"ETag", middleware.HeaderIdempotencyReplayed},
	}))

	// 9) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 10) Idempotent writes
	var store middleware.IdempotencyStore
	if db != nil {
		store = replayStore{s: &repo.ReplayStore{DB: db, TTL: cfg.IdempotencyTTL}}
	}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen:   200,
			Eligible: idempotentRoute(apiBase),
		},
		store,
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← upstream clients
	inspector := auth.NewInspector(cfg.Session.JWTSecret)
	backend := gateway.New(gateway.Options{
		Name:    "backend",
		BaseURL: cfg.Upstream.BackendBaseURL,
		Timeout: cfg.Upstream.Timeout,
		Auth:    gateway.AuthBearer,
	})
	twitter := gateway.New(gateway.Options{
		Name:    "twitter",
		BaseURL: cfg.Upstream.TwitterAPIBaseURL,
		Prefix:  "/",
		Timeout: cfg.Upstream.Timeout,
		Auth:    gateway.AuthBearer,
	})

	h := handlers.New(handlers.Deps{
		Projects: services.NewProjectService(backend, inspector),
		Catalog:  services.NewCatalogService(backend, idx, cfg.CategoriesTTL),
		Votes:    services.NewVoteService(backend, inspector),
		Account:  services.NewAccountService(backend, inspector),
		Uploads:  services.NewUploadService(backend, inspector, cfg.Upload.RequireLogo),
		Twitter:  services.NewTwitterService(backend, twitter, cfg.Upstream.TwitterIntentURL),
		Cookies: handlers.Cookies{
			Session: cfg.Session.Cookie,
			Discord: cfg.Session.DiscordCookie,
			Secure:  cfg.Session.CookieSecure,
		},
	})

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Projects
		api.GET("/projects", h.ListProjects)
		api.POST("/projects", h.CreateProject)
		api.PUT("/projects", h.UpdateProject)
		api.DELETE("/projects", h.DeleteProject)
		api.GET("/projects/search", h.SearchProjects)
		api.GET("/projects/categories", h.ListCategories)
		api.GET("/projects/:id", h.GetProject)
		api.PUT("/projects/:id", h.UpdateProject)
		api.DELETE("/projects/:id", h.DeleteProject)
		api.POST("/upload", h.Upload)

		// Catalog
		api.GET("/categories", h.ListCategories)
		api.GET("/stats", h.GetStats)
		api.GET("/home", h.Home)

		// Votes
		api.POST("/votes/:projectId", h.CastVote)
		api.GET("/votes/me", h.MyVotes)

		// Account
		api.GET("/user", h.Me)
		api.GET("/auth/me", h.Me)
		api.GET("/auth/discord", h.AuthDiscord)
		api.POST("/auth/logout", h.Logout)
		api.POST("/wallet", h.SubmitWallet)

		// Twitter
		api.POST("/twitter/post", h.PostTweet)
		api.GET("/twitter/intent", h.TweetIntent)
	}
}

// idempotentRoute selects the writes that record and replay responses.
func idempotentRoute(apiBase string) func(c *gin.Context) bool {
	routes := map[string]struct{}{
		apiBase + "/projects":         {},
		apiBase + "/votes/:projectId": {},
	}
	return func(c *gin.Context) bool {
		if c.Request.Method != http.MethodPost {
			return false
		}
		_, ok := routes[c.FullPath()]
		return ok
	}
}

// privatePath reports whether a route serves per-user data.
func privatePath(apiBase string) func(c *gin.Context) bool {
	return func(c *gin.Context) bool {
		p := strings.TrimPrefix(c.Request.URL.Path, apiBase)
		switch {
		case p == "/user", p == "/wallet", p == "/votes/me":
			return true
		case strings.HasPrefix(p, "/auth/"):
			return true
		}
		return false
	}
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader, or to the override registered for the
// matched route. Requests exceeding the cap will cause downstream body reads
// to error. A non-positive cap disables the limit.
func limitBody(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := maxBytes
		if v, ok := overrides[c.FullPath()]; ok {
			n = v
		}
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// normalizePrefix maps "" and "/" to the root.
func normalizePrefix(prefix string) string {
	if prefix == "/" {
		return ""
	}
	return strings.TrimRight(prefix, "/")
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
