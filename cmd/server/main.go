// Command server runs the curation gateway: the HTTP proxy in front of the
// Backend Gateway plus its replay store, metrics and docs.
//
// @title       Curation Gateway API
// @version     1.0
// @description Proxy in front of the Backend Gateway for the project curation app.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-curation-gateway/docs"
	"github.com/tbourn/go-curation-gateway/internal/config"
	httpapi "github.com/tbourn/go-curation-gateway/internal/http"
	"github.com/tbourn/go-curation-gateway/internal/observability"
	"github.com/tbourn/go-curation-gateway/internal/repo"
	"github.com/tbourn/go-curation-gateway/internal/search"
	"github.com/tbourn/go-curation-gateway/internal/sysutil"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Build{
		Version:  version,
		Upstream: cfg.Upstream.BackendBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("replay store unavailable")
	}
	defer func() {
		if err := repo.Close(db); err != nil {
			log.Warn().Err(err).Msg("replay store close")
		}
	}()
	go repo.SweepExpired(ctx, db, sweepInterval(cfg.IdempotencyTTL))

	var idx search.Index
	if cfg.DevSearch() {
		idx, err = search.NewIndexFromFile(cfg.MockProjectsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.MockProjectsPath).Msg("mock projects unreadable")
		}
		log.Info().Int("projects", idx.Len()).Msg("search served from local index")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, idx, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Upstream.BackendBaseURL).
		Str("version", version).
		Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server closed")
}

func openStore(path string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if path == ":memory:" {
		db, err = repo.OpenMemory("gateway")
	} else {
		db, err = repo.OpenSQLite(path)
	}
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sweepInterval purges a few times per TTL, at most hourly.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(ttl/4+time.Second, time.Hour)
}
