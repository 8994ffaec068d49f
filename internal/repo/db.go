// Package repo persists the gateway's only local state, the idempotency
// replay records, through GORM on a pure Go SQLite driver. Projects, votes and
// users are owned by the backend and never stored here.
package repo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// SlowQuery is the duration above which statements are logged at warn.
const SlowQuery = 200 * time.Millisecond

// filePragmas are applied by the driver on every new connection, so they
// hold for the whole pool.
var filePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// OpenSQLite opens (or creates) the replay database at path. The parent
// directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("replay store directory: %w", err)
		}
	}
	q := url.Values{"_pragma": filePragmas}
	db, err := open("file:"+path+"?"+q.Encode(), zerologGorm{slow: SlowQuery})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// OpenMemory opens a named in-memory database. Connections opened with the
// same name share it; different names are isolated.
func OpenMemory(name string) (*gorm.DB, error) {
	return open("file:"+url.PathEscape(name)+"?mode=memory&cache=shared", logger.Discard)
}

func open(dsn string, lg logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: lg})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("sqlite tracing: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the replay table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Idempotency{})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zerologGorm routes GORM's statement log through zerolog. Only failures and
// slow statements are reported; replay misses are expected and stay quiet.
type zerologGorm struct {
	slow time.Duration
}

func (z zerologGorm) LogMode(logger.LogLevel) logger.Interface { return z }

func (z zerologGorm) Info(ctx context.Context, msg string, args ...any) {
	ctxLogger(ctx).Info().Msgf(msg, args...)
}

func (z zerologGorm) Warn(ctx context.Context, msg string, args ...any) {
	ctxLogger(ctx).Warn().Msgf(msg, args...)
}

func (z zerologGorm) Error(ctx context.Context, msg string, args ...any) {
	ctxLogger(ctx).Error().Msgf(msg, args...)
}

func (z zerologGorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		ctxLogger(ctx).Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("sqlite statement failed")
	case z.slow > 0 && elapsed > z.slow:
		sql, rows := fc()
		ctxLogger(ctx).Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow sqlite statement")
	}
}

// ctxLogger prefers a logger carried by ctx over the global one.
func ctxLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
