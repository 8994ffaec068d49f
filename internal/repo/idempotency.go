package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

var (
	// ErrNotFound is returned when no live record matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates that a record already exists for the given
	// (subject, scope, key) triple.
	ErrDuplicate = errors.New("duplicate")
)

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, subject, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("subject = ? AND scope = ? AND key = ? AND expires_at > ?", subject, scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the response to replay and returns ErrDuplicate on
// unique violation. An expired row with the same triple is replaced.
func CreateIdempotency(ctx context.Context, db *gorm.DB, subject, scope, key string, status int, contentType string, body []byte, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	if contentType == "" {
		contentType = "application/json"
	}
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		Subject:     subject,
		Scope:       scope,
		Key:         key,
		Status:      status,
		ContentType: contentType,
		Body:        body,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject = ? AND scope = ? AND key = ? AND expires_at <= ?", subject, scope, key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpired deletes every record that expired at or before now and
// returns how many were removed.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// SweepExpired purges expired records every interval until ctx is done.
func SweepExpired(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := PurgeExpired(ctx, db, now.UTC())
			switch {
			case err != nil && ctx.Err() == nil:
				log.Warn().Err(err).Msg("replay sweep failed")
			case n > 0:
				log.Debug().Int64("removed", n).Msg("replay records expired")
			}
		}
	}
}

func isUniqueViolation(err error) bool {
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// ReplayStore binds the idempotency functions to one database and TTL.
type ReplayStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Find returns the live record for the triple, or (nil, nil).
func (s *ReplayStore) Find(ctx context.Context, subject, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := GetIdempotency(ctx, s.DB, subject, scope, key, now)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Record stores a response. Losing a race to a concurrent identical request
// is not an error: the first record wins.
func (s *ReplayStore) Record(ctx context.Context, subject, scope, key string, status int, contentType string, body []byte) error {
	_, err := CreateIdempotency(ctx, s.DB, subject, scope, key, status, contentType, body, s.TTL)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}
