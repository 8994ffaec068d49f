// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods (e.g., POST).
// It validates an Idempotency-Key request header and, for eligible routes with
// a known session, serves a previously recorded response instead of running
// the handler again. The first successful response for a (session, route, key)
// triple is captured and recorded through the configured store.
//
// Design goals:
//   - Keep transport concerns (validation, capture, replay) in middleware.
//   - Decouple persistence via the narrow IdempotencyStore interface.
//   - Replays never reach the handler, so no upstream call is made.
//   - Concurrent duplicates wait for the first request and share its response.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on replayed responses.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored response was served
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the response for this request was served from the
// idempotency store.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// StoredResponse is a recorded response.
type StoredResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// IdempotencyStore persists the first successful response per
// (subject, scope, key). Lookup returns (nil, nil) when nothing usable is
// recorded; expiry is the store's concern.
type IdempotencyStore interface {
	Lookup(ctx context.Context, subject, scope, key string, now time.Time) (*StoredResponse, error)
	Save(ctx context.Context, subject, scope, key string, res StoredResponse) error
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// Eligible selects the routes that record and replay. Nil means every
	// request carrying a key.
	Eligible func(c *gin.Context) bool
	// Subject identifies the caller. Nil uses SessionSubject. Requests without
	// a subject are validated but never recorded or replayed.
	Subject func(c *gin.Context) string
	// Now overrides the clock (tests).
	Now func() time.Time
}

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context and, when store is non-nil, replays or
// records responses.
//
// Behavior:
//   - If header is absent: the middleware is a no-op.
//   - If header fails validation: responds 400 with a compact error body.
//   - On a recorded hit: writes the stored response with
//     Idempotency-Replayed: true and aborts the chain.
//   - On a miss: runs the chain and records a 2xx response. Requests with
//     the same (subject, scope, key) arriving while the first is still running
//     wait for it and replay its 2xx response; after a non-2xx they run
//     their own chain.
//
// Store failures are logged and never fail the request.
func IdempotencyValidator(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	subjectOf := opts.Subject
	if subjectOf == nil {
		subjectOf = SessionSubject
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var inflight singleflight.Group

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(HeaderRequestID),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if store == nil || (opts.Eligible != nil && !opts.Eligible(c)) {
			c.Next()
			return
		}
		subject := subjectOf(c)
		if subject == "" {
			c.Next()
			return
		}
		scope := c.Request.Method + " " + c.Request.URL.Path
		ctx := c.Request.Context()
		lg := LoggerFrom(c)

		prev, err := store.Lookup(ctx, subject, scope, key, now().UTC())
		if err != nil {
			lg.Warn().Err(err).Msg("idempotency lookup failed")
		}
		if prev != nil {
			replay(c, prev)
			return
		}

		// record runs the chain, saving a 2xx response. It returns nil when
		// nothing was recorded.
		record := func() *StoredResponse {
			cw := &captureWriter{ResponseWriter: c.Writer}
			c.Writer = cw
			c.Next()
			c.Writer = cw.ResponseWriter

			status := cw.Status()
			if status < 200 || status > 299 {
				return nil
			}
			res := &StoredResponse{
				Status:      status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        bytes.Clone(cw.buf.Bytes()),
			}
			if err := store.Save(context.WithoutCancel(ctx), subject, scope, key, *res); err != nil {
				lg.Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
			}
			return res
		}

		ran := false
		v, _, _ := inflight.Do(subject+"\x00"+scope+"\x00"+key, func() (any, error) {
			ran = true
			return record(), nil
		})
		if ran {
			return
		}
		if shared, _ := v.(*StoredResponse); shared != nil {
			replay(c, shared)
			return
		}
		record()
	}
}

// replay writes a recorded response and aborts the chain.
func replay(c *gin.Context, res *StoredResponse) {
	c.Set(ctxKeyIdemReplay, true)
	idemReplays.WithLabelValues(routeLabel(c)).Inc()
	c.Header(HeaderIdempotencyReplayed, "true")
	ct := res.ContentType
	if ct == "" {
		ct = "application/json; charset=utf-8"
	}
	c.Data(res.Status, ct, res.Body)
	c.Abort()
}

// captureWriter tees the response body so it can be recorded.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

