// Package auth inspects session tokens issued by the Backend Gateway. The
// gateway never mints tokens; it only rejects ones that are obviously unusable
// (expired, or failing signature checks when a shared secret is configured)
// so a write request can be refused before any upstream call.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned for an empty token.
	ErrMissingToken = errors.New("missing session token")
	// ErrExpiredToken is returned when the token's exp claim is in the past.
	ErrExpiredToken = errors.New("session token expired")
	// ErrInvalidToken is returned when a configured secret does not verify the
	// token, or the token is not a JWT while verification is required.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims is the subset of backend token claims the gateway cares about.
type Claims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time // zero when the token carries no exp
	Verified  bool      // true when the signature was checked
}

type backendClaims struct {
	UserID   string `json:"userId,omitempty"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Inspector validates tokens. With an empty Secret it decodes claims without
// verifying the signature and lets opaque (non-JWT) tokens through untouched.
type Inspector struct {
	Secret []byte
	Now    func() time.Time
}

// NewInspector returns an Inspector for the given HS256 secret (may be empty).
func NewInspector(secret string) *Inspector {
	return &Inspector{Secret: []byte(secret), Now: time.Now}
}

// Inspect returns the token's claims or one of the sentinel errors above.
func (i *Inspector) Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	now := time.Now
	if i != nil && i.Now != nil {
		now = i.Now
	}

	var bc backendClaims
	if i != nil && len(i.Secret) > 0 {
		_, err := jwt.ParseWithClaims(token, &bc, func(t *jwt.Token) (any, error) {
			return i.Secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(now),
		)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return Claims{}, ErrExpiredToken
			}
			return Claims{}, ErrInvalidToken
		}
		return toClaims(bc, true), nil
	}

	if strings.Count(token, ".") != 2 {
		// Opaque token: the backend is the only judge.
		return Claims{}, nil
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &bc); err != nil {
		return Claims{}, nil
	}
	c := toClaims(bc, false)
	if !c.ExpiresAt.IsZero() && !now().Before(c.ExpiresAt) {
		return Claims{}, ErrExpiredToken
	}
	return c, nil
}

func toClaims(bc backendClaims, verified bool) Claims {
	c := Claims{UserID: bc.UserID, Username: bc.Username, Verified: verified}
	if c.UserID == "" {
		c.UserID = bc.ID
	}
	if c.UserID == "" {
		c.UserID = bc.Subject
	}
	if bc.ExpiresAt != nil {
		c.ExpiresAt = bc.ExpiresAt.Time
	}
	return c
}

// Subject derives a stable, non-reversible identifier for a token, used to
// key per-session records without storing the token itself.
func Subject(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
