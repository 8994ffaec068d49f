// Package session holds the signed-in user for a client of the gateway. It
// replaces a process-wide "current user" with an explicit Store that callers
// receive through the Accessor interface.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/gateway"
)

// Source is the slice of the gateway a Store needs. *gateway.Client
// satisfies it.
type Source interface {
	Me(ctx context.Context, token string) (*domain.User, error)
	AuthURL() string
	Logout(ctx context.Context, token string) error
}

// Accessor is the read side handed to components that only need to know who
// is signed in.
type Accessor interface {
	Current() *domain.User
	Token() string
	// BeginAuth starts the external sign-in flow and returns its URL.
	BeginAuth() (string, error)
}

// Opener hands the sign-in URL to something that can show it (a browser, a
// terminal prompt).
type Opener func(url string) error

// Store caches the user behind one session token.
type Store struct {
	src  Source
	open Opener
	sf   singleflight.Group

	mu    sync.RWMutex
	token string
	user  *domain.User
}

var _ Accessor = (*Store)(nil)

// New returns a Store for token. open may be nil.
func New(src Source, token string, open Opener) *Store {
	return &Store{src: src, token: token, open: open}
}

// Load fetches the user for the current token. A missing token or a 401
// leaves the store anonymous without an error. Transport failures are
// retried once.
func (s *Store) Load(ctx context.Context) (*domain.User, error) {
	tok := s.Token()
	if tok == "" {
		s.set(tok, nil)
		return nil, nil
	}
	// Callers that join an in-flight lookup must not inherit the first
	// caller's cancellation.
	fctx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(tok, func() (any, error) {
		u, err := s.src.Me(fctx, tok)
		if errors.Is(err, gateway.ErrTransport) {
			u, err = s.src.Me(fctx, tok)
		}
		return u, err
	})
	var (
		v   any
		err error
	)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		v, err = r.Val, r.Err
	}
	if ue, ok := gateway.AsUpstream(err); ok && ue.Status == http.StatusUnauthorized {
		s.set(tok, nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := v.(*domain.User)
	s.set(tok, u)
	return u, nil
}

func (s *Store) set(tok string, u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == tok {
		s.user = u
	}
}

// SetToken swaps the session token and forgets the cached user.
func (s *Store) SetToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = tok, nil
}

// Current returns the loaded user or nil.
func (s *Store) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the session token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a user is loaded.
func (s *Store) Authenticated() bool { return s.Current() != nil }

// BeginAuth returns the sign-in URL, handing it to the opener when one is
// configured.
func (s *Store) BeginAuth() (string, error) {
	u := s.src.AuthURL()
	if s.open != nil {
		if err := s.open(u); err != nil {
			return u, err
		}
	}
	return u, nil
}

// Logout ends the session upstream and clears local state even when the
// upstream call fails.
func (s *Store) Logout(ctx context.Context) error {
	tok := s.Token()
	s.SetToken("")
	if tok == "" {
		return nil
	}
	return s.src.Logout(ctx, tok)
}
