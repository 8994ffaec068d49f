// Package services – AccountService
//
// AccountService covers the signed-in user: profile lookup, wallet linking
// and the entry point of the external OAuth flow.
package services

import (
	"context"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/validation"

	"go.opentelemetry.io/otel"
)

// AccountBackend is the part of the Backend Gateway AccountService needs.
type AccountBackend interface {
	Me(ctx context.Context, token string) (*domain.User, error)
	SubmitWallet(ctx context.Context, token, address string) (*domain.User, error)
	AuthURL() string
}

// AccountService handles the current user.
type AccountService struct {
	Backend AccountBackend
	Auth    *auth.Inspector
}

// NewAccountService returns an AccountService.
func NewAccountService(b AccountBackend, in *auth.Inspector) *AccountService {
	return &AccountService{Backend: b, Auth: in}
}

// Me returns the user owning token.
func (s *AccountService) Me(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Me")
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	return s.Backend.Me(ctx, token)
}

// SubmitWallet links address to the caller.
func (s *AccountService) SubmitWallet(ctx context.Context, token, address string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "SubmitWallet")
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrMissingWallet
	}
	if !validation.WalletAddress(address) {
		return nil, ErrInvalidWallet
	}
	return s.Backend.SubmitWallet(ctx, token, address)
}

// AuthURL is where the browser is sent to sign in.
func (s *AccountService) AuthURL() string { return s.Backend.AuthURL() }
