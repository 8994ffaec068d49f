// Package services holds the application logic behind the proxy routes: the
// session precondition every write shares, body remapping, local
// pre-validation and the few fan-out or cached reads.
//
// This file centralizes the service-level error values. Translation into HTTP
// statuses and user-facing messages happens in the handlers.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/auth"
)

var (
	// ErrUnauthorized is returned by every write operation when the session
	// token is absent or obviously unusable. No upstream call is made.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingProjectID is returned when neither the path nor the body
	// names a project.
	ErrMissingProjectID = errors.New("missing projectId")

	// ErrInvalidVoteType is returned for a vote direction other than FOR or
	// AGAINST.
	ErrInvalidVoteType = errors.New("invalid vote type")

	// ErrMissingWallet is returned when wallet_address is blank.
	ErrMissingWallet = errors.New("wallet address is required")

	// ErrInvalidWallet is returned when wallet_address is not an EVM address.
	ErrInvalidWallet = errors.New("wallet address is not a valid EVM address")

	// ErrMissingLogo is returned by uploads without a logo when one is required.
	ErrMissingLogo = errors.New("logo is required")

	// ErrInvalidTweet is returned for blank tweet text.
	ErrInvalidTweet = errors.New("invalid tweet content")

	// ErrTwitterToken wraps a failure to obtain the linked Twitter credential.
	ErrTwitterToken = errors.New("could not get twitter token")

	// ErrTweetFailed wraps a failure reported by the Twitter API.
	ErrTweetFailed = errors.New("failed to post tweet")

	// ErrInvalidInput wraps validation.FieldErrors for a rejected project form.
	ErrInvalidInput = errors.New("invalid input")
)

// authorize enforces the write precondition. in may be nil, in which case
// only presence is checked.
func authorize(in *auth.Inspector, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}
	if in == nil {
		return nil
	}
	if _, err := in.Inspect(token); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}
