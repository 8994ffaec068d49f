// Package services – TwitterService
//
// TwitterService posts on behalf of a user whose Twitter account is linked at
// the backend, and builds share links for the web intent.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/gateway"

	"go.opentelemetry.io/otel"
)

// TwitterTokenSource returns the linked account's credential.
type TwitterTokenSource interface {
	TwitterTokens(ctx context.Context, token string) (*gateway.TwitterTokens, error)
}

// Tweeter publishes a tweet.
type Tweeter interface {
	PostTweet(ctx context.Context, accessToken, text string) (json.RawMessage, error)
}

// TwitterService posts tweets and builds intent links.
type TwitterService struct {
	Tokens    TwitterTokenSource
	Tweeter   Tweeter
	IntentURL string
}

// NewTwitterService returns a TwitterService.
func NewTwitterService(tokens TwitterTokenSource, tw Tweeter, intentURL string) *TwitterService {
	return &TwitterService{Tokens: tokens, Tweeter: tw, IntentURL: intentURL}
}

// Post fetches the caller's Twitter credential and posts text with it.
func (s *TwitterService) Post(ctx context.Context, token, text string) (json.RawMessage, error) {
	ctx, span := otel.Tracer("services/TwitterService").Start(ctx, "Post")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidTweet
	}
	tok, err := s.Tokens.TwitterTokens(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTwitterToken, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrTwitterToken
	}
	tweet, err := s.Tweeter.PostTweet(ctx, tok.AccessToken, text)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrTweetFailed, err)
	}
	return tweet, nil
}

// Intent returns the web intent URL prefilled with text.
func (s *TwitterService) Intent(text string) string {
	return s.IntentURL + "?text=" + url.QueryEscape(text)
}
