package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/services"
)

// Error codes carried in ErrorResponse.Code. Upstream failures keep the
// backend's own body and never use these.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeMediaRejected = "media_rejected"
	ErrCodeTwitterFailed = "twitter_failed"
)

// serviceError is how a service sentinel surfaces over HTTP.
type serviceError struct {
	err    error
	status int
	code   string
	msg    string
}

// serviceErrors is matched in order with errors.Is.
var serviceErrors = []serviceError{
	{services.ErrMissingProjectID, http.StatusBadRequest, ErrCodeBadRequest, "Missing projectId"},
	{services.ErrInvalidVoteType, http.StatusBadRequest, ErrCodeBadRequest, "Invalid vote type"},
	{services.ErrMissingWallet, http.StatusBadRequest, ErrCodeBadRequest, "Wallet address is required"},
	{services.ErrInvalidWallet, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid wallet address"},
	{services.ErrMissingLogo, http.StatusBadRequest, ErrCodeBadRequest, "Logo is required"},
	{services.ErrInvalidTweet, http.StatusBadRequest, ErrCodeBadRequest, "Invalid tweet content"},
	{services.ErrTwitterToken, http.StatusInternalServerError, ErrCodeTwitterFailed, "Could not get Twitter token"},
	{services.ErrTweetFailed, http.StatusInternalServerError, ErrCodeTwitterFailed, "Failed to post tweet"},
}

// lookupServiceError finds the mapping for err. Unauthorized errors get a
// message naming why the session was refused.
func lookupServiceError(err error) (serviceError, bool) {
	if errors.Is(err, services.ErrUnauthorized) {
		msg := "Unauthorized: no token"
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			msg = "Unauthorized: session expired"
		case errors.Is(err, auth.ErrInvalidToken):
			msg = "Unauthorized: invalid token"
		}
		return serviceError{err, http.StatusUnauthorized, ErrCodeUnauthorized, msg}, true
	}
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			return se, true
		}
	}
	return serviceError{}, false
}
