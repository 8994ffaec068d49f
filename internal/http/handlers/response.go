// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the local error envelope, the translation of service errors into statuses,
// verbatim forwarding of Backend Gateway errors, and conditional (ETag) reads.
//
// Conventions:
//   - Local failures return an ErrorResponse with a stable `code`.
//   - Upstream non-2xx responses are re-emitted with their own status and body.
//   - Transport failures collapse to a 500 with a fixed, route-specific message.
//   - `fail()` logs 5xx with the request-scoped logger.
//
// Example error response:
//
//	HTTP/1.1 401 Unauthorized
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "unauthorized",
//	  "message": "Unauthorized: no token"
//	}
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/validation"
)

// ErrorResponse is the envelope for failures raised by the gateway itself.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"unauthorized"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Unauthorized: no token"`
	// Field-level validation messages keyed by JSON field name
	Fields map[string]string `json:"fields,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get(middleware.HeaderRequestID)

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail lets the router emit the same envelope for NoRoute and NoMethod.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// okETag writes a 200 JSON response with a weak ETag over the encoded body,
// or 304 when If-None-Match matches.
func okETag(c *gin.Context, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
		return
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	etag := fmt.Sprintf(`W/"%x"`, h.Sum64())
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

// forward re-emits an upstream error with its own status and body.
func forward(c *gin.Context, ue *gateway.UpstreamError) {
	lg := middleware.LoggerFrom(c)
	lg.Warn().Int("upstream_status", ue.Status).Msg("upstream error forwarded")
	c.Data(ue.Status, "application/json; charset=utf-8", ue.Body)
	c.Abort()
}

// respond translates a service error. fallback is the fixed message used for
// transport failures and anything unrecognized.
func respond(c *gin.Context, err error, fallback string) {
	if se, known := lookupServiceError(err); known {
		fail(c, se.status, se.code, se.msg)
		return
	}

	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code: ErrCodeInvalidInput, Message: fe.Error(), Fields: fe,
		})
		return
	}
	var me *validation.MediaError
	if errors.As(err, &me) {
		status := http.StatusBadRequest
		if me.Reason == validation.ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		failWith(c, status, ErrorResponse{
			Code: ErrCodeMediaRejected, Message: me.Error(),
			Fields: map[string]string{string(me.Kind): string(me.Reason)},
		})
		return
	}
	if ue, isUpstream := gateway.AsUpstream(err); isUpstream {
		forward(c, ue)
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Error().Err(err).Msg("request failed")
	fail(c, http.StatusInternalServerError, ErrCodeInternal, fallback)
}

