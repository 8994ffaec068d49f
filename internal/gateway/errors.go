package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTransport marks network failures, unreadable bodies and bodies that are
// not the JSON the caller expected. Callers surface it as an opaque 500.
var ErrTransport = errors.New("upstream transport failure")

// UpstreamError is a non-2xx response from an upstream. Body is forwarded to
// the caller verbatim, so it is kept as raw JSON.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d", e.Status)
}

// Message extracts a "message" (or "error") string from the body when present.
func (e *UpstreamError) Message() string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(e.Body, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		return m.Error
	}
	return ""
}

// AsUpstream unwraps err into an *UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
}
