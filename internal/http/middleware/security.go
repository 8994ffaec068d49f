package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// HSTS is the Strict-Transport-Security max-age. Zero disables the
	// header; it is only ever sent on HTTPS requests.
	HSTS time.Duration
	// Private selects responses that carry per-user data (session, wallet,
	// vote history). They get Cache-Control: no-store.
	Private func(c *gin.Context) bool
	// Expose lists response headers browsers may read, merged into
	// Access-Control-Expose-Headers along with X-Request-ID.
	Expose []string
}

// SecurityHeaders adds the hardening headers a JSON API needs. Public reads
// are left cacheable; they revalidate through ETag.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	expose := append([]string{HeaderRequestID}, opt.Expose...)
	var hsts string
	if secs := int64(opt.HSTS / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10) + "; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		h.Set("Cross-Origin-Resource-Policy", "same-site")

		if opt.Private != nil && opt.Private(c) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}
		if hsts != "" && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		mergeExpose(h, expose)

		c.Next()
	}
}

// mergeExpose adds names to Access-Control-Expose-Headers, skipping ones
// already listed.
func mergeExpose(h http.Header, names []string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	have := map[string]bool{}
	for _, n := range strings.Split(cur, ",") {
		if n = strings.TrimSpace(n); n != "" {
			have[strings.ToLower(n)] = true
		}
	}
	for _, n := range names {
		if have[strings.ToLower(n)] {
			continue
		}
		have[strings.ToLower(n)] = true
		if cur == "" {
			cur = n
		} else {
			cur += ", " + n
		}
	}
	if cur != "" {
		h.Set(key, cur)
	}
}

// isHTTPS trusts X-Forwarded-Proto; the gateway runs behind a proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
