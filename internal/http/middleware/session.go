// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Session, which reads the session cookies set by the
// Backend Gateway's OAuth flow and stashes them in the Gin context. The
// gateway never validates or mints sessions; handlers forward the raw token
// and services decide whether it is usable.
//
// Two cookies exist: the regular session cookie and a transitional cookie set
// right after the Discord link step. Votes accept either (transitional first).
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/sysutil"
)

const (
	ctxKeySessionToken   = "session.token"
	ctxKeyDiscordToken   = "session.discord"
	ctxKeySessionSubject = "session.subject"
)

// SessionOptions names the cookies to read. Empty names default to "token"
// and "discord".
type SessionOptions struct {
	Cookie        string
	DiscordCookie string
}

// Session stashes the session tokens and a derived, non-reversible subject.
// It never rejects a request.
func Session(opts SessionOptions) gin.HandlerFunc {
	name := sysutil.FirstNonEmpty(opts.Cookie, "token")
	discord := sysutil.FirstNonEmpty(opts.DiscordCookie, "discord")
	return func(c *gin.Context) {
		tok, _ := c.Cookie(name)
		dtok, _ := c.Cookie(discord)
		if tok != "" {
			c.Set(ctxKeySessionToken, tok)
		}
		if dtok != "" {
			c.Set(ctxKeyDiscordToken, dtok)
		}
		if sub := auth.Subject(sysutil.FirstNonEmpty(tok, dtok)); sub != "" {
			c.Set(ctxKeySessionSubject, sub)
		}
		c.Next()
	}
}

// SessionToken returns the regular session token, or "".
func SessionToken(c *gin.Context) string {
	return c.GetString(ctxKeySessionToken)
}

// VoteToken returns the transitional token when present, else the session
// token.
func VoteToken(c *gin.Context) string {
	return sysutil.FirstNonEmpty(c.GetString(ctxKeyDiscordToken), c.GetString(ctxKeySessionToken))
}

// SessionSubject returns the hashed session identity, or "" when anonymous.
func SessionSubject(c *gin.Context) string {
	return c.GetString(ctxKeySessionSubject)
}
