// Package gateway is the typed HTTP client for the Backend Gateway and the
// Twitter API. It forwards exactly one request per call, never retries, and
// sorts every failure into either *UpstreamError (non-2xx, body kept verbatim)
// or ErrTransport (no usable response).
//
// The same client also talks to this service's own proxy routes (the CLI does
// that), which is why credentials can travel either as a bearer token or as a
// session cookie.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// AuthMode selects how a token is attached to an outbound request.
type AuthMode int

const (
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer AuthMode = iota
	// AuthCookie sends "Cookie: <name>=<token>".
	AuthCookie
)

// HeaderIdempotencyKey carries a caller-chosen replay key on writes.
const HeaderIdempotencyKey = "Idempotency-Key"

type idemKey struct{}

// WithIdempotencyKey attaches key to every request made with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idemKey{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey, if any.
func IdempotencyKey(ctx context.Context) string {
	k, _ := ctx.Value(idemKey{}).(string)
	return k
}

// Options configures a Client.
type Options struct {
	// Name labels metrics and spans ("backend", "twitter", "proxy").
	Name string
	// BaseURL is scheme://host[:port] without a trailing slash.
	BaseURL string
	// Prefix is prepended to every resource path. Defaults to "/api"; use "/"
	// for upstreams without one.
	Prefix string
	// Timeout bounds each call. Zero means no client-side timeout.
	Timeout time.Duration
	// Auth is the default credential mode.
	Auth AuthMode
	// CookieName is used with AuthCookie. Defaults to "token".
	CookieName string
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// Client sends requests to one upstream.
type Client struct {
	name    string
	base    string
	prefix  string
	auth    AuthMode
	cookie  string
	timeout time.Duration
	hc      *http.Client
}

// New builds a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	prefix := opts.Prefix
	switch {
	case prefix == "":
		prefix = "/api"
	case prefix == "/":
		prefix = ""
	default:
		prefix = "/" + strings.Trim(prefix, "/")
	}
	name := opts.Name
	if name == "" {
		name = "backend"
	}
	cookie := opts.CookieName
	if cookie == "" {
		cookie = "token"
	}
	return &Client{
		name:    name,
		base:    strings.TrimRight(opts.BaseURL, "/"),
		prefix:  prefix,
		auth:    opts.Auth,
		cookie:  cookie,
		timeout: opts.Timeout,
		hc:      hc,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.base }

// URL resolves a resource path against the base URL and prefix.
func (c *Client) URL(path string, q url.Values) string {
	u := c.base + c.prefix + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Request describes one outbound call.
type Request struct {
	// Route is a low-cardinality name for metrics and spans, e.g. "projects.list".
	Route       string
	Method      string
	Path        string
	Query       url.Values
	Token       string
	Auth        *AuthMode // overrides the client default when set
	Body        io.Reader
	ContentType string
}

// Response is a 2xx upstream reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do performs req. Non-2xx replies become *UpstreamError when their body is
// JSON and ErrTransport otherwise.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	tr := otel.Tracer("gateway")
	ctx, span := tr.Start(ctx, c.name+"."+req.Route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("upstream", c.name),
		),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), req.Body)
	if err != nil {
		span.RecordError(err)
		return nil, transportErr(req.Route, err)
	}
	hreq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Token != "" {
		mode := c.auth
		if req.Auth != nil {
			mode = *req.Auth
		}
		switch mode {
		case AuthCookie:
			hreq.AddCookie(&http.Cookie{Name: c.cookie, Value: req.Token})
		default:
			hreq.Header.Set("Authorization", "Bearer "+req.Token)
		}
	}
	if key := IdempotencyKey(ctx); key != "" {
		hreq.Header.Set(HeaderIdempotencyKey, key)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hreq.Header))

	start := time.Now()
	res, err := c.hc.Do(hreq)
	if err != nil {
		observe(c.name, req.Route, 0, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, transportErr(req.Route, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	observe(c.name, req.Route, res.StatusCode, start)
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))
	if err != nil {
		span.RecordError(err)
		return nil, transportErr(req.Route, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(res.StatusCode))
		if !json.Valid(body) {
			return nil, transportErr(req.Route, errors.New("non-JSON error body"))
		}
		return nil, &UpstreamError{Status: res.StatusCode, Body: json.RawMessage(body)}
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: body}, nil
}

// call performs req and decodes a 2xx JSON body into out (skipped when nil).
func (c *Client) call(ctx context.Context, req Request, out any) error {
	res, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return transportErr(req.Route, err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
