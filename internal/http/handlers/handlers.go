// Package handlers exposes the gateway's REST endpoints.
//
// Handlers are transport-thin: they pull the session token stashed by the
// Session middleware, decode the request, call an application service, and
// translate the result (or error) into an HTTP response. Write endpoints
// refuse anonymous callers before decoding anything, so no upstream call is
// ever made without a token.
package handlers

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/services"
)

//
// Service contracts (context-aware)
//

// ProjectService lists, fetches and mutates projects.
type ProjectService interface {
	List(ctx context.Context, q url.Values) (*domain.FeedPage, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	Create(ctx context.Context, token string, body map[string]any) (*domain.Project, error)
	Update(ctx context.Context, token, pathID string, body map[string]any) (*domain.Project, error)
	Delete(ctx context.Context, token, pathID string, body map[string]any) error
}

// CatalogService serves the taxonomy, aggregates, search and the landing
// bundle.
type CatalogService interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	Search(ctx context.Context, q string) (*domain.SearchResult, error)
	Home(ctx context.Context, q url.Values) (*domain.Home, error)
}

// VoteService casts votes and lists the caller's history.
type VoteService interface {
	Cast(ctx context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error)
	Mine(ctx context.Context, token string) (*domain.MyVotes, error)
}

// AccountService reads the current user and links wallets.
type AccountService interface {
	Me(ctx context.Context, token string) (*domain.User, error)
	SubmitWallet(ctx context.Context, token, address string) (*domain.User, error)
	AuthURL() string
}

// UploadService validates and forwards project images.
type UploadService interface {
	Upload(ctx context.Context, token string, logo, banner *services.MediaFile) (*domain.UploadResult, error)
}

// TwitterService posts tweets and builds share links.
type TwitterService interface {
	Post(ctx context.Context, token, text string) (json.RawMessage, error)
	Intent(text string) string
}

//
// Handler wiring
//

// Cookies describes the session cookies Logout clears.
type Cookies struct {
	Session string
	Discord string
	Secure  bool
}

// Deps bundles the services a Handlers instance is bound to.
type Deps struct {
	Projects ProjectService
	Catalog  CatalogService
	Votes    VoteService
	Account  AccountService
	Uploads  UploadService
	Twitter  TwitterService
	Cookies  Cookies
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	projects ProjectService
	catalog  CatalogService
	votes    VoteService
	account  AccountService
	uploads  UploadService
	twitter  TwitterService
	cookies  Cookies
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	if d.Cookies.Session == "" {
		d.Cookies.Session = "token"
	}
	if d.Cookies.Discord == "" {
		d.Cookies.Discord = "discord"
	}
	return &Handlers{
		projects: d.Projects,
		catalog:  d.Catalog,
		votes:    d.Votes,
		account:  d.Account,
		uploads:  d.Uploads,
		twitter:  d.Twitter,
		cookies:  d.Cookies,
	}
}

// requireToken aborts with 401 when tok is empty.
func requireToken(c *gin.Context, tok string) bool {
	if tok == "" {
		respond(c, services.ErrUnauthorized, "")
		return false
	}
	return true
}
