package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// ListProjects fetches one feed page. q is forwarded verbatim.
func (c *Client) ListProjects(ctx context.Context, q url.Values) (*domain.FeedPage, error) {
	var out domain.FeedPage
	err := c.call(ctx, Request{Route: "projects.list", Method: http.MethodGet, Path: "/projects", Query: q}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var out domain.Project
	err := c.call(ctx, Request{Route: "projects.get", Method: http.MethodGet, Path: "/projects/" + url.PathEscape(id)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject submits a new project. body is sent as-is.
func (c *Client) CreateProject(ctx context.Context, token string, body map[string]any) (*domain.Project, error) {
	r, err := jsonBody(body)
	if err != nil {
		return nil, transportErr("projects.create", err)
	}
	var out domain.Project
	err = c.call(ctx, Request{
		Route: "projects.create", Method: http.MethodPost, Path: "/projects",
		Token: token, Body: r, ContentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces a project's mutable fields.
func (c *Client) UpdateProject(ctx context.Context, token, id string, body map[string]any) (*domain.Project, error) {
	r, err := jsonBody(body)
	if err != nil {
		return nil, transportErr("projects.update", err)
	}
	var out domain.Project
	err = c.call(ctx, Request{
		Route: "projects.update", Method: http.MethodPut, Path: "/projects/" + url.PathEscape(id),
		Token: token, Body: r, ContentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project. The response body is ignored.
func (c *Client) DeleteProject(ctx context.Context, token, id string) error {
	return c.call(ctx, Request{
		Route: "projects.delete", Method: http.MethodDelete, Path: "/projects/" + url.PathEscape(id), Token: token,
	}, nil)
}

// Categories lists the taxonomy.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.call(ctx, Request{Route: "categories.list", Method: http.MethodGet, Path: "/projects/categories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a full-text project search.
func (c *Client) Search(ctx context.Context, q string) (*domain.SearchResult, error) {
	var out domain.SearchResult
	err := c.call(ctx, Request{
		Route: "projects.search", Method: http.MethodGet, Path: "/projects/search", Query: url.Values{"q": {q}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the site-wide aggregates.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.call(ctx, Request{Route: "stats.get", Method: http.MethodGet, Path: "/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CastVote submits a vote. The backend decides between record, switch and
// removal.
func (c *Client) CastVote(ctx context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error) {
	r, err := jsonBody(map[string]string{"voteType": string(vt)})
	if err != nil {
		return nil, transportErr("votes.cast", err)
	}
	var out domain.VoteResult
	err = c.call(ctx, Request{
		Route: "votes.cast", Method: http.MethodPost, Path: "/votes/" + url.PathEscape(projectID),
		Token: token, Body: r, ContentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MyVotes lists the caller's vote history.
func (c *Client) MyVotes(ctx context.Context, token string) (*domain.MyVotes, error) {
	var out domain.MyVotes
	if err := c.call(ctx, Request{Route: "votes.me", Method: http.MethodGet, Path: "/votes/me", Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitWallet links a wallet address to the caller and returns the user.
func (c *Client) SubmitWallet(ctx context.Context, token, address string) (*domain.User, error) {
	r, err := jsonBody(map[string]string{"wallet_address": address})
	if err != nil {
		return nil, transportErr("wallet.submit", err)
	}
	var out domain.User
	err = c.call(ctx, Request{
		Route: "wallet.submit", Method: http.MethodPost, Path: "/wallet",
		Token: token, Body: r, ContentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, Request{Route: "auth.me", Method: http.MethodGet, Path: "/auth/me", Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TwitterTokens is the linked Twitter account's OAuth credential.
type TwitterTokens struct {
	AccessToken string `json:"access_token"`
}

// TwitterTokens fetches the caller's Twitter credential. The backend reads
// the session from its cookie on this endpoint.
func (c *Client) TwitterTokens(ctx context.Context, token string) (*TwitterTokens, error) {
	mode := AuthCookie
	var out TwitterTokens
	err := c.call(ctx, Request{
		Route: "auth.twitter_tokens", Method: http.MethodGet, Path: "/auth/twitter/tokens", Token: token, Auth: &mode,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthURL is where a browser starts the Discord OAuth flow.
func (c *Client) AuthURL() string { return c.URL("/auth/discord", nil) }

// Logout clears the session cookies at the local proxy. Only meaningful for a
// client pointed at this gateway.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.call(ctx, Request{Route: "auth.logout", Method: http.MethodPost, Path: "/auth/logout", Token: token}, nil)
}
