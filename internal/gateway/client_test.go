package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return New(opts)
}

func TestListProjects_ForwardsQueryVerbatim(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"projects":[{"id":"p1","name":"A"}],"pagination":{"total":45,"page":1,"limit":20,"pages":3}}`)
	}, Options{})

	q := url.Values{"page": {"1"}, "limit": {"20"}, "category": {"defi,nft"}, "onlyNew": {"true"}}
	page, err := c.ListProjects(context.Background(), q)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if gotPath != "/api/projects" {
		t.Fatalf("path = %q", gotPath)
	}
	back, _ := url.ParseQuery(gotQuery)
	for k, v := range q {
		if back.Get(k) != v[0] {
			t.Fatalf("query %s = %q, want %q", k, back.Get(k), v[0])
		}
	}
	if len(page.Projects) != 1 || page.Pagination.Pages != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestDo_UpstreamErrorKeepsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Admins only"}`)
	}, Options{})

	_, err := c.GetProject(context.Background(), "p1")
	ue, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusForbidden || string(ue.Body) != `{"message":"Admins only"}` || ue.Message() != "Admins only" {
		t.Fatalf("unexpected upstream error: %+v", ue)
	}
}

func TestDo_NonJSONErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}, Options{})

	_, err := c.Stats(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if _, ok := AsUpstream(err); ok {
		t.Fatalf("non-JSON error must not be an UpstreamError")
	}
}

func TestDo_UndecodableSuccessIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}, Options{})
	if _, err := c.Categories(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestDo_NetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base})
	if _, err := c.Stats(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestDo_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Options{Timeout: 50 * time.Millisecond})
	if _, err := c.Stats(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport on timeout, got %v", err)
	}
}

func TestAuthModes(t *testing.T) {
	var auth, cookie string
	h := func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if ck, err := r.Cookie("sess"); err == nil {
			cookie = ck.Value
		} else {
			cookie = ""
		}
		_, _ = io.WriteString(w, `{"id":"u1","username":"nad"}`)
	}

	bearer := newTestClient(t, h, Options{CookieName: "sess"})
	if _, err := bearer.Me(context.Background(), "tok"); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if auth != "Bearer tok" || cookie != "" {
		t.Fatalf("bearer mode sent auth=%q cookie=%q", auth, cookie)
	}

	cookieClient := newTestClient(t, h, Options{Auth: AuthCookie, CookieName: "sess"})
	if _, err := cookieClient.Me(context.Background(), "tok"); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if auth != "" || cookie != "tok" {
		t.Fatalf("cookie mode sent auth=%q cookie=%q", auth, cookie)
	}

	// Twitter token lookup always uses the cookie, whatever the default.
	if _, err := bearer.TwitterTokens(context.Background(), "tok"); err != nil {
		t.Fatalf("TwitterTokens: %v", err)
	}
	if auth != "" || cookie != "tok" {
		t.Fatalf("twitter tokens sent auth=%q cookie=%q", auth, cookie)
	}
}

func TestCastVote_Body(t *testing.T) {
	var body map[string]string
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"message":"Vote recorded","vote":{"project_id":"p1","vote_type":"FOR"},"stats":{"votesFor":3,"votesAgainst":1,"total":4,"score":0.5}}`)
	}, Options{})

	res, err := c.CastVote(context.Background(), "tok", "p1", domain.VoteFor)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if path != "/api/votes/p1" || body["voteType"] != "FOR" {
		t.Fatalf("unexpected request: path=%q body=%v", path, body)
	}
	if res.Stats.VotesFor != 3 || res.Vote == nil || res.Vote.ProjectID != "p1" || res.VotesBreakdown != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUpload_SingleMultipartRequest(t *testing.T) {
	calls := 0
	var fields []string
	var names []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("content type: %v", err)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			fields = append(fields, p.FormName())
			names = append(names, p.FileName())
		}
		_, _ = io.WriteString(w, `{"logoUrl":"https://cdn/l.png","bannerUrl":null}`)
	}, Options{})

	res, err := c.Upload(context.Background(), "tok", []FilePart{
		{Field: FieldLogo, Filename: `logo-1-my "logo".png`, ContentType: "image/png", Data: []byte("x")},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if calls != 1 || len(fields) != 1 || fields[0] != FieldLogo {
		t.Fatalf("unexpected upload shape: calls=%d fields=%v", calls, fields)
	}
	if !strings.Contains(names[0], "logo") {
		t.Fatalf("filename lost: %v", names)
	}
	if res.LogoURL != "https://cdn/l.png" || res.BannerURL != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPostTweet(t *testing.T) {
	var auth, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		_, _ = io.WriteString(w, `{"data":{"id":"1","text":"gm"}}`)
	}, Options{Name: "twitter", Prefix: "/", Auth: AuthCookie})

	raw, err := c.PostTweet(context.Background(), "at", "gm")
	if err != nil {
		t.Fatalf("PostTweet: %v", err)
	}
	if path != "/2/tweets" || auth != "Bearer at" {
		t.Fatalf("unexpected request: path=%q auth=%q", path, auth)
	}
	if !strings.Contains(string(raw), `"gm"`) {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestURLAndAuthURL(t *testing.T) {
	c := New(Options{BaseURL: "https://api.example.com/"})
	if got := c.AuthURL(); got != "https://api.example.com/api/auth/discord" {
		t.Fatalf("AuthURL = %q", got)
	}
	if got := c.URL("projects", url.Values{"q": {"a b"}}); got != "https://api.example.com/api/projects?q=a+b" {
		t.Fatalf("URL = %q", got)
	}
	root := New(Options{BaseURL: "https://api.twitter.com", Prefix: "/"})
	if got := root.URL("/2/tweets", nil); got != "https://api.twitter.com/2/tweets" {
		t.Fatalf("URL = %q", got)
	}
}

func TestIdempotencyKeyAndLogout(t *testing.T) {
	var keys []string
	var logoutCookie string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(HeaderIdempotencyKey))
		if r.URL.Path == "/api/auth/logout" {
			if ck, err := r.Cookie("token"); err == nil {
				logoutCookie = ck.Value
			}
			_, _ = io.WriteString(w, `{"message":"Logged out"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Vote recorded","stats":{"votesFor":1}}`)
	}, Options{Auth: AuthCookie})

	ctx := WithIdempotencyKey(context.Background(), "k-1")
	if _, err := c.CastVote(ctx, "tok", "p1", domain.VoteFor); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if err := c.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k-1" || keys[1] != "" {
		t.Fatalf("unexpected keys: %q", keys)
	}
	if logoutCookie != "tok" {
		t.Fatalf("logout cookie=%q", logoutCookie)
	}
}
