package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/services"
)

// ---------- flexible service stub ----------

// stubSvc implements every service contract. Unset funcs return zero values;
// calls counts every invocation so tests can assert nothing was reached.
type stubSvc struct {
	calls atomic.Int64

	list      func(context.Context, url.Values) (*domain.FeedPage, error)
	get       func(context.Context, string) (*domain.Project, error)
	create    func(context.Context, string, map[string]any) (*domain.Project, error)
	update    func(context.Context, string, string, map[string]any) (*domain.Project, error)
	del       func(context.Context, string, string, map[string]any) error
	cats      func(context.Context) ([]domain.Category, error)
	stats     func(context.Context) (*domain.Stats, error)
	search    func(context.Context, string) (*domain.SearchResult, error)
	home      func(context.Context, url.Values) (*domain.Home, error)
	cast      func(context.Context, string, string, domain.VoteType) (*domain.VoteResult, error)
	mine      func(context.Context, string) (*domain.MyVotes, error)
	me        func(context.Context, string) (*domain.User, error)
	wallet    func(context.Context, string, string) (*domain.User, error)
	upload    func(context.Context, string, *services.MediaFile, *services.MediaFile) (*domain.UploadResult, error)
	post      func(context.Context, string, string) (json.RawMessage, error)
	authURL   string
	intentURL string
}

func (s *stubSvc) List(ctx context.Context, q url.Values) (*domain.FeedPage, error) {
	s.calls.Add(1)
	if s.list != nil {
		return s.list(ctx, q)
	}
	return &domain.FeedPage{}, nil
}

func (s *stubSvc) Get(ctx context.Context, id string) (*domain.Project, error) {
	s.calls.Add(1)
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Project{ID: id}, nil
}

func (s *stubSvc) Create(ctx context.Context, tok string, body map[string]any) (*domain.Project, error) {
	s.calls.Add(1)
	if s.create != nil {
		return s.create(ctx, tok, body)
	}
	return &domain.Project{ID: "new"}, nil
}

func (s *stubSvc) Update(ctx context.Context, tok, id string, body map[string]any) (*domain.Project, error) {
	s.calls.Add(1)
	if s.update != nil {
		return s.update(ctx, tok, id, body)
	}
	return &domain.Project{ID: id}, nil
}

func (s *stubSvc) Delete(ctx context.Context, tok, id string, body map[string]any) error {
	s.calls.Add(1)
	if s.del != nil {
		return s.del(ctx, tok, id, body)
	}
	return nil
}

func (s *stubSvc) Categories(ctx context.Context) ([]domain.Category, error) {
	s.calls.Add(1)
	if s.cats != nil {
		return s.cats(ctx)
	}
	return []domain.Category{}, nil
}

func (s *stubSvc) Stats(ctx context.Context) (*domain.Stats, error) {
	s.calls.Add(1)
	if s.stats != nil {
		return s.stats(ctx)
	}
	return &domain.Stats{}, nil
}

func (s *stubSvc) Search(ctx context.Context, q string) (*domain.SearchResult, error) {
	s.calls.Add(1)
	if s.search != nil {
		return s.search(ctx, q)
	}
	return &domain.SearchResult{Projects: []domain.Project{}}, nil
}

func (s *stubSvc) Home(ctx context.Context, q url.Values) (*domain.Home, error) {
	s.calls.Add(1)
	if s.home != nil {
		return s.home(ctx, q)
	}
	return &domain.Home{}, nil
}

func (s *stubSvc) Cast(ctx context.Context, tok, id string, vt domain.VoteType) (*domain.VoteResult, error) {
	s.calls.Add(1)
	if s.cast != nil {
		return s.cast(ctx, tok, id, vt)
	}
	return &domain.VoteResult{Message: "Vote recorded"}, nil
}

func (s *stubSvc) Mine(ctx context.Context, tok string) (*domain.MyVotes, error) {
	s.calls.Add(1)
	if s.mine != nil {
		return s.mine(ctx, tok)
	}
	return &domain.MyVotes{Votes: []domain.VoteRecord{}}, nil
}

func (s *stubSvc) Me(ctx context.Context, tok string) (*domain.User, error) {
	s.calls.Add(1)
	if s.me != nil {
		return s.me(ctx, tok)
	}
	return &domain.User{ID: "u1"}, nil
}

func (s *stubSvc) SubmitWallet(ctx context.Context, tok, addr string) (*domain.User, error) {
	s.calls.Add(1)
	if s.wallet != nil {
		return s.wallet(ctx, tok, addr)
	}
	return &domain.User{ID: "u1", WalletAddress: &addr}, nil
}

func (s *stubSvc) AuthURL() string { return s.authURL }

func (s *stubSvc) Upload(ctx context.Context, tok string, logo, banner *services.MediaFile) (*domain.UploadResult, error) {
	s.calls.Add(1)
	if s.upload != nil {
		return s.upload(ctx, tok, logo, banner)
	}
	return &domain.UploadResult{LogoURL: "https://cdn/logo.png"}, nil
}

func (s *stubSvc) Post(ctx context.Context, tok, text string) (json.RawMessage, error) {
	s.calls.Add(1)
	if s.post != nil {
		return s.post(ctx, tok, text)
	}
	return json.RawMessage(`{"data":{"id":"1"}}`), nil
}

func (s *stubSvc) Intent(text string) string {
	return s.intentURL + "?text=" + url.QueryEscape(text)
}

// ---------- router helper ----------

// newTestRouter mounts every handler behind the Session middleware.
func newTestRouter(t *testing.T, s *stubSvc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := New(Deps{
		Projects: s, Catalog: s, Votes: s, Account: s, Uploads: s, Twitter: s,
	})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Next()
	})
	r.Use(middleware.Session(middleware.SessionOptions{}))

	r.GET("/projects", h.ListProjects)
	r.POST("/projects", h.CreateProject)
	r.PUT("/projects", h.UpdateProject)
	r.DELETE("/projects", h.DeleteProject)
	r.GET("/projects/search", h.SearchProjects)
	r.GET("/projects/categories", h.ListCategories)
	r.GET("/projects/:id", h.GetProject)
	r.PUT("/projects/:id", h.UpdateProject)
	r.DELETE("/projects/:id", h.DeleteProject)
	r.GET("/stats", h.GetStats)
	r.GET("/home", h.Home)
	r.POST("/votes/:projectId", h.CastVote)
	r.GET("/votes/me", h.MyVotes)
	r.POST("/wallet", h.SubmitWallet)
	r.POST("/upload", h.Upload)
	r.GET("/user", h.Me)
	r.GET("/auth/discord", h.AuthDiscord)
	r.POST("/auth/logout", h.Logout)
	r.POST("/twitter/post", h.PostTweet)
	r.GET("/twitter/intent", h.TweetIntent)
	return r
}

// do performs a request, optionally with a session cookie.
func do(r http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return er
}
