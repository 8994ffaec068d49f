package services

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/gateway"
)

// fakeBackend implements every backend interface in this package. Each call
// is counted so tests can assert that no upstream request was made.
type fakeBackend struct {
	calls atomic.Int32

	mu       sync.Mutex
	lastQ    url.Values
	lastBody map[string]any
	lastID   string
	lastTok  string
	lastVote domain.VoteType
	lastAddr string
	parts    []gateway.FilePart

	page    *domain.FeedPage
	project *domain.Project
	cats    []domain.Category
	search  *domain.SearchResult
	stats   *domain.Stats
	vote    *domain.VoteResult
	votes   *domain.MyVotes
	user    *domain.User
	upload  *domain.UploadResult
	tokens  *gateway.TwitterTokens
	err     error

	catsCalls atomic.Int32
	catsGate  chan struct{}
}

func (f *fakeBackend) hit() { f.calls.Add(1) }

func (f *fakeBackend) ListProjects(_ context.Context, q url.Values) (*domain.FeedPage, error) {
	f.hit()
	f.mu.Lock()
	f.lastQ = q
	f.mu.Unlock()
	return f.page, f.err
}

func (f *fakeBackend) GetProject(_ context.Context, id string) (*domain.Project, error) {
	f.hit()
	f.lastID = id
	return f.project, f.err
}

func (f *fakeBackend) CreateProject(_ context.Context, token string, body map[string]any) (*domain.Project, error) {
	f.hit()
	f.lastTok, f.lastBody = token, body
	return f.project, f.err
}

func (f *fakeBackend) UpdateProject(_ context.Context, token, id string, body map[string]any) (*domain.Project, error) {
	f.hit()
	f.lastTok, f.lastID, f.lastBody = token, id, body
	return f.project, f.err
}

func (f *fakeBackend) DeleteProject(_ context.Context, token, id string) error {
	f.hit()
	f.lastTok, f.lastID = token, id
	return f.err
}

func (f *fakeBackend) Categories(ctx context.Context) ([]domain.Category, error) {
	f.hit()
	f.catsCalls.Add(1)
	if f.catsGate != nil {
		select {
		case <-f.catsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.cats, f.err
}

func (f *fakeBackend) Search(_ context.Context, q string) (*domain.SearchResult, error) {
	f.hit()
	f.lastQ = url.Values{"q": {q}}
	return f.search, f.err
}

func (f *fakeBackend) Stats(_ context.Context) (*domain.Stats, error) {
	f.hit()
	return f.stats, f.err
}

func (f *fakeBackend) CastVote(_ context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error) {
	f.hit()
	f.lastTok, f.lastID, f.lastVote = token, projectID, vt
	return f.vote, f.err
}

func (f *fakeBackend) MyVotes(_ context.Context, token string) (*domain.MyVotes, error) {
	f.hit()
	f.lastTok = token
	return f.votes, f.err
}

func (f *fakeBackend) Me(_ context.Context, token string) (*domain.User, error) {
	f.hit()
	f.lastTok = token
	return f.user, f.err
}

func (f *fakeBackend) SubmitWallet(_ context.Context, token, address string) (*domain.User, error) {
	f.hit()
	f.lastTok, f.lastAddr = token, address
	return f.user, f.err
}

func (f *fakeBackend) AuthURL() string { return "http://backend.test/api/auth/discord" }

func (f *fakeBackend) Upload(_ context.Context, token string, parts []gateway.FilePart) (*domain.UploadResult, error) {
	f.hit()
	f.lastTok, f.parts = token, parts
	return f.upload, f.err
}

func (f *fakeBackend) TwitterTokens(_ context.Context, token string) (*gateway.TwitterTokens, error) {
	f.hit()
	f.lastTok = token
	return f.tokens, f.err
}

type fakeTweeter struct {
	calls int
	token string
	text  string
	out   json.RawMessage
	err   error
}

func (t *fakeTweeter) PostTweet(_ context.Context, accessToken, text string) (json.RawMessage, error) {
	t.calls++
	t.token, t.text = accessToken, text
	return t.out, t.err
}

// png is the smallest byte prefix mimetype recognizes as image/png.
var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
