package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// fakeSource serves total projects, limit per page. Calls block on gate when
// it is set; failures makes the first N list calls fail.
type fakeSource struct {
	mu       sync.Mutex
	total    int
	prefix   string
	gate     chan struct{}
	failures int
	lists    []url.Values
	searches []string
	stats    int
}

func (f *fakeSource) ListProjects(ctx context.Context, q url.Values) (*domain.FeedPage, error) {
	f.mu.Lock()
	f.lists = append(f.lists, q)
	gate, prefix := f.gate, f.prefix
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("boom")
	}
	pageN, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	pages := (f.total + limit - 1) / limit
	pg := &domain.FeedPage{Pagination: domain.Pagination{Total: f.total, Page: pageN, Limit: limit, Pages: pages}}
	for i := (pageN - 1) * limit; i < pageN*limit && i < f.total; i++ {
		pg.Projects = append(pg.Projects, project(fmt.Sprintf("%s%02d", prefix, i)))
	}
	return pg, nil
}

func (f *fakeSource) Search(_ context.Context, q string) (*domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	return &domain.SearchResult{Projects: []domain.Project{project("hit-" + q)}}, nil
}

func (f *fakeSource) Stats(context.Context) (*domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats++
	return &domain.Stats{TotalProjects: f.total}, nil
}

func (f *fakeSource) listCalls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.lists...)
}

func (f *fakeSource) setPrefix(p string) {
	f.mu.Lock()
	f.prefix = p
	f.mu.Unlock()
}

func startLoop(t *testing.T, src Source, k Key) *Loop {
	t.Helper()
	l := New(src, nil, Options{Interval: -1})
	l.Start(context.Background(), k)
	t.Cleanup(l.Close)
	return l
}

func settle(t *testing.T, l *Loop) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Settle(ctx))
	v, err := l.Snapshot(ctx)
	require.NoError(t, err)
	return v
}

func TestLoop_FortyFiveProjectsThreePages(t *testing.T) {
	src := &fakeSource{total: 45}
	l := startLoop(t, src, Key{})
	ctx := context.Background()

	v := settle(t, l)
	assert.Len(t, v.Projects, 20)
	assert.True(t, v.HasNext)
	require.NotNil(t, v.Stats)
	assert.Equal(t, 45, v.Stats.TotalProjects)

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Sentinel(ctx))
		v = settle(t, l)
	}
	assert.Len(t, v.Projects, 45)
	assert.False(t, v.HasNext)

	seen := map[string]bool{}
	for _, p := range v.Projects {
		assert.False(t, seen[p.ID], "duplicate %s", p.ID)
		seen[p.ID] = true
	}

	require.NoError(t, l.Sentinel(ctx))
	settle(t, l)
	calls := src.listCalls()
	require.Len(t, calls, 3, "no fetch once page == pages")
	for i, q := range calls {
		assert.Equal(t, strconv.Itoa(i+1), q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))
	}
}

func TestLoop_InflightSuppressesDuplicateFetch(t *testing.T) {
	src := &fakeSource{total: 45, gate: make(chan struct{})}
	l := startLoop(t, src, Key{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Sentinel(ctx))
	}
	v, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, v.Loading)
	assert.Empty(t, v.Projects)

	close(src.gate)
	v = settle(t, l)
	assert.Len(t, v.Projects, 20)
	assert.Len(t, src.listCalls(), 1)
}

func TestLoop_RetriesReadOnce(t *testing.T) {
	src := &fakeSource{total: 5, failures: 1}
	l := startLoop(t, src, Key{})

	v := settle(t, l)
	assert.NoError(t, v.Err)
	assert.Len(t, v.Projects, 5)
	assert.Len(t, src.listCalls(), 2)
}

func TestLoop_SecondFailureSurfaces(t *testing.T) {
	src := &fakeSource{total: 5, failures: 2}
	l := startLoop(t, src, Key{})

	v := settle(t, l)
	assert.Error(t, v.Err)
	assert.Empty(t, v.Projects)
	assert.False(t, v.Loading)
	assert.Len(t, src.listCalls(), 2)
}

// P3: a filter change drops the old key's pages and restarts at page 1.
func TestLoop_SetFilterResetsPagination(t *testing.T) {
	src := &fakeSource{total: 45}
	l := startLoop(t, src, Key{})
	ctx := context.Background()

	settle(t, l)
	require.NoError(t, l.Sentinel(ctx))
	settle(t, l)
	assert.Len(t, l.Cache().Pages(Key{}), 2)

	defi := NewKey([]string{"defi"}, false, "")
	require.NoError(t, l.SetFilter(ctx, defi))
	v := settle(t, l)

	assert.Equal(t, defi, v.Key)
	assert.Len(t, v.Projects, 20)
	assert.Empty(t, l.Cache().Pages(Key{}))
	calls := src.listCalls()
	last := calls[len(calls)-1]
	assert.Equal(t, "1", last.Get("page"))
	assert.Equal(t, "defi", last.Get("category"))
}

func TestLoop_StaleResultForAbandonedKeyIsDropped(t *testing.T) {
	src := &fakeSource{total: 3, prefix: "old-", gate: make(chan struct{})}
	l := startLoop(t, src, Key{})
	ctx := context.Background()

	// the first fetch is parked on the gate; switch keys under it
	nft := NewKey([]string{"nft"}, false, "")
	src.setPrefix("new-")
	require.NoError(t, l.SetFilter(ctx, nft))
	close(src.gate)

	v := settle(t, l)
	assert.Equal(t, nft, v.Key)
	for _, p := range v.Projects {
		assert.Contains(t, p.ID, "new-")
	}
	assert.Empty(t, l.Cache().Pages(Key{}))
}

func TestLoop_RefocusReplacesOnlyFirstPage(t *testing.T) {
	src := &fakeSource{total: 45}
	l := startLoop(t, src, Key{})
	ctx := context.Background()

	settle(t, l)
	require.NoError(t, l.Sentinel(ctx))
	settle(t, l)

	src.setPrefix("fresh-")
	require.NoError(t, l.Refocus(ctx))
	v := settle(t, l)

	require.Len(t, v.Projects, 40)
	assert.Equal(t, "fresh-00", v.Projects[0].ID)
	assert.Equal(t, "20", v.Projects[20].ID)
	assert.True(t, v.HasNext)
}

func TestLoop_TickerRevalidates(t *testing.T) {
	src := &fakeSource{total: 2}
	l := New(src, nil, Options{Interval: 10 * time.Millisecond})
	l.Start(context.Background(), Key{})
	defer l.Close()

	assert.Eventually(t, func() bool {
		return len(src.listCalls()) >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLoop_SearchModeUsesFlatResult(t *testing.T) {
	src := &fakeSource{total: 45}
	k := NewKey(nil, false, "Swap")
	l := startLoop(t, src, k)

	v := settle(t, l)
	assert.Equal(t, []string{"hit-swap"}, ids(v.Projects))
	assert.False(t, v.HasNext)
	assert.Empty(t, src.listCalls())

	require.NoError(t, l.Sentinel(context.Background()))
	settle(t, l)
	assert.Len(t, src.searches, 1)
}

func TestLoop_MutationsReachSharedCache(t *testing.T) {
	src := &fakeSource{total: 3}
	shared := NewCache()
	home := New(src, shared, Options{Interval: -1})
	scams := New(src, shared, Options{Interval: -1})
	home.Start(context.Background(), Key{})
	scams.Start(context.Background(), Key{Status: domain.StatusScam})
	defer home.Close()
	defer scams.Close()
	settle(t, home)
	settle(t, scams)
	ctx := context.Background()

	require.NoError(t, home.ApplyVote(ctx, "01", VoteUpdate{VotesFor: 9}))
	v := settle(t, scams)

	for _, p := range v.Projects {
		if p.ID == "01" {
			assert.Equal(t, 9, p.VotesFor)
		}
	}
	require.NoError(t, home.Deleted(ctx, "00"))
	require.NoError(t, home.Created(ctx, project("brand-new")))
	v = settle(t, home)
	assert.Equal(t, []string{"brand-new", "01", "02"}, ids(v.Projects))
}

func TestLoop_ClosedRejectsEvents(t *testing.T) {
	l := New(&fakeSource{}, nil, Options{Interval: -1})
	l.Start(context.Background(), Key{})
	l.Close()

	assert.ErrorIs(t, l.Sentinel(context.Background()), ErrClosed)
	_, err := l.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
