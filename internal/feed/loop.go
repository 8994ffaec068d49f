package feed

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// Defaults for Options.
const (
	DefaultLimit    = 20
	DefaultInterval = 60 * time.Second
)

// ErrClosed is returned by Loop methods after Close.
var ErrClosed = errors.New("feed: loop closed")

// Source is the read side of the backend the feed needs.
// *gateway.Client satisfies it.
type Source interface {
	ListProjects(ctx context.Context, q url.Values) (*domain.FeedPage, error)
	Search(ctx context.Context, q string) (*domain.SearchResult, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

// Options tune a Loop. Zero values pick the defaults; a negative Interval
// disables periodic revalidation.
type Options struct {
	Limit    int
	Interval time.Duration
	// Hidden statuses are left out of the projection unless the key filters
	// on them. Nil hides SCAM.
	Hidden []domain.ProjectStatus
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.Hidden == nil {
		o.Hidden = []domain.ProjectStatus{domain.StatusScam}
	}
	return o
}

// View is what a renderer draws for the active key.
type View struct {
	Key      Key
	Projects []domain.Project
	HasNext  bool
	Loading  bool
	Stats    *domain.Stats
	Err      error
}

// Loop owns the feed state for one active key. Every event (sentinel,
// refocus, tick, filter change, mutation) is a task run on a single goroutine;
// fetches run in the background and post their results back as tasks, so the
// state below is only ever touched by that goroutine.
type Loop struct {
	src   Source
	cache *Cache
	opts  Options

	tasks chan func()
	done  chan struct{}
	exit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
	ctx   context.Context
	stop  context.CancelFunc

	// loop goroutine only
	key        Key
	gen        uint64
	inflight   map[Key]bool
	refreshing map[Key]bool
	statsBusy  bool
	pending    int
	stats      *domain.Stats
	err        error
	waiters    []chan struct{}
}

// New returns a Loop over src writing into cache. Several loops may share
// one Cache; mutations then reach every key any of them holds.
func New(src Source, cache *Cache, opts Options) *Loop {
	if cache == nil {
		cache = NewCache()
	}
	return &Loop{
		src:        src,
		cache:      cache,
		opts:       opts.withDefaults(),
		tasks:      make(chan func()),
		done:       make(chan struct{}),
		exit:       make(chan struct{}),
		inflight:   make(map[Key]bool),
		refreshing: make(map[Key]bool),
	}
}

// Cache exposes the underlying page cache.
func (l *Loop) Cache() *Cache { return l.cache }

// Start runs the loop until ctx ends or Close is called. The first page and
// the stats for the initial key are requested immediately.
func (l *Loop) Start(ctx context.Context, initial Key) {
	l.ctx, l.stop = context.WithCancel(ctx)
	l.key = initial
	go l.run()
	_ = l.enqueue(ctx, func() {
		l.next()
		l.refreshStats()
	})
}

// Close stops the loop and waits for background fetches to return.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
		if l.stop != nil {
			l.stop()
			<-l.exit
		}
	})
	l.wg.Wait()
}

func (l *Loop) run() {
	defer close(l.exit)
	var tick <-chan time.Time
	if l.opts.Interval > 0 {
		t := time.NewTicker(l.opts.Interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-l.done:
			return
		case <-l.ctx.Done():
			return
		case <-tick:
			l.revalidate()
		case fn := <-l.tasks:
			fn()
		}
		if l.pending == 0 {
			for _, w := range l.waiters {
				close(w)
			}
			l.waiters = nil
		}
	}
}

func (l *Loop) enqueue(ctx context.Context, fn func()) error {
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	case <-l.exit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers a fetch result; it is dropped once the loop has stopped.
func (l *Loop) post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.exit:
	}
}

// spawn runs fetch in the background. Its returned closure is applied on the
// loop goroutine.
func (l *Loop) spawn(fetch func(ctx context.Context) func()) {
	l.pending++
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		apply := fetch(l.ctx)
		l.post(func() {
			l.pending--
			apply()
		})
	}()
}

// Sentinel reports that the end of the rendered list became visible.
func (l *Loop) Sentinel(ctx context.Context) error {
	return l.enqueue(ctx, l.next)
}

// Refocus reports that the user came back; the feed and stats revalidate.
func (l *Loop) Refocus(ctx context.Context) error {
	return l.enqueue(ctx, l.revalidate)
}

// SetFilter switches the active key. Pages accumulated for the previous key
// are discarded and the new key restarts at page 1. Results of fetches still
// running for the old key are ignored when they land.
func (l *Loop) SetFilter(ctx context.Context, k Key) error {
	return l.enqueue(ctx, func() {
		if k == l.key {
			return
		}
		l.cache.Drop(l.key)
		l.cache.Drop(k)
		l.key = k
		l.gen++
		l.err = nil
		clear(l.inflight)
		clear(l.refreshing)
		l.next()
	})
}

// ApplyVote writes an authoritative tally into every cached copy of the
// project.
func (l *Loop) ApplyVote(ctx context.Context, projectID string, u VoteUpdate) error {
	return l.enqueue(ctx, func() { l.cache.ApplyVote(projectID, u) })
}

// Created splices a new project into page 1 of every matching key.
func (l *Loop) Created(ctx context.Context, p domain.Project) error {
	return l.enqueue(ctx, func() { l.cache.Prepend(p) })
}

// Edited replaces a project wherever it is cached.
func (l *Loop) Edited(ctx context.Context, p domain.Project) error {
	return l.enqueue(ctx, func() { l.cache.Replace(p) })
}

// Deleted removes a project wherever it is cached.
func (l *Loop) Deleted(ctx context.Context, projectID string) error {
	return l.enqueue(ctx, func() { l.cache.Remove(projectID) })
}

// Snapshot returns the projection for the active key.
func (l *Loop) Snapshot(ctx context.Context) (View, error) {
	out := make(chan View, 1)
	if err := l.enqueue(ctx, func() { out <- l.view() }); err != nil {
		return View{}, err
	}
	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Settle blocks until no fetch is outstanding.
func (l *Loop) Settle(ctx context.Context) error {
	ch := make(chan struct{})
	if err := l.enqueue(ctx, func() { l.waiters = append(l.waiters, ch) }); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-l.exit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) view() View {
	k := l.key
	v := View{
		Key:      k,
		Projects: l.cache.Projects(k, l.opts.Hidden),
		Loading:  l.inflight[k],
		Stats:    l.stats,
		Err:      l.err,
	}
	if !k.Searching() {
		if last, ok := l.cache.Last(k); ok {
			v.HasNext = last.Pagination.HasNext()
		}
	}
	return v
}

// next requests the page after the last cached one, or the search result.
// Page N is requested only once page N-1 is cached and reported more pages.
func (l *Loop) next() {
	k := l.key
	if l.inflight[k] {
		return
	}
	if k.Searching() {
		if _, loaded := l.cache.Search(k); !loaded {
			l.fetchSearch(k)
		}
		return
	}
	page := 1
	if last, ok := l.cache.Last(k); ok {
		if !last.Pagination.HasNext() {
			return
		}
		page = last.Pagination.Page + 1
	}
	l.fetchPage(k, page, false)
}

func (l *Loop) revalidate() {
	l.refreshStats()
	k := l.key
	if k.Searching() {
		if !l.inflight[k] {
			l.fetchSearch(k)
		}
		return
	}
	if _, ok := l.cache.Last(k); !ok {
		l.next()
		return
	}
	if !l.refreshing[k] {
		l.fetchPage(k, 1, true)
	}
}

func (l *Loop) fetchPage(k Key, page int, refresh bool) {
	gen := l.gen
	if refresh {
		l.refreshing[k] = true
	} else {
		l.inflight[k] = true
	}
	q := k.Values(page, l.opts.Limit)
	l.spawn(func(ctx context.Context) func() {
		pg, err := retryOnce(ctx, func(ctx context.Context) (*domain.FeedPage, error) {
			return l.src.ListProjects(ctx, q)
		})
		return func() {
			if gen != l.gen {
				return
			}
			if refresh {
				delete(l.refreshing, k)
			} else {
				delete(l.inflight, k)
			}
			if err != nil {
				l.err = err
				return
			}
			l.err = nil
			if refresh {
				l.cache.ReplaceFirst(k, *pg)
				return
			}
			l.cache.Append(k, *pg)
		}
	})
}

func (l *Loop) fetchSearch(k Key) {
	gen := l.gen
	l.inflight[k] = true
	l.spawn(func(ctx context.Context) func() {
		res, err := retryOnce(ctx, func(ctx context.Context) (*domain.SearchResult, error) {
			return l.src.Search(ctx, k.Query)
		})
		return func() {
			if gen != l.gen {
				return
			}
			delete(l.inflight, k)
			if err != nil {
				l.err = err
				return
			}
			l.err = nil
			l.cache.SetSearch(k, res.Projects)
		}
	})
}

func (l *Loop) refreshStats() {
	if l.statsBusy {
		return
	}
	l.statsBusy = true
	l.spawn(func(ctx context.Context) func() {
		st, err := retryOnce(ctx, l.src.Stats)
		return func() {
			l.statsBusy = false
			if err == nil {
				l.stats = st
			}
		}
	})
}

// retryOnce calls fn again after a failure unless ctx has ended. A nil
// result without an error counts as a failure.
func retryOnce[T any](ctx context.Context, fn func(context.Context) (*T, error)) (*T, error) {
	var (
		v   *T
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		v, err = fn(ctx)
		if err == nil && v != nil {
			return v, nil
		}
		if err == nil {
			err = errEmpty
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}

var errEmpty = errors.New("feed: empty response")
