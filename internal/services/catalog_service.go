// Package services – CatalogService
//
// CatalogService answers the public, cache-friendly reads: the category
// taxonomy (held for a TTL, with concurrent misses collapsed into one upstream
// call), the stats aggregate, search, and the landing-page bundle fetched in
// parallel.
package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HomePageLimit is the page size of the landing-page feed.
const HomePageLimit = 20

// CatalogBackend is the part of the Backend Gateway CatalogService needs.
type CatalogBackend interface {
	ListProjects(ctx context.Context, q url.Values) (*domain.FeedPage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, q string) (*domain.SearchResult, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

// CatalogService serves categories, stats, search and the home bundle.
type CatalogService struct {
	Backend CatalogBackend

	// Index, when set, answers searches locally instead of upstream.
	Index search.Index

	// CategoriesTTL is how long a fetched taxonomy is reused. Zero disables
	// caching (concurrent calls are still collapsed).
	CategoriesTTL time.Duration

	Now func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	cats     []domain.Category
	catsAt   time.Time
	catsFull bool
}

// NewCatalogService returns a CatalogService. idx may be nil.
func NewCatalogService(b CatalogBackend, idx search.Index, ttl time.Duration) *CatalogService {
	return &CatalogService{Backend: b, Index: idx, CategoriesTTL: ttl, Now: time.Now}
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Categories returns the taxonomy, from cache while fresh.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Categories")
	defer span.End()

	if cats, ok := s.cachedCategories(); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cats, nil
	}
	// The flight outlives any single caller so a cancelled leader does not
	// fail the requests that joined it.
	fctx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("categories", func() (any, error) {
		cats, err := s.Backend.Categories(fctx)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []domain.Category{}
		}
		s.mu.Lock()
		s.cats, s.catsAt, s.catsFull = cats, s.now(), true
		s.mu.Unlock()
		return cats, nil
	})
	span.SetAttributes(attribute.Bool("cache.hit", false))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		span.SetAttributes(attribute.Bool("singleflight.shared", r.Shared))
		if r.Err != nil {
			return nil, r.Err
		}
		return copyCategories(r.Val.([]domain.Category)), nil
	}
}

func (s *CatalogService) cachedCategories() ([]domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.catsFull || s.CategoriesTTL <= 0 {
		return nil, false
	}
	if s.now().Sub(s.catsAt) >= s.CategoriesTTL {
		return nil, false
	}
	return copyCategories(s.cats), true
}

// InvalidateCategories drops the cached taxonomy.
func (s *CatalogService) InvalidateCategories() {
	s.mu.Lock()
	s.cats, s.catsFull = nil, false
	s.mu.Unlock()
}

func copyCategories(in []domain.Category) []domain.Category {
	out := make([]domain.Category, len(in))
	copy(out, in)
	return out
}

// Stats forwards to the backend.
func (s *CatalogService) Stats(ctx context.Context) (*domain.Stats, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	return s.Backend.Stats(ctx)
}

// Search lowercases q and looks it up. A blank query returns an empty result
// without any lookup.
func (s *CatalogService) Search(ctx context.Context, q string) (*domain.SearchResult, error) {
	q = strings.ToLower(strings.TrimSpace(q))

	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", q),
			attribute.Bool("search.local", s.Index != nil),
		),
	)
	defer span.End()

	if q == "" {
		return &domain.SearchResult{Projects: []domain.Project{}}, nil
	}
	if s.Index != nil {
		return &domain.SearchResult{Projects: s.Index.Search(q)}, nil
	}
	res, err := s.Backend.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if res.Projects == nil {
		res.Projects = []domain.Project{}
	}
	return res, nil
}

// Home fetches the first feed page, the categories and the stats in parallel.
// q is forwarded to the feed request; page is forced to 1 and limit defaults
// to HomePageLimit. The first failure cancels the others and is returned.
func (s *CatalogService) Home(ctx context.Context, q url.Values) (*domain.Home, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Home")
	defer span.End()

	fq := url.Values{}
	for k, v := range q {
		fq[k] = append([]string(nil), v...)
	}
	fq.Set("page", "1")
	if fq.Get("limit") == "" {
		fq.Set("limit", strconv.Itoa(HomePageLimit))
	}

	var out domain.Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.Backend.ListProjects(gctx, fq)
		out.Feed = page
		return err
	})
	g.Go(func() error {
		cats, err := s.Categories(gctx)
		out.Categories = cats
		return err
	})
	g.Go(func() error {
		st, err := s.Backend.Stats(gctx)
		out.Stats = st
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}
