// Package search provides a deterministic, concurrency-safe in-memory project
// index used to answer search requests in development, when no Backend Gateway
// search is wanted.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware matching: queries and fields are folded so "cafe" finds
//     "Café" and "DEFI" finds "DeFi"
//   - Immutable after construction (safe for concurrent use)
//   - Results keep the source order, so the output is stable
//
// A project matches when the folded query is a substring of its name, its
// description or one of its category names.
package search

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// Index is the minimal interface implemented by all project indices.
type Index interface {
	Search(query string) []domain.Project
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	maxResults     int
	hiddenStatuses map[domain.ProjectStatus]struct{}
}

func defaultConfig() config {
	return config{maxResults: 0, hiddenStatuses: nil}
}

// WithMaxResults caps how many projects a search returns. n <= 0 is ignored.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithHiddenStatuses excludes projects in the given moderation states.
func WithHiddenStatuses(statuses ...domain.ProjectStatus) Option {
	return func(c *config) {
		m := make(map[domain.ProjectStatus]struct{}, len(statuses))
		for _, s := range statuses {
			if s.Valid() {
				m[s] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.hiddenStatuses = m
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	project    domain.Project
	name       string
	desc       string
	categories []string
}

type index struct {
	cfg  config
	docs []doc
}

// mockFile is the on-disk shape: the same envelope the feed endpoint returns.
type mockFile struct {
	Projects []domain.Project `json:"projects"`
}

// NewIndexFromFile builds an Index from a JSON file holding {"projects": [...]}.
func NewIndexFromFile(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{cfg: defaultConfig(), docs: nil}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an Index from JSON provided by r. The reader is
// fully consumed.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	var f mockFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return &index{cfg: cfg, docs: nil}, err
	}
	return buildIndex(f.Projects, cfg), nil
}

// NewIndex builds an Index directly from projects.
func NewIndex(projects []domain.Project, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(projects, cfg)
}

func buildIndex(projects []domain.Project, cfg config) *index {
	docs := make([]doc, 0, len(projects))
	for _, p := range projects {
		if _, hidden := cfg.hiddenStatuses[p.Status]; hidden {
			continue
		}
		d := doc{
			project: p,
			name:    Fold(p.Name),
			desc:    Fold(p.Description),
		}
		for _, c := range p.Categories {
			d.categories = append(d.categories, Fold(c.Name))
		}
		docs = append(docs, d)
	}
	return &index{cfg: cfg, docs: docs}
}

// Len returns the number of indexed projects.
func (i *index) Len() int { return len(i.docs) }

// Search returns the matching projects in source order. A blank query matches
// nothing, mirroring the upstream endpoint.
func (i *index) Search(query string) []domain.Project {
	q := Fold(query)
	if q == "" || len(i.docs) == 0 {
		return []domain.Project{}
	}
	out := make([]domain.Project, 0, min(8, len(i.docs)))
	for _, d := range i.docs {
		if !d.matches(q) {
			continue
		}
		out = append(out, d.project)
		if i.cfg.maxResults > 0 && len(out) >= i.cfg.maxResults {
			break
		}
	}
	return out
}

func (d doc) matches(q string) bool {
	if strings.Contains(d.name, q) || strings.Contains(d.desc, q) {
		return true
	}
	for _, c := range d.categories {
		if strings.Contains(c, q) {
			return true
		}
	}
	return false
}
