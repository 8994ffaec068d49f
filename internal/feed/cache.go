package feed

import (
	"slices"
	"sync"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// VoteUpdate is the authoritative tally for one project after a vote.
// Breakdown is nil when the backend did not report one; the cached breakdown
// is then left as it was.
type VoteUpdate struct {
	VotesFor     int
	VotesAgainst int
	Breakdown    *[]domain.RoleVotes
}

// UpdateFromResult extracts the tally from a vote response.
func UpdateFromResult(res domain.VoteResult) VoteUpdate {
	return VoteUpdate{
		VotesFor:     res.Stats.VotesFor,
		VotesAgainst: res.Stats.VotesAgainst,
		Breakdown:    res.VotesBreakdown,
	}
}

type entry struct {
	pages  []domain.FeedPage
	search []domain.Project
	done   bool // search loaded
}

// Cache holds page sequences per Key. Pages are stored in ascending page
// order and replaced wholesale, never mutated in place, so callers holding a
// previous projection are unaffected by later writes.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

func (c *Cache) get(k Key) *entry {
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	return e
}

// Keys lists the cached keys.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Pages returns a copy of k's page sequence.
func (c *Cache) Pages(k Key) []domain.FeedPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		return slices.Clone(e.pages)
	}
	return nil
}

// Last returns k's last page, if any.
func (c *Cache) Last(k Key) (domain.FeedPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || len(e.pages) == 0 {
		return domain.FeedPage{}, false
	}
	return e.pages[len(e.pages)-1], true
}

// Append adds the next page to k. A page whose number does not follow the
// last cached one is dropped and false is returned.
func (c *Cache) Append(k Key, p domain.FeedPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(k)
	want := len(e.pages) + 1
	if p.Pagination.Page != 0 && p.Pagination.Page != want {
		return false
	}
	if p.Pagination.Page == 0 {
		p.Pagination.Page = want
	}
	e.pages = append(e.pages, p)
	return true
}

// ReplaceFirst swaps in a fresh page 1 and keeps every later page. The
// pagination totals of later pages are left untouched.
func (c *Cache) ReplaceFirst(k Key, p domain.FeedPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(k)
	if len(e.pages) == 0 {
		e.pages = []domain.FeedPage{p}
		return
	}
	pages := slices.Clone(e.pages)
	pages[0] = p
	e.pages = pages
}

// SetSearch stores the flat search result for k.
func (c *Cache) SetSearch(k Key, projects []domain.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.get(k)
	e.search = slices.Clone(projects)
	e.done = true
}

// Search returns k's search result and whether it has been loaded.
func (c *Cache) Search(k Key) ([]domain.Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.search), e.done
}

// Drop discards everything cached for k.
func (c *Cache) Drop(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k)
}

// Len reports how many keys are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// rewrite applies fn to every project in every page and search result of
// every key. fn returns the replacement and whether it changed anything.
func (c *Cache) rewrite(fn func(domain.Project) (domain.Project, bool)) int {
	n := 0
	mapProjects := func(in []domain.Project) ([]domain.Project, bool) {
		var out []domain.Project
		for i, p := range in {
			np, changed := fn(p)
			if !changed {
				continue
			}
			if out == nil {
				out = slices.Clone(in)
			}
			out[i] = np
			n++
		}
		if out == nil {
			return in, false
		}
		return out, true
	}
	for _, e := range c.entries {
		var pages []domain.FeedPage
		for i, pg := range e.pages {
			projects, changed := mapProjects(pg.Projects)
			if !changed {
				continue
			}
			if pages == nil {
				pages = slices.Clone(e.pages)
			}
			pages[i].Projects = projects
		}
		if pages != nil {
			e.pages = pages
		}
		if projects, changed := mapProjects(e.search); changed {
			e.search = projects
		}
	}
	return n
}

// ApplyVote overwrites the counters of projectID wherever it is cached and
// returns the number of copies updated. No other project is touched.
func (c *Cache) ApplyVote(projectID string, u VoteUpdate) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewrite(func(p domain.Project) (domain.Project, bool) {
		if p.ID != projectID {
			return p, false
		}
		p.VotesFor, p.VotesAgainst = u.VotesFor, u.VotesAgainst
		if u.Breakdown != nil {
			bd := slices.Clone(*u.Breakdown)
			p.VotesBreakdown = &bd
		}
		return p, true
	})
}

// Replace swaps an edited project in place wherever it is cached.
func (c *Cache) Replace(p domain.Project) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewrite(func(old domain.Project) (domain.Project, bool) {
		if old.ID != p.ID {
			return old, false
		}
		return p, true
	})
}

// Prepend puts a newly created project at the head of page 1 of every
// non-search key whose filters it matches. Keys with no pages yet are left
// alone; their first fetch will include it.
func (c *Cache) Prepend(p domain.Project) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if len(e.pages) == 0 || !k.Matches(p) {
			continue
		}
		pages := slices.Clone(e.pages)
		first := pages[0]
		first.Projects = append([]domain.Project{p}, first.Projects...)
		pages[0] = first
		shiftTotal(pages, 1)
		e.pages = pages
		n++
	}
	return n
}

// Remove deletes projectID from every key and returns how many copies were
// removed.
func (c *Cache) Remove(projectID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	drop := func(in []domain.Project) []domain.Project {
		i := slices.IndexFunc(in, func(p domain.Project) bool { return p.ID == projectID })
		if i < 0 {
			return in
		}
		n++
		return slices.Delete(slices.Clone(in), i, i+1)
	}
	for _, e := range c.entries {
		var pages []domain.FeedPage
		removed := 0
		for i, pg := range e.pages {
			projects := drop(pg.Projects)
			if len(projects) == len(pg.Projects) {
				continue
			}
			if pages == nil {
				pages = slices.Clone(e.pages)
			}
			pages[i].Projects = projects
			removed++
		}
		if pages != nil {
			shiftTotal(pages, -removed)
			e.pages = pages
		}
		e.search = drop(e.search)
	}
	return n
}

// shiftTotal moves every page's total by delta so each page of a sequence
// reports the same count. Totals never go below zero.
func shiftTotal(pages []domain.FeedPage, delta int) {
	for i := range pages {
		pages[i].Pagination.Total = max(pages[i].Pagination.Total+delta, 0)
	}
}

// Projects concatenates k's pages in fetch order, or returns the search
// result when k is in search mode. Projects whose status is in hidden are
// left out, unless the key asks for that status explicitly.
func (c *Cache) Projects(k Key, hidden []domain.ProjectStatus) []domain.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return []domain.Project{}
	}
	visible := func(p domain.Project) bool {
		return p.Status == k.Status || !slices.Contains(hidden, p.Status)
	}
	out := []domain.Project{}
	if k.Searching() {
		for _, p := range e.search {
			if visible(p) {
				out = append(out, p)
			}
		}
		return out
	}
	for _, pg := range e.pages {
		for _, p := range pg.Projects {
			if visible(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
