// Package feed is the client-side view of the project feed: a paged cache
// keyed by the active filters, a single-goroutine Loop that fetches and
// revalidates it, and the splicing rules that keep every cached page in step
// with votes and admin edits.
package feed

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/sysutil"
)

// Key identifies one independent page sequence. Two keys with the same
// filters compare equal regardless of category order.
type Key struct {
	// Categories is the sorted, comma-joined category id list.
	Categories string
	OnlyNew    bool
	// Query switches the key to search mode when non-empty.
	Query string
	// Status restricts the feed to one moderation state (the scams view).
	Status domain.ProjectStatus
}

// NewKey normalizes filters into a Key. Duplicate and blank category ids are
// dropped; the query is trimmed and lowercased.
func NewKey(categories []string, onlyNew bool, query string) Key {
	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			ids = append(ids, c)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return Key{
		Categories: strings.Join(ids, ","),
		OnlyNew:    onlyNew,
		Query:      strings.ToLower(strings.TrimSpace(query)),
	}
}

// KeyFromQuery reads category, onlyNew, q and status the way the list
// endpoint names them.
func KeyFromQuery(q url.Values) Key {
	k := NewKey(strings.Split(q.Get("category"), ","), sysutil.IsTruthy(q.Get("onlyNew")), q.Get("q"))
	k.Status = domain.ProjectStatus(strings.ToUpper(strings.TrimSpace(q.Get("status"))))
	return k
}

// Searching reports whether the key is in search mode.
func (k Key) Searching() bool { return k.Query != "" }

// CategoryIDs splits Categories back into ids.
func (k Key) CategoryIDs() []string {
	if k.Categories == "" {
		return nil
	}
	return strings.Split(k.Categories, ",")
}

// Values builds the list query for one page.
func (k Key) Values(page, limit int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if k.Categories != "" {
		v.Set("category", k.Categories)
	}
	if k.OnlyNew {
		v.Set("onlyNew", "true")
	}
	if k.Status != "" {
		v.Set("status", string(k.Status))
	}
	return v
}

// Matches reports whether p belongs in a non-search sequence for k. The
// "new" filter is left to the backend.
func (k Key) Matches(p domain.Project) bool {
	if k.Searching() {
		return false
	}
	if k.Status != "" && p.Status != k.Status {
		return false
	}
	for _, id := range k.CategoryIDs() {
		if p.HasCategory(id) {
			return true
		}
	}
	return k.Categories == ""
}
