// Package domain defines the typed records exchanged with the Backend Gateway
// and cached by the feed client. Fields that the backend may omit are pointers
// so every read site has to make the presence check explicit.
package domain

import (
	"strings"
	"time"
)

// ProjectStatus is the moderation state assigned by administrators.
type ProjectStatus string

const (
	StatusPending   ProjectStatus = "PENDING"
	StatusTrustable ProjectStatus = "TRUSTABLE"
	StatusScam      ProjectStatus = "SCAM"
	StatusRug       ProjectStatus = "RUG"
)

// Valid reports whether s is one of the known moderation states.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusTrustable, StatusScam, StatusRug:
		return true
	}
	return false
}

// Role is a membership tier whose votes are reported separately.
type Role string

const (
	RoleMon        Role = "MON"
	RoleOG         Role = "OG"
	RoleNad        Role = "NAD"
	RoleFullAccess Role = "FULL_ACCESS"
)

// Roles lists the membership tiers in display order.
var Roles = []Role{RoleMon, RoleOG, RoleNad, RoleFullAccess}

// RoleVotes is the per-role subtotal of a project's votes.
type RoleVotes struct {
	Role         Role `json:"role"`
	VotesFor     int  `json:"votes_for"`
	VotesAgainst int  `json:"votes_against"`
}

// CategoryRef is the compact category shape embedded in a project.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Creator identifies the user who submitted a project.
type Creator struct {
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

// Project is a cached, read-through copy of a listing owned by the backend.
// VotesFor/VotesAgainst are advisory and overwritten by every vote response.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Website        *string       `json:"website,omitempty"`
	Twitter        *string       `json:"twitter,omitempty"`
	Discord        *string       `json:"discord,omitempty"`
	Github         *string       `json:"github,omitempty"`
	LogoURL        string        `json:"logo_url"`
	BannerURL      *string       `json:"banner_url,omitempty"`
	Status         ProjectStatus `json:"status"`
	VotesFor       int           `json:"votes_for"`
	VotesAgainst   int           `json:"votes_against"`
	VotesBreakdown *[]RoleVotes  `json:"votes_breakdown,omitempty"`
	CreatedBy      *Creator      `json:"created_by,omitempty"`
	Categories     []CategoryRef `json:"categories"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HasCategory reports whether the project is tagged with the category id or
// name (case-insensitive on the name).
func (p Project) HasCategory(idOrName string) bool {
	for _, c := range p.Categories {
		if c.ID == idOrName || strings.EqualFold(c.Name, idOrName) {
			return true
		}
	}
	return false
}

// newWindow is how long a project carries the "new" badge.
const newWindow = 3 * 24 * time.Hour

// IsNew reports whether createdAt is within the "new" window relative to now.
// A zero createdAt is never new.
func IsNew(createdAt, now time.Time) bool {
	if createdAt.IsZero() {
		return false
	}
	return now.Sub(createdAt) < newWindow
}

// Category is one entry of the flat, read-only taxonomy.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Pagination is the page metadata reported by the backend.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Page < p.Pages }

// FeedPage is one immutable page of the project feed.
type FeedPage struct {
	Projects   []Project  `json:"projects"`
	Pagination Pagination `json:"pagination"`
}

// SearchResult is the flat, unpaginated search response.
type SearchResult struct {
	Projects []Project `json:"projects"`
}

// Stats are the site-wide aggregates shown on the landing page.
type Stats struct {
	UniqueVoters  int `json:"uniqueVoters"`
	TotalVotes    int `json:"totalVotes"`
	TotalProjects int `json:"totalProjects"`
}

// Home is the landing-page bundle: the first feed page plus the taxonomy and
// aggregates, fetched together.
type Home struct {
	Feed       *FeedPage  `json:"feed"`
	Categories []Category `json:"categories"`
	Stats      *Stats     `json:"stats"`
}
