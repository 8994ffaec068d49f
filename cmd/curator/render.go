package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/feed"
)

var titler = cases.Title(language.English)

// roleLabel turns "FULL_ACCESS" into "Full Access".
func roleLabel(r domain.Role) string {
	return titler.String(strings.ReplaceAll(string(r), "_", " "))
}

func renderFeed(w io.Writer, v feed.View) {
	if len(v.Projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	now := time.Now()
	for _, p := range v.Projects {
		badge := ""
		if domain.IsNew(p.CreatedAt, now) {
			badge = " [NEW]"
		}
		names := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			names = append(names, c.Name)
		}
		fmt.Fprintf(w, "%-26s %-9s +%d/-%d%s  %s\n",
			p.ID, p.Status, p.VotesFor, p.VotesAgainst, badge, p.Name)
		if len(names) > 0 {
			fmt.Fprintf(w, "%26s %s\n", "", strings.Join(names, ", "))
		}
	}
	more := ""
	if v.HasNext {
		more = " (more available)"
	}
	fmt.Fprintf(w, "%d projects%s\n", len(v.Projects), more)
}

func renderTally(w io.Writer, res *domain.VoteResult) {
	fmt.Fprintf(w, "For: %d  Against: %d\n", res.Stats.VotesFor, res.Stats.VotesAgainst)
	if res.VotesBreakdown == nil {
		return
	}
	for _, rv := range *res.VotesBreakdown {
		fmt.Fprintf(w, "  %-12s +%d/-%d\n", roleLabel(rv.Role), rv.VotesFor, rv.VotesAgainst)
	}
}
