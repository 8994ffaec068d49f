package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/feed"
	"github.com/tbourn/go-curation-gateway/internal/utils"
	"github.com/tbourn/go-curation-gateway/internal/validation"
	"github.com/tbourn/go-curation-gateway/internal/vote"
)

// Caps keep a typo from walking the whole backend.
const (
	maxPages = 50
	maxLimit = 100
)

type feedFlags struct {
	categories []string
	onlyNew    bool
	pages      int
	limit      int
	query      string
	scams      bool
	votes      []string
	deletes    []string
}

func newFeedCmd(a *app) *cobra.Command {
	var f feedFlags
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List projects, loading more pages on request",
		Long: `Lists the project feed for the given filters. --pages loads that many
pages the way scrolling would, stopping early when the feed runs out.
A --query switches to search and ignores the other filters. At most three
categories are used; extra ones are dropped with a warning.

--vote id:for|against casts votes once the pages are loaded and --delete id
removes projects you own. The loaded feed is printed again afterwards with
the confirmed changes applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeed(cmd, a, f)
		},
	}
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category id (repeatable)")
	cmd.Flags().BoolVar(&f.onlyNew, "only-new", false, "only projects from the last 3 days")
	cmd.Flags().IntVar(&f.pages, "pages", 1, "pages to load")
	cmd.Flags().IntVar(&f.limit, "limit", utils.AtoiDefault(os.Getenv("CURATOR_LIMIT"), feed.DefaultLimit), "projects per page")
	cmd.Flags().StringVar(&f.query, "query", "", "search instead of paging")
	cmd.Flags().BoolVar(&f.scams, "scams", false, "show only projects flagged SCAM")
	cmd.Flags().StringArrayVar(&f.votes, "vote", nil, "vote after loading, as id:for or id:against (repeatable)")
	cmd.Flags().StringArrayVar(&f.deletes, "delete", nil, "delete a project after loading (repeatable)")
	return cmd
}

type voteArg struct {
	projectID string
	dir       domain.VoteType
}

func parseVotes(raw []string) ([]voteArg, error) {
	out := make([]voteArg, 0, len(raw))
	for _, r := range raw {
		i := strings.LastIndexByte(r, ':')
		if i <= 0 {
			return nil, fmt.Errorf("--vote %q: want id:for or id:against", r)
		}
		d := domain.VoteType(strings.ToUpper(strings.TrimSpace(r[i+1:])))
		if !d.Valid() {
			return nil, fmt.Errorf("--vote %q: direction must be \"for\" or \"against\"", r)
		}
		out = append(out, voteArg{projectID: strings.TrimSpace(r[:i]), dir: d})
	}
	return out, nil
}

// categoryFilter applies the same three-category cap as the project form.
func categoryFilter(w io.Writer, raw []string) []string {
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, strings.TrimSpace(id))
	}
	sel := validation.NewSelection(ids...)
	for _, id := range ids {
		if id != "" && !sel.Has(id) {
			fmt.Fprintf(w, "warning: ignoring category %q, at most %d can be selected\n", id, validation.MaxCategories)
		}
	}
	return sel.IDs()
}

func runFeed(cmd *cobra.Command, a *app, f feedFlags) error {
	ctx := cmd.Context()
	votes, err := parseVotes(f.votes)
	if err != nil {
		return err
	}
	f.pages = utils.ClampInt(f.pages, 1, maxPages)
	f.limit = utils.ClampInt(f.limit, 1, maxLimit)
	key := feed.NewKey(categoryFilter(cmd.ErrOrStderr(), f.categories), f.onlyNew, f.query)
	if f.scams {
		key.Status = domain.StatusScam
	}

	loop := feed.New(a.client, nil, feed.Options{Limit: f.limit, Interval: -1})
	loop.Start(ctx, key)
	defer loop.Close()

	if err := loop.Settle(ctx); err != nil {
		return err
	}
	for i := 1; i < f.pages; i++ {
		v, err := loop.Snapshot(ctx)
		if err != nil {
			return err
		}
		if !v.HasNext || v.Err != nil {
			break
		}
		if err := loop.Sentinel(ctx); err != nil {
			return err
		}
		if err := loop.Settle(ctx); err != nil {
			return err
		}
	}

	v, err := loop.Snapshot(ctx)
	if err != nil {
		return err
	}
	if v.Err != nil {
		return fmt.Errorf("load feed: %w", v.Err)
	}
	out := cmd.OutOrStdout()
	renderFeed(out, v)
	if len(votes) == 0 && len(f.deletes) == 0 {
		return nil
	}

	if _, err := a.session.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if a.session.Current() == nil {
		if _, err := a.session.BeginAuth(); err != nil {
			log.Debug().Err(err).Msg("open sign-in")
		}
		return errors.New("not signed in")
	}
	notify := vote.NotifierFunc(func(l vote.Level, text string) {
		fmt.Fprintf(out, "[%s] %s\n", l, text)
	})
	p := vote.New(a.client, a.session, loop, notify)
	for _, va := range votes {
		if _, err := p.Cast(ctx, va.projectID, va.dir); err != nil {
			return fmt.Errorf("vote %s: %w", va.projectID, err)
		}
	}
	for _, id := range f.deletes {
		if err := a.client.DeleteProject(ctx, a.session.Token(), id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		if err := loop.Deleted(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s\n", id)
	}

	if v, err = loop.Snapshot(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out)
	renderFeed(out, v)
	return nil
}
