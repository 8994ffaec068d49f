package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/vote"
)

func newVoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <project-id> for|against",
		Short: "Vote on a project",
		Long: `Casts a vote. Voting the same way twice removes the vote; voting the
other way switches it. Requires a session token. Use feed --vote to see
the new tally in the loaded feed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := domain.VoteType(strings.ToUpper(strings.TrimSpace(args[1])))
			if !d.Valid() {
				return fmt.Errorf("vote must be \"for\" or \"against\", got %q", args[1])
			}
			ctx := cmd.Context()
			if _, err := a.session.Load(ctx); err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			out := cmd.OutOrStdout()
			notify := vote.NotifierFunc(func(l vote.Level, text string) {
				fmt.Fprintf(out, "[%s] %s\n", l, text)
			})
			p := vote.New(a.client, a.session, nil, notify)

			res, err := p.Cast(ctx, args[0], d)
			if errors.Is(err, vote.ErrAuthRequired) {
				return errors.New("not signed in")
			}
			if err != nil {
				return err
			}
			renderTally(out, res)
			return nil
		},
	}
}
