package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show site-wide totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Projects: %d\n", st.TotalProjects)
			fmt.Fprintf(out, "Votes:    %d\n", st.TotalVotes)
			fmt.Fprintf(out, "Voters:   %d\n", st.UniqueVoters)
			return nil
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List project categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cats {
				fmt.Fprintf(out, "%-24s %s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.session.Load(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				_, err := a.session.BeginAuth()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (can vote: %t, admin: %t)\n", u.Username, u.CanVote, u.IsAdmin)
			return nil
		},
	}
}
