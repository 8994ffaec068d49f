// Command curator is a terminal client for the curation gateway. It pages
// through the feed, casts votes and shows the catalog, talking to the proxy
// with the session cookie from CURATOR_TOKEN.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/session"
	"github.com/tbourn/go-curation-gateway/internal/sysutil"
)

// app is the state shared by every subcommand, built in PersistentPreRunE.
type app struct {
	client  *gateway.Client
	session *session.Store
}

type rootFlags struct {
	baseURL string
	token   string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     app
	)
	root := &cobra.Command{
		Use:           "curator",
		Short:         "Browse and vote on curated projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if flags.verbose {
				level = "debug"
			}
			sysutil.SetLogLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})

			if flags.baseURL == "" {
				return fmt.Errorf("no gateway URL: set --url or CURATOR_URL")
			}
			a.client = gateway.New(gateway.Options{
				Name:    "proxy",
				BaseURL: flags.baseURL,
				Timeout: flags.timeout,
				Auth:    gateway.AuthCookie,
			})
			a.session = session.New(a.client, flags.token, func(u string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Sign in first: %s\n", u)
				return err
			})
			log.Debug().Str("url", flags.baseURL).Bool("token", flags.token != "").Msg("client ready")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "url", sysutil.FirstNonEmpty(os.Getenv("CURATOR_URL"), "http://localhost:8080"), "gateway base URL")
	pf.StringVar(&flags.token, "token", os.Getenv("CURATOR_TOKEN"), "session token (defaults to CURATOR_TOKEN)")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "per-request timeout (0 disables)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newFeedCmd(&a),
		newVoteCmd(&a),
		newStatsCmd(&a),
		newCategoriesCmd(&a),
		newWhoamiCmd(&a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
