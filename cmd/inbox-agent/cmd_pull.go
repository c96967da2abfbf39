package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/connector"
	"github.com/ignite/inbox-agent/internal/store"
)

// newPullCmd implements `pull [--since DURATION] [--max N]` (§6): run a
// single pull cycle against the configured connector.
func newPullCmd() *cobra.Command {
	var since time.Duration
	var max int

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Run a single pull cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv(configPath)
			if err != nil {
				return fail(exitUserError, err)
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fail(exitUserError, err)
			}
			defer a.Close()

			if since > 0 {
				if err := a.store.SetWatermark(cmd.Context(), "fixture", time.Now().Add(-since)); err != nil {
					return fail(exitStorageError, err)
				}
			}

			n, err := a.sched.PullOnce(cmd.Context())
			if err != nil {
				return fail(pullExitCode(err), err)
			}

			// The Connector contract (§6) has no paging/limit parameter, so
			// --max can only bound what this command reports, not what the
			// connector returned and the pull phase already persisted.
			reported := n
			if max > 0 && reported > max {
				reported = max
			}
			cmd.Printf("pulled %d message(s)\n", reported)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "override the watermark to pull messages received since this long ago")
	cmd.Flags().IntVar(&max, "max", 0, "cap the reported pulled count (0 = unbounded)")
	return cmd
}

func pullExitCode(err error) int {
	switch {
	case errors.Is(err, connector.ErrAuth), errors.Is(err, connector.ErrPermanent), errors.Is(err, connector.ErrTransient):
		return exitExternalError
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrAlreadyExists):
		return exitStorageError
	default:
		var se *store.StorageError
		if errors.As(err, &se) {
			return exitStorageError
		}
		return exitExternalError
	}
}
