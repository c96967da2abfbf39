package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/store"
)

// newTriageCmd implements `triage [--limit N] [--dry-run]` (§6): run one
// analyze pass over messages still missing the analyzed stamp.
func newTriageCmd() *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Run one analyze pass",
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

			decisions, err := a.sched.TriageBatch(cmd.Context(), limit, dryRun)
			if err != nil {
				return fail(triageExitCode(err), err)
			}

			for _, d := range decisions {
				cmd.Printf("%s -> %s (score=%.2f urgency=%s)\n", d.MessageID, d.Bucket, d.FinalScore, d.Urgency)
			}
			cmd.Printf("triaged %d message(s)", len(decisions))
			if dryRun {
				cmd.Printf(" (dry run, nothing persisted)")
			}
			cmd.Println()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max messages to triage this run (0 = default of 100)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute decisions without persisting them")
	return cmd
}

func triageExitCode(err error) int {
	var se *store.StorageError
	if errors.As(err, &se) || errors.Is(err, store.ErrNotFound) {
		return exitStorageError
	}
	return exitStorageError
}
