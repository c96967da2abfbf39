package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/scheduler"
	"github.com/ignite/inbox-agent/internal/store"
)

// newBriefCmd implements `brief [--date YYYY-MM-DD]` (§6): generate the
// narrative brief for a date, defaulting to today in UTC.
func newBriefCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Generate narrative brief for a date",
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

			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}

			b, err := a.sched.BriefForDate(cmd.Context(), date)
			if err != nil {
				if errors.Is(err, scheduler.ErrBriefNotReady) {
					cmd.Println("brief not ready: not every message received that day is analyzed yet")
					return fail(exitUserError, err)
				}
				return fail(briefExitCode(err), err)
			}

			cmd.Printf("%s — %s\n", b.DateUTC, b.Headline)
			cmd.Println(b.Narrative)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, UTC) to generate the brief for, default today")
	return cmd
}

func briefExitCode(err error) int {
	var se *store.StorageError
	if errors.As(err, &se) {
		return exitStorageError
	}
	var pe *time.ParseError
	if errors.As(err, &pe) {
		return exitUserError // malformed --date
	}
	return exitStorageError
}
