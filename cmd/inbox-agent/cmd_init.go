package main

import (
	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
)

// newInitCmd implements `init setup` (§6): initialize storage and run the
// forward-only migrations, seeding the built-in rule set on a first run
// (newApp's storeRulesProvider does the seeding). Exits 0 on success, 1 on
// failure (spec.md's literal wording for this one subcommand).
func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{Use: "init"}

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Initialize storage and directories",
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

			cmd.Println("storage initialized")
			return nil
		},
	}

	initCmd.AddCommand(setup)
	return initCmd
}
