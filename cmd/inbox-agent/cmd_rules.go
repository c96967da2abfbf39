package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/rules"
	"github.com/ignite/inbox-agent/internal/store"
)

// newRulesCmd implements `rules list | add FILE | remove ID | test ID
// --against FILE` (§6): rule management against the Store's rule set.
func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{Use: "rules"}

	rulesCmd.AddCommand(
		newRulesListCmd(),
		newRulesAddCmd(),
		newRulesRemoveCmd(),
		newRulesTestCmd(),
	)
	return rulesCmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
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

			rs, err := a.store.ListRules(cmd.Context(), false)
			if err != nil {
				return fail(exitStorageError, err)
			}
			for _, r := range rs {
				status := "enabled"
				if !r.Enabled {
					status = "disabled"
				}

				// §4.6/§10: surface the rolling accuracy TrackRuleMatch has
				// accumulated for this rule, so a maintainer can see which
				// learned/hand-written rules are earning their keep.
				perfStr := "no matches yet"
				perf, err := a.store.GetRulePerformance(cmd.Context(), r.ID)
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return fail(exitStorageError, err)
				}
				if err == nil {
					perfStr = fmt.Sprintf("%d matches, %.0f%% accuracy", perf.Matches, perf.Accuracy*100)
					if perf.SuggestDisable() {
						perfStr += " (suggest disable)"
					} else if perf.SuggestEnable() {
						perfStr += " (suggest enable)"
					}
				}
				cmd.Printf("%s\t[%d]\t%s\t(%s)\t%s\n", r.ID, r.Priority, r.Name, status, perfStr)
			}
			return nil
		},
	}
}

func newRulesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE",
		Short: "Add a rule from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r domain.Rule
			if err := loadJSON(args[0], &r); err != nil {
				return fail(exitUserError, err)
			}

			cfg, err := config.LoadFromEnv(configPath)
			if err != nil {
				return fail(exitUserError, err)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fail(exitUserError, err)
			}
			defer a.Close()

			if err := a.store.PutRule(cmd.Context(), &r); err != nil {
				return fail(exitStorageError, err)
			}
			if err := a.rulesProv.Reload(cmd.Context()); err != nil {
				return fail(exitStorageError, err)
			}
			cmd.Printf("added rule %s\n", r.ID)
			return nil
		},
	}
}

func newRulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
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

			if err := a.store.DeleteRule(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fail(exitUserError, err)
				}
				return fail(exitStorageError, err)
			}
			if err := a.rulesProv.Reload(cmd.Context()); err != nil {
				return fail(exitStorageError, err)
			}
			cmd.Printf("removed rule %s\n", args[0])
			return nil
		},
	}
}

func newRulesTestCmd() *cobra.Command {
	var against string

	cmd := &cobra.Command{
		Use:   "test ID",
		Short: "Explain how a rule evaluates against a sample message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if against == "" {
				return fail(exitUserError, errors.New("--against FILE is required"))
			}

			var m domain.Message
			if err := loadJSON(against, &m); err != nil {
				return fail(exitUserError, err)
			}

			cfg, err := config.LoadFromEnv(configPath)
			if err != nil {
				return fail(exitUserError, err)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fail(exitUserError, err)
			}
			defer a.Close()

			r, err := a.store.GetRule(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fail(exitUserError, err)
				}
				return fail(exitStorageError, err)
			}

			result := rules.Explain(*r, &m)
			cmd.Printf("rule %s applies=%v\n", result.RuleID, result.Applies)
			for _, c := range result.Conditions {
				cmd.Printf("  [%d] %s %s %q matched=%v\n", c.Index, c.Field, c.Operator, c.Value, c.Matches)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&against, "against", "", "path to a JSON file holding the sample message")
	return cmd
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
