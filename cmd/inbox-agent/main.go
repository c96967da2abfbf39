// Command inbox-agent is the CLI entry point for the personal email
// intelligence agent (§6): init/pull/triage/brief/rules/feedback
// subcommands wrapping the scheduler/store/analyzer pipeline built in
// internal/.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes (§6): 0 ok, 1 user error (bad input/flags/not-ready), 2
// storage error, 3 external service error (connector/LLM/export).
const (
	exitOK            = 0
	exitUserError     = 1
	exitStorageError  = 2
	exitExternalError = 3
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "inbox-agent",
		Short:         "Personal email intelligence agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(
		newInitCmd(),
		newPullCmd(),
		newTriageCmd(),
		newBriefCmd(),
		newRulesCmd(),
		newFeedbackCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitErr pairs an error with the exit code its RunE wants main to return,
// since cobra itself only knows success/failure.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func fail(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitErr{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitErr
	if eerr, ok := err.(*exitErr); ok {
		ee = eerr
	} else {
		return exitUserError
	}
	return ee.code
}
