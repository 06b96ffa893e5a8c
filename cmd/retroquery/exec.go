package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cookedzera/RetroQuery/internal/engine"
)

var (
	execParams  []string
	execCompact bool
)

// errIntentFailed is returned after a failed envelope has been printed so
// the process exits non-zero without repeating the message.
var errIntentFailed = errors.New("intent failed")

var execCmd = &cobra.Command{
	Use:   "exec <intent>",
	Short: "Execute an intent",
	Long: `Execute one intent and print the response envelope as JSON.

Examples:
  retroquery exec user_profile -p userkey=cookedzera
  retroquery exec user_comparison -p userkeys=cookedzera,vitalik.eth
  retroquery exec activity_history -p userkey=0xabc... -p timeframe=week`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "intent parameter as key=value (repeatable)")
	execCmd.Flags().BoolVar(&execCompact, "compact", false, "print the envelope on a single line")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	params, err := engine.ParseAssignments(execParams)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	env := a.Dispatcher.Execute(ctx, args[0], params)
	if err := writeJSON(cmd.OutOrStdout(), env, execCompact); err != nil {
		return err
	}
	if !env.Success {
		cmd.SilenceErrors = true
		return errIntentFailed
	}
	return nil
}
