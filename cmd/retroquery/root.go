package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cookedzera/RetroQuery/internal/app"
	"github.com/cookedzera/RetroQuery/internal/config"
	"github.com/cookedzera/RetroQuery/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "retroquery",
	Short: "RetroQuery - reputation queries from the command line",
	Long: `RetroQuery resolves social and on-chain identities against the reputation
directory and answers structured queries about them. When the directory is
unreachable it falls back to the generated mock dataset and then to the
bundled static dataset.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// buildApp assembles the engine from the environment. Logs go to stderr so
// stdout stays machine readable.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(ctx, cfg, logging.New(cfg.Logging))
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
