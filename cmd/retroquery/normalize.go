package main

import (
	"github.com/spf13/cobra"

	"github.com/cookedzera/RetroQuery/internal/identity"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <identifier>...",
	Short: "Classify identifiers without querying the directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

type normalized struct {
	Input      string `json:"input"`
	Kind       string `json:"kind"`
	Normalized string `json:"normalizedValue"`
	Userkey    string `json:"userkey,omitempty"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	out := make([]normalized, 0, len(args))
	for _, raw := range args {
		d := identity.Normalize(raw)
		out = append(out, normalized{
			Input:      raw,
			Kind:       string(d.Kind),
			Normalized: d.Value,
			Userkey:    d.Userkey(),
		})
	}
	return writeJSON(cmd.OutOrStdout(), out, false)
}
