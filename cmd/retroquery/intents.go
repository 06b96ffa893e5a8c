package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cookedzera/RetroQuery/internal/engine"
)

var intentsJSON bool

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List supported intents and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runIntents,
}

func init() {
	intentsCmd.Flags().BoolVar(&intentsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(intentsCmd)
}

func runIntents(cmd *cobra.Command, _ []string) error {
	// The catalogue does not depend on any data source.
	intents := engine.New(engine.Deps{}).Intents()
	if intentsJSON {
		return writeJSON(cmd.OutOrStdout(), intents, false)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INTENT\tREQUIRED\tOPTIONAL")
	for _, info := range intents {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, orDash(info.Required), orDash(info.Optional))
	}
	return tw.Flush()
}

func orDash(params []string) string {
	if len(params) == 0 {
		return "-"
	}
	return strings.Join(params, ", ")
}
