package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models (source_ids) known to the catalog",
	Example: `  cmip6qc models
  cmip6qc models --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}

		models, err := deps.Client.Models(cmd.Context())
		if err != nil {
			return err
		}
		sort.Strings(models)
		slog.Debug("catalog models listed", "count", len(models))

		format := resolveFormat(deps.Config.Format)
		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(models)
		default:
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			if deps.Config.Verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d models\n", len(models))
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
