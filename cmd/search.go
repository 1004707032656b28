package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/harness"
)

var searchCmd = &cobra.Command{
	Use:   "search <MODEL|VARIABLE|EXPERIMENT|GRID_LABEL>",
	Short: "Search the catalog for a test specification",
	Long: `Look up the catalog entries behind a single test specification. The
argument uses the canonical pipe-separated spec form. Useful for checking
why a case skipped and which store object a check actually read.`,
	Example: `  cmip6qc search "CESM2-FV2|thetao|historical|gn"
  cmip6qc search "GFDL-CM4|o2|ssp585|gn" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}

		spec, err := harness.ParseSpec(args[0])
		if err != nil {
			return err
		}

		entries, err := deps.Client.Search(cmd.Context(), catalog.Query{
			SourceID:     spec.SourceID,
			VariableID:   spec.VariableID,
			ExperimentID: spec.ExperimentID,
			GridLabel:    spec.GridLabel,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no data found for %s\n", spec)
			return nil
		}

		format := resolveFormat(deps.Config.Format)
		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		default:
			printSimpleTable(cmd.OutOrStdout(), []string{"ZSTORE", "MEMBER", "TABLE", "VERSION"}, func(add func(...string)) {
				for _, e := range entries {
					add(e.ZStore, e.MemberID, e.TableID, e.Version)
				}
			})
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
