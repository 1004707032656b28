package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/harness"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List registered validation checks",
	Long: `List every registered validation check with its acquisition mode and the
size of its builtin expected-failure registry.`,
	Example: `  cmip6qc checks
  cmip6qc checks --verbose   # also prints every registry entry`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs := harness.DefaultChecks(nil)

		printSimpleTable(cmd.OutOrStdout(), []string{"CHECK", "CATALOG", "EXPECTED FAILURES"}, func(add func(...string)) {
			for _, d := range defs {
				catalogMode := "no"
				if d.UseCatalog {
					catalogMode = "yes"
				}
				add(d.Name, catalogMode, itoa(d.Registry.Len()))
			}
		})

		if globalFlags.Verbose {
			for _, d := range defs {
				for _, s := range d.Registry.Specs() {
					cmd.Printf("%s: %s\n", d.Name, s)
				}
			}
		}
		return nil
	},
}

// checkNames returns the names of all registered checks, in table order.
func checkNames() []string {
	defs := harness.DefaultChecks(nil)
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func init() {
	rootCmd.AddCommand(checksCmd)
}
