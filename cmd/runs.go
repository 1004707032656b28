package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved run reports",
	Long: `Every 'cmip6qc run' stores its report in the local database unless
--no-store is given. These commands list, replay, and delete the saved
reports.

  cmip6qc runs list
  cmip6qc runs show <RUN_ID>
  cmip6qc runs delete <RUN_ID>`,
}

// ─── runs list ────────────────────────────────────────────────────────────────

var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all saved run reports",
	Example: `  cmip6qc runs list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		reports, err := deps.Store.ListRuns()
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(reports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs saved.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: cmip6qc run")
			return nil
		}

		printSimpleTable(cmd.OutOrStdout(), []string{"RUN", "STARTED", "CASES", "FAILED", "SKIPPED"}, func(add func(...string)) {
			for _, r := range reports {
				add(
					r.RunID,
					r.StartedAt.Format("2006-01-02 15:04"),
					itoa(r.Summary.Total),
					itoa(r.Summary.FailureCount()),
					itoa(r.Summary.Skipped),
				)
			}
		})
		return nil
	},
}

// ─── runs show ────────────────────────────────────────────────────────────────

var runsShowCmd = &cobra.Command{
	Use:   "show <RUN_ID>",
	Short: "Show a saved run report",
	Long: `Re-render a saved report in the requested format. The original case
outcomes and timings are preserved exactly as recorded.`,
	Example: `  cmip6qc runs show 6df1c0f2-...
  cmip6qc runs show 6df1c0f2-... --format md --out report.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		rep, ok, err := deps.Store.GetRun(args[0])
		if err != nil {
			return fmt.Errorf("reading run: %w", err)
		}
		if !ok {
			return fmt.Errorf("run %q not found", args[0])
		}

		format := resolveFormat(deps.Config.Format)
		if err := report.RenderTo(cmd.OutOrStdout(), globalFlags.Out, rep, format); err != nil {
			return err
		}
		report.PrintFooter(cmd.OutOrStdout(), rep, deps.Config.Verbose)
		return nil
	},
}

// ─── runs delete ──────────────────────────────────────────────────────────────

var runsDeleteCmd = &cobra.Command{
	Use:     "delete <RUN_ID>",
	Short:   "Delete a saved run report",
	Example: `  cmip6qc runs delete 6df1c0f2-...`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		rep, ok, err := deps.Store.GetRun(args[0])
		if err != nil {
			return fmt.Errorf("reading run: %w", err)
		}
		if !ok {
			return fmt.Errorf("run %q not found", args[0])
		}

		if err := deps.Store.DeleteRun(args[0]); err != nil {
			return fmt.Errorf("deleting run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s  (%d cases, %s)\n",
			rep.RunID, rep.Summary.Total, rep.StartedAt.Format(time.RFC3339))
		return nil
	},
}

// ─── runs export ──────────────────────────────────────────────────────────────

var runsExportCmd = &cobra.Command{
	Use:     "export <RUN_ID>",
	Short:   "Dump a saved run report as raw JSON",
	Example: `  cmip6qc runs export 6df1c0f2-... > run.json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		rep, ok, err := deps.Store.GetRun(args[0])
		if err != nil {
			return fmt.Errorf("reading run: %w", err)
		}
		if !ok {
			return fmt.Errorf("run %q not found", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.AddCommand(runsExportCmd)
}
