package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/app"
	"github.com/oceandata/cmip6qc/internal/harness"
	"github.com/oceandata/cmip6qc/internal/report"
)

var (
	runModels      []string
	runVariables   []string
	runExperiments []string
	runGridLabels  []string
	runAllModels   bool
	runXFailFile   string
	runNoStore     bool
)

var runCmd = &cobra.Command{
	Use:   "run [CHECK...]",
	Short: "Run validation checks over the test matrix",
	Long: `Run validation checks over every combination of the supplied models,
variables, experiments, and grid labels. With no CHECK arguments, all
registered checks run; name checks to restrict the run.

Parameter flags are repeatable; a single value behaves exactly like a
one-element list. Flags left unset fall back to the defaults in
config.json.

Each (check, spec) case has one of five outcomes:
  PASS    all invariants hold
  FAIL    an invariant is violated
  SKIP    the catalog holds no data for the spec
  XFAIL   a registered expected failure failed, as it must
  XPASS   a registered expected failure passed — a stale registry entry,
          counted as a failure

The exit code is 1 when any case ends FAIL or XPASS.`,
	Example: `  cmip6qc run
  cmip6qc run dim-coords
  cmip6qc run -m CESM2-FV2 -m GFDL-CM4 -v thetao -e historical -g gn
  cmip6qc run bounds-vertices --all-models --format md --out report.md`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}

		if !runNoStore {
			if err := deps.RequireStore(); err != nil {
				return err
			}
			defer deps.Close()
		}

		log := slog.Default()

		// Registry overlay: flag wins over config.json.
		xfailFile := deps.Config.XFailFile
		if runXFailFile != "" {
			xfailFile = runXFailFile
		}
		overlay := map[string]*harness.Registry{}
		if xfailFile != "" {
			overlay, err = harness.LoadRegistryFile(xfailFile)
			if err != nil {
				return err
			}
		}

		defs := harness.SelectChecks(harness.DefaultChecks(overlay), args)
		if len(defs) == 0 {
			return fmt.Errorf("no checks match %q (available: %s)",
				strings.Join(args, ", "), strings.Join(checkNames(), ", "))
		}

		params, err := resolveParams(cmd, deps)
		if err != nil {
			return err
		}

		runner := &harness.Runner{
			Loader:   deps.Loader(log),
			Combiner: deps.Client,
			Checks:   defs,
			Logger:   log,
		}
		rep, err := runner.Run(cmd.Context(), params)
		if err != nil {
			return err
		}

		if deps.Store != nil {
			if err := deps.Store.PutRun(rep); err != nil {
				log.Warn("persisting run report failed", "run_id", rep.RunID, "err", err)
			}
		}

		format := resolveFormat(deps.Config.Format)
		if err := report.RenderTo(cmd.OutOrStdout(), globalFlags.Out, rep, format); err != nil {
			return err
		}
		report.PrintFooter(cmd.OutOrStdout(), rep, deps.Config.Verbose)

		if n := rep.Summary.FailureCount(); n > 0 {
			return fmt.Errorf("%d of %d cases failed", n, rep.Summary.Total)
		}
		return nil
	},
}

// resolveParams merges the repeatable parameter flags with config defaults
// and, with --all-models, the full catalog model list.
func resolveParams(cmd *cobra.Command, deps *app.Deps) (harness.Params, error) {
	params := harness.Params{
		Models:      runModels,
		Variables:   runVariables,
		Experiments: runExperiments,
		GridLabels:  runGridLabels,
	}
	if runAllModels {
		models, err := deps.Client.Models(cmd.Context())
		if err != nil {
			return harness.Params{}, fmt.Errorf("listing catalog models: %w", err)
		}
		params.Models = models
	}
	if len(params.Models) == 0 {
		params.Models = deps.Config.Models
	}
	if len(params.Models) == 0 {
		params.Models = harness.DefaultModels
	}
	if len(params.Variables) == 0 {
		params.Variables = deps.Config.Variables
	}
	if len(params.Experiments) == 0 {
		params.Experiments = deps.Config.Experiments
	}
	if len(params.GridLabels) == 0 {
		params.GridLabels = deps.Config.GridLabels
	}
	params.Normalize()
	return params, nil
}

func init() {
	runCmd.Flags().StringSliceVarP(&runModels, "model", "m", nil,
		"model (source_id) to test; repeatable")
	runCmd.Flags().StringSliceVarP(&runVariables, "variable", "v", nil,
		"variable_id to test; repeatable")
	runCmd.Flags().StringSliceVarP(&runExperiments, "experiment", "e", nil,
		"experiment_id to test; repeatable")
	runCmd.Flags().StringSliceVarP(&runGridLabels, "grid-label", "g", nil,
		"grid_label to test; repeatable")
	runCmd.Flags().BoolVar(&runAllModels, "all-models", false,
		"expand the matrix over every model in the catalog")
	runCmd.Flags().StringVar(&runXFailFile, "xfail-file", "",
		"YAML overlay of expected failures merged into the builtin registries")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false,
		"run without the local store (no caching, report not persisted)")

	rootCmd.AddCommand(runCmd)
}
