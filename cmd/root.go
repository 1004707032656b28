// Package cmd implements the cmip6qc CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/app"
	"github.com/oceandata/cmip6qc/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Token   string
	BaseURL string
	Format  string
	Out     string
	NoCache bool
	Refresh bool
	Timeout string
	Rate    float64
	DBPath  string
	Quiet   bool
	Verbose bool
	Debug   bool
}

// rootCmd is the base command. Running `cmip6qc` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "cmip6qc",
	Short: "cmip6qc — CMIP6 dataset quality-control harness",
	Long: `cmip6qc validates preprocessed CMIP6 ocean/atmosphere model output against
a set of structural invariants: coordinate ordering, geographic ranges,
bounds/vertex layout, and staggered-grid metric completeness.

Datasets are pulled from a QC gateway that fronts the cloud data catalog,
the preprocessing pipeline, and the staggered-grid builder. Known data
quality issues are tracked per check in expected-failure registries with
strict semantics: a registered failure that stops failing is itself
reported as a failure.

Quick start:
  cmip6qc config init                  # create a config.json
  cmip6qc models                       # list models known to the catalog
  cmip6qc run                          # run all checks over the default matrix
  cmip6qc run dim-coords -m GFDL-CM4   # one check, one model`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configureLogging installs the default slog handler at the level implied by
// the verbosity flags. Diagnostics (duplicate coordinate dumps, HTTP traces)
// go to stderr so report output stays clean on stdout.
func configureLogging() {
	level := slog.LevelWarn
	switch {
	case globalFlags.Debug:
		level = slog.LevelDebug
	case globalFlags.Verbose:
		level = slog.LevelInfo
	case globalFlags.Quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.Token)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.NoCache = globalFlags.NoCache
	cfg.Refresh = globalFlags.Refresh
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.BaseURL != "" {
		cfg.BaseURL = globalFlags.BaseURL
	}
	if globalFlags.DBPath != "" {
		cfg.DBPath = globalFlags.DBPath
	}
	if globalFlags.Timeout != "" {
		if d, err2 := time.ParseDuration(globalFlags.Timeout); err2 == nil {
			cfg.Timeout = d
		}
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}

	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Token, "token", "",
		"gateway bearer token (overrides env CMIP6QC_TOKEN and config.json)")
	pf.StringVar(&globalFlags.BaseURL, "base-url", "",
		"QC gateway base URL (overrides env CMIP6QC_BASE_URL and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.NoCache, "no-cache", false,
		"bypass cache reads (still writes results to cache)")
	pf.BoolVar(&globalFlags.Refresh, "refresh", false,
		"force re-fetch and overwrite cached entries")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"gateway request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max gateway requests per second (default: 5.0)")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"path of the local bbolt store (default: ~/.cmip6qc/cmip6qc.db)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"log case progress and run stats")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses (token redacted)")
}
