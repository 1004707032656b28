package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oceandata/cmip6qc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cmip6qc configuration",
	Long:  `Read and write cmip6qc configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		tmpl := config.Template()
		if err := config.WriteFile(path, tmpl); err != nil {
			return err
		}
		fmt.Printf("✓ Created %s\n", path)
		fmt.Println("  Edit it and set your token if the gateway requires one.")
		return nil
	},
}

var configGetShowSecrets bool

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.Token)
		if err != nil {
			return err
		}

		token := cfg.RedactedToken()
		if configGetShowSecrets {
			token = cfg.Token
		}
		if token == "" {
			token = "(not set)"
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		switch resolveFormat(cfg.Format) {
		case "json":
			type configOut struct {
				Token       string   `json:"token"`
				Format      string   `json:"default_format"`
				Timeout     string   `json:"timeout"`
				Rate        float64  `json:"rate"`
				BaseURL     string   `json:"base_url"`
				DBPath      string   `json:"db_path"`
				AssetDir    string   `json:"asset_dir"`
				XFailFile   string   `json:"xfail_file"`
				Models      []string `json:"models"`
				Variables   []string `json:"variables"`
				Experiments []string `json:"experiments"`
				GridLabels  []string `json:"grid_labels"`
				ConfigFile  string   `json:"config_file"`
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				Token:       token,
				Format:      cfg.Format,
				Timeout:     cfg.Timeout.String(),
				Rate:        cfg.Rate,
				BaseURL:     cfg.BaseURL,
				DBPath:      cfg.DBPath,
				AssetDir:    cfg.AssetDir,
				XFailFile:   cfg.XFailFile,
				Models:      cfg.Models,
				Variables:   cfg.Variables,
				Experiments: cfg.Experiments,
				GridLabels:  cfg.GridLabels,
				ConfigFile:  src,
			})
		default:
			rows := [][]string{
				{"token", token},
				{"default_format", cfg.Format},
				{"timeout", cfg.Timeout.String()},
				{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
				{"base_url", cfg.BaseURL},
				{"db_path", cfg.DBPath},
				{"asset_dir", orUnset(cfg.AssetDir)},
				{"xfail_file", orUnset(cfg.XFailFile)},
				{"models", orUnset(strings.Join(cfg.Models, ","))},
				{"variables", strings.Join(cfg.Variables, ",")},
				{"experiments", strings.Join(cfg.Experiments, ",")},
				{"grid_labels", strings.Join(cfg.GridLabels, ",")},
				{"config_file", src},
			}
			printKVTable(rows)
			return nil
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Long: `Set a single key in config.json, creating the file from the template if
it does not exist. List-valued keys (models, variables, experiments,
grid_labels) take comma-separated values.`,
	Example: `  cmip6qc config set models CESM2-FV2,GFDL-CM4
  cmip6qc config set timeout 120s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		// Load existing file or start from template
		var f config.File
		existing, path, err := loadConfigFile()
		if err != nil {
			path = config.DefaultConfigFile
			f = config.Template()
		} else {
			f = *existing
		}

		switch key {
		case "token":
			f.Token = val
		case "default_format", "format":
			f.DefaultFormat = val
		case "timeout":
			f.Timeout = val
		case "rate":
			var r float64
			if _, err := fmt.Sscanf(val, "%f", &r); err != nil {
				return fmt.Errorf("rate must be a number")
			}
			f.Rate = r
		case "base_url":
			f.BaseURL = val
		case "db_path":
			f.DBPath = val
		case "asset_dir":
			f.AssetDir = val
		case "xfail_file":
			f.XFailFile = val
		case "models":
			f.Models = splitList(val)
		case "variables":
			f.Variables = splitList(val)
		case "experiments":
			f.Experiments = splitList(val)
		case "grid_labels":
			f.GridLabels = splitList(val)
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: token, default_format, timeout, rate, base_url, db_path, asset_dir, xfail_file, models, variables, experiments, grid_labels", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configGetCmd.Flags().BoolVar(&configGetShowSecrets, "show-secrets", false, "show the token in plain text")
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (*config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", err
	}
	return &f, path, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// printKVTable renders a two-column key/value table to stdout using aligned columns.
func printKVTable(rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Printf("  %s%s  %s\n", r[0], padding, r[1])
	}
}
