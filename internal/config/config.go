// Package config handles loading and resolving cmip6qc configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--token, --base-url, ...)
//  2. Environment variables (CMIP6QC_TOKEN, CMIP6QC_DB_PATH, ...)
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultTimeout    = 60 * time.Second
	DefaultRate       = 5.0
	EnvToken          = "CMIP6QC_TOKEN"
	EnvBaseURL        = "CMIP6QC_BASE_URL"
	EnvDBPath         = "CMIP6QC_DB_PATH"
)

// File is the on-disk representation of config.json.
type File struct {
	Token         string   `json:"token"`
	DefaultFormat string   `json:"default_format"`
	Timeout       string   `json:"timeout"`
	Rate          float64  `json:"rate"`
	BaseURL       string   `json:"base_url"`
	DBPath        string   `json:"db_path"`
	AssetDir      string   `json:"asset_dir"`
	XFailFile     string   `json:"xfail_file"`
	Models        []string `json:"models"`
	Variables     []string `json:"variables"`
	Experiments   []string `json:"experiments"`
	GridLabels    []string `json:"grid_labels"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Token      string
	Format     string
	Timeout    time.Duration
	Rate       float64
	BaseURL    string
	DBPath     string
	AssetDir   string
	XFailFile  string
	ConfigPath string // path of the config.json that was loaded (empty if none found)

	// Default matrix parameters; CLI flags override per run.
	Models      []string
	Variables   []string
	Experiments []string
	GridLabels  []string

	// Runtime overrides set from CLI flags after Load()
	NoCache bool
	Refresh bool
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagToken is the value of --token (empty string if not set).
func Load(flagToken string) (*Config, error) {
	cfg := &Config{
		Format:      DefaultFormat,
		Timeout:     DefaultTimeout,
		Rate:        DefaultRate,
		BaseURL:     "https://qc.ocean-data.io/cmip6/",
		Variables:   []string{"thetao"},
		Experiments: []string{"historical", "ssp585"},
		GridLabels:  []string{"gn"},
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagToken != "" {
		cfg.Token = flagToken
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".cmip6qc", "cmip6qc.db")
		}
	}

	return cfg, nil
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s", path)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.Token != "" {
		cfg.Token = f.Token
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.AssetDir != "" {
		cfg.AssetDir = f.AssetDir
	}
	if f.XFailFile != "" {
		cfg.XFailFile = f.XFailFile
	}
	if len(f.Models) > 0 {
		cfg.Models = f.Models
	}
	if len(f.Variables) > 0 {
		cfg.Variables = f.Variables
	}
	if len(f.Experiments) > 0 {
		cfg.Experiments = f.Experiments
	}
	if len(f.GridLabels) > 0 {
		cfg.GridLabels = f.GridLabels
	}
}

// RedactedToken returns the token with all but the last 4 characters masked.
func (c *Config) RedactedToken() string {
	if c.Token == "" {
		return ""
	}
	if len(c.Token) <= 4 {
		return "****"
	}
	return "****" + c.Token[len(c.Token)-4:]
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `cmip6qc config init`.
func Template() File {
	return File{
		Token:         "",
		DefaultFormat: "table",
		Timeout:       "60s",
		Rate:          DefaultRate,
		BaseURL:       "https://qc.ocean-data.io/cmip6/",
		Variables:     []string{"thetao"},
		Experiments:   []string{"historical", "ssp585"},
		GridLabels:    []string{"gn"},
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
