package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oceandata/cmip6qc/internal/config"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// writeConfig writes a config.json into dir and changes the working directory
// to dir for the duration of the test.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	// Change working directory so config.Load() finds config.json
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// clearEnv unsets the CMIP6QC_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDBPath, "")
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	// Change to temp dir so no config.json is found
	orig, _ := os.Getwd()
	_ = os.Chdir(dir)
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format: expected %q, got %q", config.DefaultFormat, cfg.Format)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout: expected %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
	if cfg.Rate != config.DefaultRate {
		t.Errorf("Rate: expected %g, got %g", config.DefaultRate, cfg.Rate)
	}
	if cfg.BaseURL == "" {
		t.Error("BaseURL should have a default value")
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should have a default (home dir based) value")
	}
	if len(cfg.Variables) == 0 || cfg.Variables[0] != "thetao" {
		t.Errorf("Variables default: expected [thetao], got %v", cfg.Variables)
	}
	if len(cfg.Experiments) != 2 {
		t.Errorf("Experiments default: expected 2 entries, got %v", cfg.Experiments)
	}
	if len(cfg.Models) != 0 {
		t.Errorf("Models should have no default (registry supplied), got %v", cfg.Models)
	}
}

// ─── Config file loading ──────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	writeConfig(t, dir, config.File{
		Token:         "filetoken123",
		DefaultFormat: "json",
		Timeout:       "90s",
		Rate:          2.5,
		BaseURL:       "https://custom.example.com/",
		DBPath:        "/tmp/test.db",
		AssetDir:      "/data/assets",
		XFailFile:     "/data/xfail.yaml",
		Models:        []string{"GFDL-CM4", "CESM2"},
		Variables:     []string{"so", "uo"},
		Experiments:   []string{"piControl"},
		GridLabels:    []string{"gn", "gr"},
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Token != "filetoken123" {
		t.Errorf("Token: expected filetoken123, got %q", cfg.Token)
	}
	if cfg.Format != "json" {
		t.Errorf("Format: expected json, got %q", cfg.Format)
	}
	if cfg.Timeout.String() != "1m30s" {
		t.Errorf("Timeout: expected 1m30s, got %q", cfg.Timeout.String())
	}
	if cfg.Rate != 2.5 {
		t.Errorf("Rate: expected 2.5, got %g", cfg.Rate)
	}
	if cfg.BaseURL != "https://custom.example.com/" {
		t.Errorf("BaseURL: expected custom URL, got %q", cfg.BaseURL)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath: expected /tmp/test.db, got %q", cfg.DBPath)
	}
	if cfg.AssetDir != "/data/assets" {
		t.Errorf("AssetDir: expected /data/assets, got %q", cfg.AssetDir)
	}
	if cfg.XFailFile != "/data/xfail.yaml" {
		t.Errorf("XFailFile: expected /data/xfail.yaml, got %q", cfg.XFailFile)
	}
	if len(cfg.Models) != 2 || cfg.Models[0] != "GFDL-CM4" {
		t.Errorf("Models: expected [GFDL-CM4 CESM2], got %v", cfg.Models)
	}
	if len(cfg.Variables) != 2 || cfg.Variables[1] != "uo" {
		t.Errorf("Variables: expected [so uo], got %v", cfg.Variables)
	}
	if len(cfg.Experiments) != 1 || cfg.Experiments[0] != "piControl" {
		t.Errorf("Experiments: expected [piControl], got %v", cfg.Experiments)
	}
	if len(cfg.GridLabels) != 2 {
		t.Errorf("GridLabels: expected [gn gr], got %v", cfg.GridLabels)
	}
}

func TestLoadConfigPathRecorded(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	writeConfig(t, dir, config.File{Token: "k"})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigPath == "" {
		t.Error("ConfigPath should be set when config.json is found")
	}
	if !strings.Contains(cfg.ConfigPath, "config.json") {
		t.Errorf("ConfigPath should contain config.json, got %q", cfg.ConfigPath)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	orig, _ := os.Getwd()
	_ = os.Chdir(dir)
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load without config.json should not error: %v", err)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath should be empty when no file found, got %q", cfg.ConfigPath)
	}
}

func TestLoadInvalidTimeoutIgnored(t *testing.T) {
	// Invalid timeout string in file should be ignored, not error
	dir := t.TempDir()
	clearEnv(t)
	writeConfig(t, dir, config.File{
		Token:   "k",
		Timeout: "not-a-duration",
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Should fall back to default timeout
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("invalid timeout should use default %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
}

func TestLoadEmptyListsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	writeConfig(t, dir, config.File{Token: "k"})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Variables) == 0 {
		t.Error("empty variables list in file should keep the default")
	}
	if len(cfg.GridLabels) == 0 {
		t.Error("empty grid_labels list in file should keep the default")
	}
}

// ─── Environment variable priority ───────────────────────────────────────────

func TestLoadEnvTokenOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.File{Token: "filetoken"})
	t.Setenv(config.EnvToken, "envtoken")
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDBPath, "")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "envtoken" {
		t.Errorf("env CMIP6QC_TOKEN should override file: expected envtoken, got %q", cfg.Token)
	}
}

func TestLoadEnvBaseURL(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	orig, _ := os.Getwd()
	_ = os.Chdir(dir)
	t.Cleanup(func() { _ = os.Chdir(orig) })
	t.Setenv(config.EnvBaseURL, "https://mirror.example.org/cmip6/")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://mirror.example.org/cmip6/" {
		t.Errorf("CMIP6QC_BASE_URL: expected mirror URL, got %q", cfg.BaseURL)
	}
}

func TestLoadEnvDBPath(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	orig, _ := os.Getwd()
	_ = os.Chdir(dir)
	t.Cleanup(func() { _ = os.Chdir(orig) })
	t.Setenv(config.EnvDBPath, "/custom/path/cmip6qc.db")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/custom/path/cmip6qc.db" {
		t.Errorf("CMIP6QC_DB_PATH: expected /custom/path/cmip6qc.db, got %q", cfg.DBPath)
	}
}

// ─── CLI flag priority ────────────────────────────────────────────────────────

func TestLoadFlagTokenOverridesEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.File{Token: "filetoken"})
	t.Setenv(config.EnvToken, "envtoken")
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDBPath, "")

	cfg, err := config.Load("flagtoken")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "flagtoken" {
		t.Errorf("flag --token should override env and file: expected flagtoken, got %q", cfg.Token)
	}
}

func TestLoadFlagEmptyDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	writeConfig(t, dir, config.File{Token: "filetoken"})

	cfg, err := config.Load("") // empty flag = not set
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "filetoken" {
		t.Errorf("empty flag should not override file value: expected filetoken, got %q", cfg.Token)
	}
}

// ─── RedactedToken ────────────────────────────────────────────────────────────

func TestRedactedTokenNormal(t *testing.T) {
	cfg := &config.Config{Token: "abcdefghij"}
	redacted := cfg.RedactedToken()

	if !strings.HasPrefix(redacted, "****") {
		t.Errorf("redacted token should start with '****', got %q", redacted)
	}
	if !strings.HasSuffix(redacted, "ghij") {
		t.Errorf("redacted token should end with 'ghij', got %q", redacted)
	}
	if redacted == cfg.Token {
		t.Error("redacted token should not equal the original")
	}
}

func TestRedactedTokenShort(t *testing.T) {
	// Tokens <= 4 chars never leak any characters
	for _, tok := range []string{"a", "ab", "abc", "abcd"} {
		cfg := &config.Config{Token: tok}
		if cfg.RedactedToken() != "****" {
			t.Errorf("short token %q should redact to '****', got %q", tok, cfg.RedactedToken())
		}
	}
}

func TestRedactedTokenEmpty(t *testing.T) {
	cfg := &config.Config{}
	if cfg.RedactedToken() != "" {
		t.Errorf("empty token should redact to empty string, got %q", cfg.RedactedToken())
	}
}

// ─── WriteFile / Template ─────────────────────────────────────────────────────

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	f := config.File{
		Token:         "testtoken",
		DefaultFormat: "jsonl",
		Timeout:       "45s",
		Rate:          3.0,
		BaseURL:       "https://api.example.com/",
		DBPath:        "/data/cmip6qc.db",
		Models:        []string{"CanESM5"},
	}

	if err := config.WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Read back and verify
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got config.File
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if got.Token != f.Token {
		t.Errorf("Token: expected %q, got %q", f.Token, got.Token)
	}
	if got.DefaultFormat != f.DefaultFormat {
		t.Errorf("DefaultFormat: expected %q, got %q", f.DefaultFormat, got.DefaultFormat)
	}
	if got.Timeout != f.Timeout {
		t.Errorf("Timeout: expected %q, got %q", f.Timeout, got.Timeout)
	}
	if got.Rate != f.Rate {
		t.Errorf("Rate: expected %g, got %g", f.Rate, got.Rate)
	}
	if got.DBPath != f.DBPath {
		t.Errorf("DBPath: expected %q, got %q", f.DBPath, got.DBPath)
	}
	if len(got.Models) != 1 || got.Models[0] != "CanESM5" {
		t.Errorf("Models: expected [CanESM5], got %v", got.Models)
	}
}

func TestWriteFilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := config.WriteFile(path, config.File{Token: "k"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	// Should be 0600 — owner read/write only
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions: expected 0600, got %04o", info.Mode().Perm())
	}
}

func TestWriteFileIsValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := config.WriteFile(path, config.Template()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, _ := os.ReadFile(path)

	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Errorf("WriteFile produced invalid JSON: %v", err)
	}
}

func TestTemplateDefaults(t *testing.T) {
	tmpl := config.Template()

	if tmpl.DefaultFormat != "table" {
		t.Errorf("Template.DefaultFormat: expected table, got %q", tmpl.DefaultFormat)
	}
	if tmpl.Timeout != "60s" {
		t.Errorf("Template.Timeout: expected 60s, got %q", tmpl.Timeout)
	}
	if tmpl.Rate != config.DefaultRate {
		t.Errorf("Template.Rate: expected %g, got %g", config.DefaultRate, tmpl.Rate)
	}
	if tmpl.Token != "" {
		t.Errorf("Template.Token should be empty (user fills it in), got %q", tmpl.Token)
	}
	if len(tmpl.Variables) == 0 {
		t.Error("Template.Variables should carry the default matrix axis")
	}
}

func TestTemplateBaseURL(t *testing.T) {
	tmpl := config.Template()
	if !strings.HasPrefix(tmpl.BaseURL, "https://") {
		t.Errorf("Template.BaseURL should be an https URL, got %q", tmpl.BaseURL)
	}
}
