// Package app wires together configuration, the gateway client, the local
// store, and the loader into a single Deps struct that commands receive at
// runtime.
package app

import (
	"fmt"
	"log/slog"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/config"
	"github.com/oceandata/cmip6qc/internal/loader"
	"github.com/oceandata/cmip6qc/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store is opened lazily via RequireStore; commands that never touch the
// local store don't pay for it.
type Deps struct {
	Config *config.Config
	Client *catalog.Client
	Store  *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) *Deps {
	client := catalog.NewClient(
		cfg.Token,
		cfg.BaseURL,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	return &Deps{
		Config: cfg,
		Client: client,
	}
}

// RequireStore opens the bbolt store at the configured path if it is not
// open yet.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return fmt.Errorf("no database path configured (set db_path in config.json or CMIP6QC_DB_PATH)")
	}
	st, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = st
	return nil
}

// Loader builds the acquisition-step loader over the client and whatever
// store is open (possibly none).
func (d *Deps) Loader(log *slog.Logger) *loader.Loader {
	return &loader.Loader{
		Client:   d.Client,
		Store:    d.Store,
		Logger:   log,
		AssetDir: d.Config.AssetDir,
		NoCache:  d.Config.NoCache,
		Refresh:  d.Config.Refresh,
	}
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}
