// Package loader implements the dataset acquisition step: given a test
// specification it resolves the catalog entry, fetches the dataset document
// from the gateway (or reads a local NetCDF asset), and serves repeat runs
// from the local store. Timeout, rate limiting and retry live at this
// boundary, in the gateway client.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/dataset"
	"github.com/oceandata/cmip6qc/internal/harness"
	"github.com/oceandata/cmip6qc/internal/store"
)

// Client is the part of the gateway client the loader needs.
type Client interface {
	Search(ctx context.Context, q catalog.Query) ([]catalog.Entry, error)
	Dataset(ctx context.Context, q catalog.Query, preprocess bool) (*dataset.Dataset, error)
}

// Loader acquires datasets for the harness. Store may be nil, in which case
// every load goes to the gateway.
type Loader struct {
	Client   Client
	Store    *store.Store
	Logger   *slog.Logger
	AssetDir string // local NetCDF assets for the no-catalog path
	NoCache  bool   // bypass cache reads (still writes)
	Refresh  bool   // force re-fetch and overwrite cached entries
}

// Load acquires the dataset for spec.
//
// With useCatalog=true the catalog is consulted for an entry handle and the
// gateway applies the preprocessing pipeline before returning the canonical
// document. With useCatalog=false the store asset is read directly — a local
// NetCDF file when one exists, the raw gateway document otherwise — and no
// pipeline stage runs.
//
// A spec with no data returns an error wrapping catalog.ErrNoData.
func (l *Loader) Load(ctx context.Context, spec harness.Spec, useCatalog bool) (*dataset.Dataset, *catalog.Entry, error) {
	q := catalog.Query{
		SourceID:     spec.SourceID,
		VariableID:   spec.VariableID,
		ExperimentID: spec.ExperimentID,
		GridLabel:    spec.GridLabel,
	}

	if !useCatalog {
		if path, ok := l.localAsset(spec); ok {
			l.log().Debug("loading local asset", "spec", spec.String(), "path", path)
			ds, err := dataset.FromNetCDF(path)
			if err != nil {
				return nil, nil, fmt.Errorf("local asset for %s: %w", spec, err)
			}
			return ds, nil, nil
		}
		ds, err := l.fetchDataset(ctx, spec, q, false)
		if err != nil {
			return nil, nil, err
		}
		return ds, nil, nil
	}

	entry, err := l.resolveEntry(ctx, spec, q)
	if err != nil {
		return nil, nil, err
	}
	ds, err := l.fetchDataset(ctx, spec, q, true)
	if err != nil {
		return nil, nil, err
	}
	return ds, entry, nil
}

// resolveEntry finds the catalog entry for a spec, using the store cache
// when allowed. No matching entry means no data.
func (l *Loader) resolveEntry(ctx context.Context, spec harness.Spec, q catalog.Query) (*catalog.Entry, error) {
	if l.Store != nil && !l.NoCache && !l.Refresh {
		if entries, ok, err := l.Store.GetCatalog(spec); err == nil && ok {
			if len(entries) == 0 {
				return nil, fmt.Errorf("%s: %w", spec, catalog.ErrNoData)
			}
			return &entries[0], nil
		}
	}

	entries, err := l.Client.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching catalog for %s: %w", spec, err)
	}
	if l.Store != nil {
		if err := l.Store.PutCatalog(spec, entries); err != nil {
			l.log().Warn("caching catalog entries failed", "spec", spec.String(), "err", err)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", spec, catalog.ErrNoData)
	}
	return &entries[0], nil
}

// fetchDataset returns the dataset document for a spec, consulting the store
// cache first unless bypassed.
func (l *Loader) fetchDataset(ctx context.Context, spec harness.Spec, q catalog.Query, preprocess bool) (*dataset.Dataset, error) {
	key := store.DatasetKey(spec, preprocess)

	if l.Store != nil && !l.NoCache && !l.Refresh {
		if doc, ok, err := l.Store.GetDataset(key); err == nil && ok {
			ds, err := dataset.DecodeJSON(doc)
			if err == nil {
				l.log().Debug("dataset served from store", "spec", spec.String(), "preprocess", preprocess)
				return ds, nil
			}
			l.log().Warn("cached dataset is corrupt, refetching", "spec", spec.String(), "err", err)
		}
	}

	ds, err := l.Client.Dataset(ctx, q, preprocess)
	if err != nil {
		if errors.Is(err, catalog.ErrNoData) {
			return nil, fmt.Errorf("%s: %w", spec, catalog.ErrNoData)
		}
		return nil, fmt.Errorf("fetching dataset for %s: %w", spec, err)
	}

	if l.Store != nil {
		if doc, err := dataset.EncodeJSON(ds); err == nil {
			if err := l.Store.PutDataset(key, spec, doc); err != nil {
				l.log().Warn("caching dataset failed", "spec", spec.String(), "err", err)
			}
		}
	}
	return ds, nil
}

// localAsset returns the path of a local NetCDF file for the spec, if one
// exists under AssetDir. Layout: <dir>/<model>_<variable>_<experiment>_<grid>.nc
func (l *Loader) localAsset(spec harness.Spec) (string, bool) {
	if l.AssetDir == "" {
		return "", false
	}
	name := fmt.Sprintf("%s_%s_%s_%s.nc", spec.SourceID, spec.VariableID, spec.ExperimentID, spec.GridLabel)
	path := filepath.Join(l.AssetDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (l *Loader) log() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
