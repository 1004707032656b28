package harness

import (
	"context"

	"github.com/oceandata/cmip6qc/internal/checks"
	"github.com/oceandata/cmip6qc/internal/dataset"
)

// DefaultChecks returns the full check table with builtin registries,
// optionally merged with a YAML overlay (keyed by check name). This table is
// the single place a new validation category is registered.
func DefaultChecks(overlay map[string]*Registry) []CheckDef {
	defs := []CheckDef{
		{
			// Raw store access, pipeline applied without the intake-style
			// catalog; validates the same dim/coord invariants.
			Name:       CheckDimCoordsRaw,
			UseCatalog: false,
			Fn: func(_ context.Context, cc CheckContext, ds *dataset.Dataset) error {
				return checks.DimCoords(cc.Logger, ds)
			},
		},
		{
			Name:       CheckDimCoords,
			UseCatalog: true,
			Fn: func(_ context.Context, cc CheckContext, ds *dataset.Dataset) error {
				return checks.DimCoords(cc.Logger, ds)
			},
		},
		{
			Name:       CheckBoundsVertices,
			UseCatalog: true,
			Fn: func(_ context.Context, _ CheckContext, ds *dataset.Dataset) error {
				return checks.BoundsVertices(ds)
			},
		},
		{
			Name:       CheckStaggeredGrid,
			UseCatalog: true,
			Fn: func(ctx context.Context, cc CheckContext, ds *dataset.Dataset) error {
				return checks.StaggeredGrid(ctx, cc.Combiner, ds)
			},
		},
	}

	for i := range defs {
		reg := BuiltinRegistry(defs[i].Name)
		if extra, ok := overlay[defs[i].Name]; ok {
			reg.Add(extra.Specs()...)
		}
		defs[i].Registry = reg
	}
	return defs
}

// SelectChecks filters defs to the named checks, preserving table order.
// An empty names list selects everything.
func SelectChecks(defs []CheckDef, names []string) []CheckDef {
	if len(names) == 0 {
		return defs
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]CheckDef, 0, len(defs))
	for _, d := range defs {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}
