package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/dataset"
)

// GridCombiner matches harness.GridCombiner; redeclared here so the check
// does not import the harness that drives it.
type GridCombiner interface {
	CombineGrid(ctx context.Context, ds *dataset.Dataset, recalculateMetrics bool) (*catalog.Grid, *dataset.Dataset, error)
}

// metricSuffixes are the staggered positions every horizontal metric set
// must cover: cell center, x face, y face, corner.
var metricSuffixes = []string{"_t", "_gx", "_gy", "_gxgy"}

// StaggeredGrid invokes the grid builder with metric recalculation enabled
// and validates the result:
//
//   - the builder returns a non-nil grid and augmented dataset;
//   - a dataset with a lev dimension carries lev_bounds over bnds;
//   - for each horizontal axis and metric suffix the distance coordinate
//     (dx_t, dy_gx, ...) exists in the augmented dataset.
func StaggeredGrid(ctx context.Context, combiner GridCombiner, ds *dataset.Dataset) error {
	if combiner == nil {
		return fmt.Errorf("no grid combiner configured")
	}
	grid, combined, err := combiner.CombineGrid(ctx, ds, true)
	if err != nil {
		return fmt.Errorf("combining staggered grid: %w", err)
	}
	if grid == nil {
		return fmt.Errorf("grid builder returned no grid")
	}
	if combined == nil {
		return fmt.Errorf("grid builder returned no dataset")
	}

	if combined.HasDim("lev") {
		lb, ok := combined.Coord("lev_bounds")
		if !ok {
			return fmt.Errorf("lev present but lev_bounds missing")
		}
		if lb.DimIndex("bnds") < 0 {
			return fmt.Errorf("lev_bounds has dims %v, want bnds", lb.Dims)
		}
	}

	for _, axis := range []string{"X", "Y"} {
		for _, suffix := range metricSuffixes {
			name := "d" + strings.ToLower(axis) + suffix
			if !combined.HasCoord(name) {
				return fmt.Errorf("missing metric coordinate %s for axis %s", name, axis)
			}
		}
	}
	return nil
}
