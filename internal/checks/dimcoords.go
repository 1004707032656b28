// Package checks implements the validation categories the harness runs over
// a dataset: dimension coordinate hygiene, geographic ranges, bounds/vertex
// structure, and staggered-grid metric completeness. Every check is a pure
// predicate over the dataset; a nil return means the invariant holds.
package checks

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/oceandata/cmip6qc/internal/dataset"
)

// checkedDims are the index dimensions subject to duplicate and ordering
// checks. Bounds dims are excluded until the archive cleans them up.
var checkedDims = []string{"x", "y", "lev", "time"}

// DimCoords validates the dimension coordinates and the geographic ranges of
// a dataset:
//
//   - no duplicate values along x, y, lev, time (duplicates are diagnosed to
//     the log before failing);
//   - no NaN and non-decreasing values along x, y, lev (time is exempt:
//     decoded calendar time may be non-numeric or legitimately gapped);
//   - lon and lon_bounds (when present) in [0, 360], lat in [-90, 90];
//   - lon and lat exactly 2-D (curvilinear representation).
func DimCoords(log *slog.Logger, ds *dataset.Dataset) error {
	for _, dim := range checkedDims {
		if !ds.HasDim(dim) {
			continue
		}
		vals, ok := ds.DimValues(dim)
		if !ok {
			return fmt.Errorf("dim %s has no 1-D index coordinate", dim)
		}

		if doubles := dataset.FindDoubles(vals); len(doubles) > 0 {
			diagnoseDoubles(log, dim, doubles)
			return fmt.Errorf("dim %s: %d values, %d unique", dim, len(vals), len(dataset.Unique(vals)))
		}

		if dim == "time" {
			continue
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				return fmt.Errorf("dim %s: NaN at position %d", dim, i)
			}
		}
		for i := 1; i < len(vals); i++ {
			if vals[i]-vals[i-1] < 0 {
				return fmt.Errorf("dim %s: not non-decreasing at position %d (%g -> %g)", dim, i, vals[i-1], vals[i])
			}
		}
	}

	return geographicRanges(ds)
}

// geographicRanges enforces the lon/lat bounding boxes and 2-D shape.
func geographicRanges(ds *dataset.Dataset) error {
	lon, ok := ds.Coord("lon")
	if !ok {
		return fmt.Errorf("missing coordinate lon")
	}
	lat, ok := ds.Coord("lat")
	if !ok {
		return fmt.Errorf("missing coordinate lat")
	}

	if min := lon.Min(); !(min >= 0) {
		return fmt.Errorf("lon minimum %g below 0", min)
	}
	if max := lon.Max(); !(max <= 360) {
		return fmt.Errorf("lon maximum %g above 360", max)
	}
	if lb, ok := ds.Coord("lon_bounds"); ok {
		if min := lb.Min(); !(min >= 0) {
			return fmt.Errorf("lon_bounds minimum %g below 0", min)
		}
		if max := lb.Max(); !(max <= 360) {
			return fmt.Errorf("lon_bounds maximum %g above 360", max)
		}
	}
	if min := lat.Min(); !(min >= -90) {
		return fmt.Errorf("lat minimum %g below -90", min)
	}
	if max := lat.Max(); !(max <= 90) {
		return fmt.Errorf("lat maximum %g above 90", max)
	}

	if lon.NDim() != 2 {
		return fmt.Errorf("lon must be 2-D, got %d dims %v", lon.NDim(), lon.Dims)
	}
	if lat.NDim() != 2 {
		return fmt.Errorf("lat must be 2-D, got %d dims %v", lat.NDim(), lat.Dims)
	}
	return nil
}

// diagnoseDoubles reports duplicate coordinate groups as structured log
// records. It never gates pass/fail itself; the caller fails afterwards.
func diagnoseDoubles(log *slog.Logger, dim string, doubles []dataset.DoubleGroup) {
	for _, g := range doubles {
		log.Warn("duplicate coordinate values",
			"dim", dim,
			"value", g.Value,
			"positions", g.Positions,
			"count", len(g.Positions),
		)
	}
}
