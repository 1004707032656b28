package checks

import (
	"fmt"

	"github.com/oceandata/cmip6qc/internal/dataset"
)

// boundsCoords are the auxiliary coordinates every preprocessed dataset must
// carry. The spelling "verticies" matches the archive convention.
var boundsCoords = []string{"lon_bounds", "lat_bounds", "lon_verticies", "lat_verticies"}

// Latitude band for the ordering checks. Poleward of this the grids fold
// and the sign conventions stop holding.
const (
	bandSouth = -40.0
	bandNorth = 40.0
)

// BoundsVertices validates the structure and orientation of the bounds and
// vertex coordinates:
//
//   - the vertex dimension, when present, holds exactly [0, 1, 2, 3];
//   - all four bounds/vertex coordinates exist and are indexed by {x, y}
//     plus only bnds or vertex;
//   - within the [-40, 40] latitude band, opposite-vertex differences and
//     bnds differences are positive for all but a bounded number of rows.
func BoundsVertices(ds *dataset.Dataset) error {
	if ds.HasDim("vertex") {
		if err := vertexValues(ds); err != nil {
			return err
		}
	}

	for _, name := range boundsCoords {
		co, ok := ds.Coord(name)
		if !ok {
			return fmt.Errorf("missing coordinate %s", name)
		}
		if err := boundsDims(co); err != nil {
			return err
		}
	}

	band, err := ds.SelRange("y", bandSouth, bandNorth)
	if err != nil {
		return fmt.Errorf("selecting latitude band: %w", err)
	}
	if err := vertexOrdering(band); err != nil {
		return err
	}
	return boundsOrdering(band)
}

// vertexValues requires the vertex coordinate to be exactly [0,1,2,3]: four
// corners per cell in canonical order.
func vertexValues(ds *dataset.Dataset) error {
	vals, ok := ds.DimValues("vertex")
	if !ok {
		return fmt.Errorf("vertex dim has no index coordinate")
	}
	if len(vals) != 4 {
		return fmt.Errorf("vertex dim has %d values, want 4", len(vals))
	}
	for i, v := range vals {
		if v != float64(i) {
			return fmt.Errorf("vertex values %v, want [0 1 2 3]", vals)
		}
	}
	return nil
}

// boundsDims enforces that a bounds/vertex coordinate is indexed only by
// {x, y} plus bnds or vertex — no other dimension may leak in.
func boundsDims(co *dataset.Array) error {
	rest := make(map[string]bool)
	for _, d := range co.Dims {
		if d == "bnds" || d == "vertex" {
			continue
		}
		rest[d] = true
	}
	if len(rest) != 2 || !rest["x"] || !rest["y"] {
		return fmt.Errorf("coordinate %s has dims %v, want {x, y} plus bnds/vertex", co.Name, co.Dims)
	}
	return nil
}

// vertexOrdering checks the corner orientation via opposite-vertex forward
// differences: lon grows 0→3 and 1→2, lat grows 0→1 and 3→2. A few rows are
// allowed to violate the sign so edge artifacts don't trip the check; the
// allowances only catch systematic orientation errors.
func vertexOrdering(band *dataset.Dataset) error {
	lonV, okLon := band.Coord("lon_verticies")
	latV, okLat := band.Coord("lat_verticies")
	if !okLon || !okLat {
		return fmt.Errorf("missing vertex coordinates in latitude band")
	}

	lonPairs := [][2]int{{3, 0}, {2, 1}}
	for _, p := range lonPairs {
		diff, err := vertexDiff(lonV, p[0], p[1])
		if err != nil {
			return err
		}
		allowed := 3 * diff.DimLen("y")
		if n := diff.Count(func(v float64) bool { return v <= 0 }); n > allowed {
			return fmt.Errorf("lon vertex %d-%d differences: %d non-positive rows (allowed %d)", p[0], p[1], n, allowed)
		}
	}

	latPairs := [][2]int{{1, 0}, {2, 3}}
	for _, p := range latPairs {
		diff, err := vertexDiff(latV, p[0], p[1])
		if err != nil {
			return err
		}
		allowed := 5 * diff.DimLen("x")
		if n := diff.Count(func(v float64) bool { return v <= 0 }); n > allowed {
			return fmt.Errorf("lat vertex %d-%d differences: %d non-positive rows (allowed %d)", p[0], p[1], n, allowed)
		}
	}
	return nil
}

// boundsOrdering applies the equivalent sign check along the bnds dimension
// of the plain bounds coordinates.
func boundsOrdering(band *dataset.Dataset) error {
	for _, name := range []string{"lon_bounds", "lat_bounds"} {
		co, ok := band.Coord(name)
		if !ok {
			return fmt.Errorf("missing coordinate %s in latitude band", name)
		}
		diffs, err := co.Diff("bnds")
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		allowed := 5 * diffs.DimLen("y")
		if n := diffs.Count(func(v float64) bool { return v <= 0 }); n > allowed {
			return fmt.Errorf("%s bnds differences: %d non-positive rows (allowed %d)", name, n, allowed)
		}
	}
	return nil
}

func vertexDiff(co *dataset.Array, hi, lo int) (*dataset.Array, error) {
	a, err := co.Isel("vertex", hi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", co.Name, err)
	}
	b, err := co.Isel("vertex", lo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", co.Name, err)
	}
	diff, err := a.Sub(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", co.Name, err)
	}
	return diff, nil
}
