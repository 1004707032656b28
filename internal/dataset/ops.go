// Selection and reduction operations over Arrays and Datasets. All
// operations return new values; inputs are never mutated — the checks only
// ever read datasets.
package dataset

import (
	"fmt"
	"math"
	"sort"
)

// ─── Array reductions ─────────────────────────────────────────────────────────

// Min returns the smallest non-NaN value. Returns NaN if all values are NaN
// or the array is empty.
func (a *Array) Min() float64 {
	min := math.NaN()
	for _, v := range a.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest non-NaN value. Returns NaN if all values are NaN
// or the array is empty.
func (a *Array) Max() float64 {
	max := math.NaN()
	for _, v := range a.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// Count returns the number of values for which pred is true. NaN values are
// passed to pred unchanged; comparisons against NaN are false in Go, so a
// predicate like v <= 0 naturally excludes missing values.
func (a *Array) Count(pred func(float64) bool) int {
	n := 0
	for _, v := range a.Values {
		if pred(v) {
			n++
		}
	}
	return n
}

// ─── Array selection ──────────────────────────────────────────────────────────

// Take gathers the given indices along dim, preserving their order.
// The result has the same dimensions with dim shortened to len(indices).
func (a *Array) Take(dim string, indices []int) (*Array, error) {
	di := a.DimIndex(dim)
	if di < 0 {
		return nil, fmt.Errorf("array %s: no dimension %s", a.Name, dim)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= a.Shape[di] {
			return nil, fmt.Errorf("array %s: index %d out of range for dim %s (len %d)", a.Name, idx, dim, a.Shape[di])
		}
	}

	st := a.strides()
	// outer iterates over dims before di, inner over dims after.
	outer := 1
	for i := 0; i < di; i++ {
		outer *= a.Shape[i]
	}
	inner := st[di]

	shape := append([]int(nil), a.Shape...)
	shape[di] = len(indices)
	out := make([]float64, outer*len(indices)*inner)

	pos := 0
	for o := 0; o < outer; o++ {
		base := o * a.Shape[di] * inner
		for _, idx := range indices {
			src := base + idx*inner
			copy(out[pos:pos+inner], a.Values[src:src+inner])
			pos += inner
		}
	}

	return &Array{Name: a.Name, Dims: append([]string(nil), a.Dims...), Shape: shape, Values: out, Attrs: a.Attrs}, nil
}

// Isel selects a single index along dim and drops that dimension.
func (a *Array) Isel(dim string, index int) (*Array, error) {
	taken, err := a.Take(dim, []int{index})
	if err != nil {
		return nil, err
	}
	di := taken.DimIndex(dim)
	taken.Dims = append(taken.Dims[:di], taken.Dims[di+1:]...)
	taken.Shape = append(taken.Shape[:di], taken.Shape[di+1:]...)
	return taken, nil
}

// Diff computes forward differences along dim: out[i] = in[i+1] - in[i].
// The result's dim length shrinks by one.
func (a *Array) Diff(dim string) (*Array, error) {
	di := a.DimIndex(dim)
	if di < 0 {
		return nil, fmt.Errorf("array %s: no dimension %s", a.Name, dim)
	}
	n := a.Shape[di]
	if n < 2 {
		return nil, fmt.Errorf("array %s: dim %s too short for diff (len %d)", a.Name, dim, n)
	}
	hi, err := a.Take(dim, iota1(1, n))
	if err != nil {
		return nil, err
	}
	lo, err := a.Take(dim, iota1(0, n-1))
	if err != nil {
		return nil, err
	}
	return hi.Sub(lo)
}

// Sub returns the elementwise difference a - b. Both arrays must share the
// same dims and shape.
func (a *Array) Sub(b *Array) (*Array, error) {
	if len(a.Dims) != len(b.Dims) {
		return nil, fmt.Errorf("sub: dim mismatch %v vs %v", a.Dims, b.Dims)
	}
	for i := range a.Dims {
		if a.Dims[i] != b.Dims[i] || a.Shape[i] != b.Shape[i] {
			return nil, fmt.Errorf("sub: dim mismatch %v%v vs %v%v", a.Dims, a.Shape, b.Dims, b.Shape)
		}
	}
	out := a.clone()
	for i := range out.Values {
		out.Values[i] -= b.Values[i]
	}
	return out, nil
}

func iota1(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

// ─── Dataset selection ────────────────────────────────────────────────────────

// SelRange selects, along an index dimension, the positions whose 1-D
// coordinate value lies in [lo, hi]. Every coordinate and variable carrying
// that dimension is subset; arrays without it pass through unchanged.
func (d *Dataset) SelRange(dim string, lo, hi float64) (*Dataset, error) {
	vals, ok := d.DimValues(dim)
	if !ok {
		return nil, fmt.Errorf("sel: no 1-D index coordinate for dim %s", dim)
	}
	var indices []int
	for i, v := range vals {
		if v >= lo && v <= hi {
			indices = append(indices, i)
		}
	}

	out := New()
	out.Attrs = d.Attrs
	take := func(a *Array) (*Array, error) {
		if a.DimIndex(dim) < 0 {
			return a, nil
		}
		return a.Take(dim, indices)
	}
	for _, name := range d.CoordNames() {
		a, err := take(d.Coords[name])
		if err != nil {
			return nil, err
		}
		if err := out.AddCoord(a); err != nil {
			return nil, err
		}
	}
	varNames := make([]string, 0, len(d.Vars))
	for n := range d.Vars {
		varNames = append(varNames, n)
	}
	sort.Strings(varNames)
	for _, name := range varNames {
		a, err := take(d.Vars[name])
		if err != nil {
			return nil, err
		}
		if err := out.AddVar(a); err != nil {
			return nil, err
		}
	}
	// An empty selection still records the dimension with length zero.
	if _, ok := out.Dims[dim]; !ok {
		out.Dims[dim] = len(indices)
	}
	return out, nil
}

// ─── Duplicate detection ──────────────────────────────────────────────────────

// Unique returns the distinct values of vals in ascending order. NaN values
// are collapsed into a single entry, matching how duplicate counting treats
// them.
func Unique(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted) // NaNs sort first
	out := make([]float64, 0, len(sorted))
	seenNaN := false
	for _, v := range sorted {
		if math.IsNaN(v) {
			if !seenNaN {
				out = append(out, v)
				seenNaN = true
			}
			continue
		}
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DoubleGroup describes one duplicated coordinate value and the positions at
// which it occurs.
type DoubleGroup struct {
	Value     float64
	Positions []int
}

// FindDoubles returns the duplicated values in vals with their positions, in
// first-occurrence order. NaNs count as one value, matching Unique: a second
// NaN is a duplicate of the first. An empty result means all values are
// distinct.
func FindDoubles(vals []float64) []DoubleGroup {
	positions := make(map[float64][]int, len(vals))
	order := make([]float64, 0)
	var nanPositions []int
	for i, v := range vals {
		if math.IsNaN(v) {
			nanPositions = append(nanPositions, i)
			continue
		}
		if _, seen := positions[v]; !seen {
			order = append(order, v)
		}
		positions[v] = append(positions[v], i)
	}
	var groups []DoubleGroup
	for _, v := range order {
		if p := positions[v]; len(p) > 1 {
			groups = append(groups, DoubleGroup{Value: v, Positions: p})
		}
	}
	if len(nanPositions) > 1 {
		groups = append(groups, DoubleGroup{Value: math.NaN(), Positions: nanPositions})
	}
	return groups
}
