// Package dataset defines the labelled multi-dimensional array model shared
// by the checks and the loader: a Dataset of named dimensions, coordinate
// arrays, and data variables, with the read-only selection and reduction
// operations the validation checks need. NaN marks missing values.
package dataset

import (
	"fmt"
	"sort"
)

// Array is a single labelled n-dimensional array. Values are stored flat in
// row-major order; Shape[i] is the length of Dims[i].
type Array struct {
	Name   string            `json:"name,omitempty"`
	Dims   []string          `json:"dims"`
	Shape  []int             `json:"shape"`
	Values []float64         `json:"data"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// NewArray builds an Array and validates that the shape matches the values.
func NewArray(name string, dims []string, shape []int, values []float64) (*Array, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("array %s: %d dims but %d shape entries", name, len(dims), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("array %s: negative dimension length %d", name, s)
		}
		n *= s
	}
	if n != len(values) {
		return nil, fmt.Errorf("array %s: shape %v implies %d values, got %d", name, shape, n, len(values))
	}
	return &Array{Name: name, Dims: append([]string(nil), dims...), Shape: append([]int(nil), shape...), Values: values}, nil
}

// MustArray is NewArray that panics on error. Intended for literals in tests
// and builtin fixtures where the shape is known correct.
func MustArray(name string, dims []string, shape []int, values []float64) *Array {
	a, err := NewArray(name, dims, shape, values)
	if err != nil {
		panic(err)
	}
	return a
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.Dims) }

// Len returns the total number of values.
func (a *Array) Len() int { return len(a.Values) }

// DimIndex returns the position of dim in a.Dims, or -1.
func (a *Array) DimIndex(dim string) int {
	for i, d := range a.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// DimLen returns the length of the named dimension, or 0 if absent.
func (a *Array) DimLen(dim string) int {
	i := a.DimIndex(dim)
	if i < 0 {
		return 0
	}
	return a.Shape[i]
}

// strides returns the row-major stride (in values) for each dimension.
func (a *Array) strides() []int {
	st := make([]int, len(a.Shape))
	s := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		st[i] = s
		s *= a.Shape[i]
	}
	return st
}

// clone returns a deep copy of the array.
func (a *Array) clone() *Array {
	c := &Array{
		Name:   a.Name,
		Dims:   append([]string(nil), a.Dims...),
		Shape:  append([]int(nil), a.Shape...),
		Values: append([]float64(nil), a.Values...),
	}
	if a.Attrs != nil {
		c.Attrs = make(map[string]string, len(a.Attrs))
		for k, v := range a.Attrs {
			c.Attrs[k] = v
		}
	}
	return c
}

// Dataset is a collection of coordinate arrays and data variables over a
// shared set of named dimensions.
type Dataset struct {
	Dims   map[string]int    `json:"dims"`
	Coords map[string]*Array `json:"coords"`
	Vars   map[string]*Array `json:"data_vars"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// New returns an empty Dataset.
func New() *Dataset {
	return &Dataset{
		Dims:   make(map[string]int),
		Coords: make(map[string]*Array),
		Vars:   make(map[string]*Array),
	}
}

// HasDim reports whether the named dimension exists.
func (d *Dataset) HasDim(name string) bool {
	_, ok := d.Dims[name]
	return ok
}

// HasCoord reports whether the named coordinate exists.
func (d *Dataset) HasCoord(name string) bool {
	_, ok := d.Coords[name]
	return ok
}

// Coord returns the named coordinate array.
func (d *Dataset) Coord(name string) (*Array, bool) {
	a, ok := d.Coords[name]
	return a, ok
}

// CoordNames returns all coordinate names in sorted order.
func (d *Dataset) CoordNames() []string {
	names := make([]string, 0, len(d.Coords))
	for n := range d.Coords {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DimValues returns the 1-D index coordinate for the named dimension, i.e.
// the coordinate array with the same name as the dimension. Returns false if
// the coordinate is missing or not 1-D over that dimension.
func (d *Dataset) DimValues(dim string) ([]float64, bool) {
	a, ok := d.Coords[dim]
	if !ok || a.NDim() != 1 || a.Dims[0] != dim {
		return nil, false
	}
	return a.Values, true
}

// AddCoord registers a coordinate array, recording any new dimensions.
// Dimension lengths must agree with previously registered arrays.
func (d *Dataset) AddCoord(a *Array) error {
	if err := d.registerDims(a); err != nil {
		return err
	}
	d.Coords[a.Name] = a
	return nil
}

// AddVar registers a data variable, recording any new dimensions.
func (d *Dataset) AddVar(a *Array) error {
	if err := d.registerDims(a); err != nil {
		return err
	}
	d.Vars[a.Name] = a
	return nil
}

func (d *Dataset) registerDims(a *Array) error {
	for i, dim := range a.Dims {
		if have, ok := d.Dims[dim]; ok {
			if have != a.Shape[i] {
				return fmt.Errorf("array %s: dim %s has length %d, dataset has %d", a.Name, dim, a.Shape[i], have)
			}
			continue
		}
		d.Dims[dim] = a.Shape[i]
	}
	return nil
}
