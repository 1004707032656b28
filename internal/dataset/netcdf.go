// NetCDF decoding for raw store assets. Variables are widened to float64;
// string-typed variables are skipped. A variable counts as a coordinate when
// it shares a name with a dimension or matches the small set of auxiliary
// coordinate names the checks care about.
package dataset

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// auxCoords are coordinate names that do not match a dimension name but are
// still coordinates, not data variables.
var auxCoords = map[string]bool{
	"lon": true, "lat": true,
	"lon_bounds": true, "lat_bounds": true,
	"lon_verticies": true, "lat_verticies": true,
	"lev_bounds": true, "time_bounds": true,
}

// FromNetCDF reads a NetCDF (classic or HDF5-backed) file into a Dataset.
func FromNetCDF(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer nc.Close()
	return fromGroup(nc)
}

func fromGroup(nc api.Group) (*Dataset, error) {
	ds := New()
	dims := make(map[string]bool)
	for _, d := range nc.ListDimensions() {
		dims[d] = true
		if n, ok := nc.GetDimension(d); ok {
			ds.Dims[d] = int(n)
		}
	}

	for _, name := range nc.ListVariables() {
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		raw, err := vg.Values()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		values, ok := flatten(raw)
		if !ok {
			continue // non-numeric variable
		}
		dimNames := vg.Dimensions()
		shape := make([]int, len(dimNames))
		for i, d := range dimNames {
			n, ok := nc.GetDimension(d)
			if !ok {
				return nil, fmt.Errorf("variable %s: unknown dimension %s", name, d)
			}
			shape[i] = int(n)
		}
		a, err := NewArray(name, dimNames, shape, values)
		if err != nil {
			return nil, err
		}
		if dims[name] || auxCoords[name] || strings.HasSuffix(name, "_bnds") {
			err = ds.AddCoord(a)
		} else {
			err = ds.AddVar(a)
		}
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// flatten widens an arbitrarily nested numeric slice (as returned by
// go-native-netcdf for multi-dimensional variables) into a flat []float64.
// Returns false for non-numeric element types.
func flatten(raw any) ([]float64, bool) {
	var out []float64
	ok := appendFlat(&out, reflect.ValueOf(raw))
	if !ok {
		return nil, false
	}
	return out, true
}

func appendFlat(out *[]float64, v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !appendFlat(out, v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Float32, reflect.Float64:
		*out = append(*out, v.Float())
		return true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		*out = append(*out, float64(v.Int()))
		return true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		*out = append(*out, float64(v.Uint()))
		return true
	default:
		return false
	}
}
