package harness

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry is the expected-failure allow-list for one validation category.
// Membership is exact-tuple equality only; wildcard or partial matching is
// deliberately not supported (a known limitation carried over from the
// original registries — an entry must name all four fields).
type Registry struct {
	specs map[Spec]struct{}
}

// NewRegistry builds a Registry from the given specs.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[Spec]struct{}, len(specs))}
	for _, s := range specs {
		r.specs[s] = struct{}{}
	}
	return r
}

// Has reports whether spec is a registered expected failure.
func (r *Registry) Has(spec Spec) bool {
	if r == nil {
		return false
	}
	_, ok := r.specs[spec]
	return ok
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

// Add registers additional specs.
func (r *Registry) Add(specs ...Spec) {
	for _, s := range specs {
		r.specs[s] = struct{}{}
	}
}

// Specs returns all registered specs sorted by their string form.
func (r *Registry) Specs() []Spec {
	if r == nil {
		return nil
	}
	out := make([]Spec, 0, len(r.specs))
	for s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// registryFile is the on-disk overlay format: a map from check name to a
// list of 4-element [model, variable, experiment, grid_label] tuples.
//
//	dim-coords:
//	  - [AWI-ESM-1-1-LR, thetao, historical, gn]
type registryFile map[string][][]string

// LoadRegistryFile reads a YAML overlay and returns per-check registries.
// Overlay entries are merged on top of the builtin tables by the caller.
func LoadRegistryFile(path string) (map[string]*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing registry file %s: %w", path, err)
	}

	out := make(map[string]*Registry, len(file))
	for check, rows := range file {
		reg := NewRegistry()
		for i, row := range rows {
			if len(row) != 4 {
				return nil, fmt.Errorf("%s: %s entry %d: want 4 fields [model, variable, experiment, grid_label], got %d",
					path, check, i, len(row))
			}
			reg.Add(Spec{
				SourceID:     row[0],
				VariableID:   row[1],
				ExperimentID: row[2],
				GridLabel:    row[3],
			})
		}
		out[check] = reg
	}
	return out, nil
}
