// Package harness drives validation checks across the test matrix of
// (model × variable × experiment × grid label) specifications. It owns the
// expected-failure registries, the skip/xfail/pass bookkeeping, and the run
// report; the invariants themselves live in internal/checks.
package harness

import (
	"fmt"
	"strings"
)

// Spec identifies exactly one dataset instance to validate. It is an
// immutable value type; two Specs are equal iff all four fields are equal.
type Spec struct {
	SourceID     string `json:"source_id" yaml:"source_id"`
	VariableID   string `json:"variable_id" yaml:"variable_id"`
	ExperimentID string `json:"experiment_id" yaml:"experiment_id"`
	GridLabel    string `json:"grid_label" yaml:"grid_label"`
}

// String renders the spec in the canonical pipe-separated form used in skip
// reasons and log lines: "CESM2-FV2|thetao|historical|gn".
func (s Spec) String() string {
	return s.SourceID + "|" + s.VariableID + "|" + s.ExperimentID + "|" + s.GridLabel
}

// ParseSpec parses the pipe-separated form produced by String.
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return Spec{}, fmt.Errorf("invalid spec %q: want model|variable|experiment|grid_label", s)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Spec{}, fmt.Errorf("invalid spec %q: empty field %d", s, i)
		}
	}
	return Spec{
		SourceID:     parts[0],
		VariableID:   parts[1],
		ExperimentID: parts[2],
		GridLabel:    parts[3],
	}, nil
}

// Params holds the value lists the matrix is expanded over. A caller that
// has a single value for a parameter stores it as a one-element list;
// Normalize does this for convenience.
type Params struct {
	Models      []string
	Variables   []string
	Experiments []string
	GridLabels  []string
}

// Normalize treats a single value identically to a one-element list and
// drops empty strings. Parameter lists that end up empty stay empty; the
// runner simply does not expand over them.
func (p *Params) Normalize() {
	p.Models = normalizeList(p.Models)
	p.Variables = normalizeList(p.Variables)
	p.Experiments = normalizeList(p.Experiments)
	p.GridLabels = normalizeList(p.GridLabels)
}

// Expand returns the cross product of all parameter lists, in stable order:
// models outermost, grid labels innermost.
func (p Params) Expand() []Spec {
	var specs []Spec
	for _, m := range p.Models {
		for _, v := range p.Variables {
			for _, e := range p.Experiments {
				for _, g := range p.GridLabels {
					specs = append(specs, Spec{
						SourceID:     m,
						VariableID:   v,
						ExperimentID: e,
						GridLabel:    g,
					})
				}
			}
		}
	}
	return specs
}

func normalizeList(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
