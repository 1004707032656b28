package harness_test

import (
	"testing"

	"github.com/oceandata/cmip6qc/internal/harness"
)

func TestSpecString(t *testing.T) {
	s := harness.Spec{
		SourceID:     "CESM2-FV2",
		VariableID:   "thetao",
		ExperimentID: "historical",
		GridLabel:    "gn",
	}
	if got := s.String(); got != "CESM2-FV2|thetao|historical|gn" {
		t.Errorf("String: got %q", got)
	}
}

func TestParseSpecRoundTrip(t *testing.T) {
	in := "GFDL-CM4|o2|ssp585|gr"
	s, err := harness.ParseSpec(in)
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if s.String() != in {
		t.Errorf("round trip: expected %q, got %q", in, s.String())
	}
	if s.VariableID != "o2" || s.GridLabel != "gr" {
		t.Errorf("fields: %+v", s)
	}
}

func TestParseSpecRejectsWrongArity(t *testing.T) {
	for _, in := range []string{"", "a|b|c", "a|b|c|d|e"} {
		if _, err := harness.ParseSpec(in); err == nil {
			t.Errorf("ParseSpec(%q): expected error", in)
		}
	}
}

func TestParseSpecRejectsEmptyField(t *testing.T) {
	if _, err := harness.ParseSpec("CESM2-FV2||historical|gn"); err == nil {
		t.Error("expected error for empty field")
	}
}

// ─── Params ───────────────────────────────────────────────────────────────────

func TestNormalizeDropsEmptiesAndTrims(t *testing.T) {
	p := harness.Params{
		Models:    []string{" CESM2-FV2 ", "", "GFDL-CM4"},
		Variables: []string{"thetao"},
	}
	p.Normalize()
	if len(p.Models) != 2 || p.Models[0] != "CESM2-FV2" {
		t.Errorf("Models: got %v", p.Models)
	}
}

func TestExpandCrossProductOrder(t *testing.T) {
	p := harness.Params{
		Models:      []string{"A", "B"},
		Variables:   []string{"thetao"},
		Experiments: []string{"historical", "ssp585"},
		GridLabels:  []string{"gn"},
	}
	specs := p.Expand()
	if len(specs) != 4 {
		t.Fatalf("expected 4 specs, got %d", len(specs))
	}
	// Models outermost, experiments vary faster.
	want := []string{
		"A|thetao|historical|gn",
		"A|thetao|ssp585|gn",
		"B|thetao|historical|gn",
		"B|thetao|ssp585|gn",
	}
	for i, w := range want {
		if specs[i].String() != w {
			t.Errorf("specs[%d]: expected %s, got %s", i, w, specs[i])
		}
	}
}

func TestExpandSingleValueEqualsOneElementList(t *testing.T) {
	single := harness.Params{
		Models:      []string{"A"},
		Variables:   []string{"thetao"},
		Experiments: []string{"historical"},
		GridLabels:  []string{"gn"},
	}
	specs := single.Expand()
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].String() != "A|thetao|historical|gn" {
		t.Errorf("spec: got %s", specs[0])
	}
}

func TestExpandEmptyAxisYieldsNothing(t *testing.T) {
	p := harness.Params{Models: []string{"A"}}
	if specs := p.Expand(); len(specs) != 0 {
		t.Errorf("empty axes should yield no specs, got %d", len(specs))
	}
}
