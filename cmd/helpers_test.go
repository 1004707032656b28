package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestResolveFormatFlagWins(t *testing.T) {
	orig := globalFlags.Format
	globalFlags.Format = "json"
	t.Cleanup(func() { globalFlags.Format = orig })

	if got := resolveFormat("table"); got != "json" {
		t.Fatalf("flag format should win, got %q", got)
	}
}

func TestResolveFormatConfigFallback(t *testing.T) {
	orig := globalFlags.Format
	globalFlags.Format = ""
	t.Cleanup(func() { globalFlags.Format = orig })

	if got := resolveFormat("jsonl"); got != "jsonl" {
		t.Fatalf("config format should apply when flag unset, got %q", got)
	}
}

func TestResolveFormatDefault(t *testing.T) {
	orig := globalFlags.Format
	globalFlags.Format = ""
	t.Cleanup(func() { globalFlags.Format = orig })

	if got := resolveFormat(""); got != "table" {
		t.Fatalf("expected table default, got %q", got)
	}
}

func TestPrintSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	printSimpleTable(&buf, []string{"MODEL", "CASES"}, func(add func(...string)) {
		add("GFDL-CM4", "12")
		add("CESM2-FV2", "8")
	})

	out := buf.String()
	for _, want := range []string{"MODEL", "CASES", "GFDL-CM4", "CESM2-FV2", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestItoa(t *testing.T) {
	if got := itoa(0); got != "0" {
		t.Errorf("itoa(0): got %q", got)
	}
	if got := itoa(-42); got != "-42" {
		t.Errorf("itoa(-42): got %q", got)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, c := range cases {
		if got := humanBytes(c.in); got != c.want {
			t.Errorf("humanBytes(%d): expected %q, got %q", c.in, c.want, got)
		}
	}
}
