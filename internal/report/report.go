// Package report converts harness run reports into human-readable or
// machine-parseable output. Each format is a separate function; the
// top-level Render dispatcher selects based on the format string.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/oceandata/cmip6qc/internal/harness"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatMD    = "md"
)

// Render writes the report to w in the specified format.
func Render(w io.Writer, r *harness.Report, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, r)
	case FormatJSONL:
		return renderJSONL(w, r)
	case FormatMD:
		return renderMarkdown(w, r)
	default:
		return renderTable(w, r)
	}
}

// RenderTo writes to w by default; if path is non-empty, writes to file.
func RenderTo(w io.Writer, path string, r *harness.Report, format string) error {
	if path == "" {
		return Render(w, r, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, r, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, r *harness.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// jsonlRow is a canonical JSONL record for one case.
type jsonlRow struct {
	RunID   string `json:"run_id"`
	Check   string `json:"check"`
	Spec    string `json:"spec"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

func renderJSONL(w io.Writer, r *harness.Report) error {
	enc := json.NewEncoder(w)
	for _, c := range r.Cases {
		row := jsonlRow{
			RunID:   r.RunID,
			Check:   c.Check,
			Spec:    c.Spec.String(),
			Outcome: c.Outcome,
			Detail:  c.Detail,
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, r *harness.Report) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"CHECK", "SPEC", "OUTCOME", "DETAIL"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColWidth(60)
	tw.SetAutoWrapText(false)

	for _, c := range r.Cases {
		tw.Append([]string{c.Check, c.Spec.String(), c.Outcome, truncate(c.Detail, 60)})
	}
	tw.Render()

	fmt.Fprintln(w, summaryLine(r))
	return nil
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, r *harness.Report) error {
	fmt.Fprintf(w, "## Run %s\n\n", r.RunID)
	fmt.Fprintln(w, "| Check | Spec | Outcome | Detail |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, c := range r.Cases {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			c.Check, escapePipes(c.Spec.String()), c.Outcome, escapePipes(truncate(c.Detail, 80)))
	}
	fmt.Fprintf(w, "\n%s\n", summaryLine(r))
	return nil
}

// ─── Footer ───────────────────────────────────────────────────────────────────

// PrintFooter writes the verbose run footer (run ID and timing).
func PrintFooter(w io.Writer, r *harness.Report, verbose bool) {
	if !verbose {
		return
	}
	fmt.Fprintf(w, "\nrun %s · %d cases in %s\n", r.RunID, r.Summary.Total, r.Duration().Round(time.Millisecond))
}

func summaryLine(r *harness.Report) string {
	s := r.Summary
	return fmt.Sprintf("%d passed, %d failed, %d skipped, %d xfailed, %d xpassed",
		s.Passed, s.Failed, s.Skipped, s.XFailed, s.XPassed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
