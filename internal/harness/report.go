package harness

import (
	"time"

	"github.com/google/uuid"
)

// Summary tallies case outcomes for one run.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	XFailed int `json:"xfailed"`
	XPassed int `json:"xpassed"`
}

// FailureCount returns the number of cases that count against the run
// (hard failures plus unexpected passes of registered failures).
func (s Summary) FailureCount() int {
	return s.Failed + s.XPassed
}

// Report is the persistent record of one harness run.
type Report struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Models      []string     `json:"models"`
	Variables   []string     `json:"variables"`
	Experiments []string     `json:"experiments"`
	GridLabels  []string     `json:"grid_labels"`
	Cases       []CaseResult `json:"cases"`
	Summary     Summary      `json:"summary"`
}

// NewReport starts a report for the given parameters with a fresh run ID.
func NewReport(params Params) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Models:      params.Models,
		Variables:   params.Variables,
		Experiments: params.Experiments,
		GridLabels:  params.GridLabels,
	}
}

// Add appends a case result and updates the summary.
func (r *Report) Add(res CaseResult) {
	r.Cases = append(r.Cases, res)
	r.Summary.Total++
	switch res.Result() {
	case Pass:
		r.Summary.Passed++
	case Fail:
		r.Summary.Failed++
	case Skip:
		r.Summary.Skipped++
	case XFail:
		r.Summary.XFailed++
	case XPass:
		r.Summary.XPassed++
	}
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns the wall-clock duration of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
