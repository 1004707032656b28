package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/dataset"
)

// Loader acquires the dataset for a spec. A spec with no data must be
// reported via an error wrapping catalog.ErrNoData; the runner maps that to
// a skip, never to a failure. The returned entry is an optional diagnostic
// handle and may be nil.
type Loader interface {
	Load(ctx context.Context, spec Spec, useCatalog bool) (*dataset.Dataset, *catalog.Entry, error)
}

// GridCombiner builds a staggered grid from a canonical dataset and returns
// the grid handle plus the dataset augmented with metric coordinates.
type GridCombiner interface {
	CombineGrid(ctx context.Context, ds *dataset.Dataset, recalculateMetrics bool) (*catalog.Grid, *dataset.Dataset, error)
}

// CheckContext carries the collaborators a check may need beyond the dataset
// itself.
type CheckContext struct {
	Combiner GridCombiner
	Logger   *slog.Logger
}

// CheckFunc is one validation category. A nil return is a pass; any error
// is a failure carrying the violated invariant.
type CheckFunc func(ctx context.Context, cc CheckContext, ds *dataset.Dataset) error

// CheckDef is one row of the data-driven check table: a named category with
// its own expected-failure registry, acquisition mode, and check function.
type CheckDef struct {
	Name       string
	UseCatalog bool
	Registry   *Registry
	Fn         CheckFunc
}

// Outcome classifies one (check, spec) case. Skip, XFail and Pass are
// acceptable; Fail and XPass (a registered expected failure that passed)
// count against the run.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	Skip
	XFail
	XPass
)

// String returns the short uppercase form used in reports.
func (o Outcome) String() string {
	switch o {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case XFail:
		return "XFAIL"
	case XPass:
		return "XPASS"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Counts reports whether the outcome counts against the run. XPass does: a
// registered expected failure that no longer fails is a regression alarm on
// the allow-list.
func (o Outcome) CountsAsFailure() bool {
	return o == Fail || o == XPass
}

// CaseResult records the outcome of one (check, spec) case.
type CaseResult struct {
	Check      string        `json:"check"`
	Spec       Spec          `json:"spec"`
	Outcome    string        `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	outcome    Outcome       `json:"-"`
	duration   time.Duration `json:"-"`
}

// Result returns the typed outcome.
func (c CaseResult) Result() Outcome { return c.outcome }

// Runner expands the test matrix and executes every check sequentially.
// Each case acquires its dataset fresh; no state crosses case boundaries.
type Runner struct {
	Loader   Loader
	Combiner GridCombiner
	Checks   []CheckDef
	Logger   *slog.Logger
}

// Run executes all checks over the expanded matrix and returns the report.
// It only returns an error for harness-level problems (no loader, cancelled
// context); check failures land in the report.
func (r *Runner) Run(ctx context.Context, params Params) (*Report, error) {
	if r.Loader == nil {
		return nil, errors.New("runner: no loader configured")
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	params.Normalize()
	specs := params.Expand()
	report := NewReport(params)

	for _, check := range r.Checks {
		for _, spec := range specs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res := r.runCase(ctx, log, check, spec)
			report.Add(res)
			log.Debug("case finished",
				"check", res.Check,
				"spec", res.Spec.String(),
				"outcome", res.Outcome,
				"duration_ms", res.DurationMs,
			)
		}
	}

	report.Finish()
	return report, nil
}

// runCase executes one (check, spec) case and applies the strict expected-
// failure semantics.
func (r *Runner) runCase(ctx context.Context, log *slog.Logger, check CheckDef, spec Spec) CaseResult {
	start := time.Now()
	res := CaseResult{Check: check.Name, Spec: spec}

	finish := func(outcome Outcome, detail string) CaseResult {
		res.outcome = outcome
		res.Outcome = outcome.String()
		res.Detail = detail
		res.duration = time.Since(start)
		res.DurationMs = res.duration.Milliseconds()
		return res
	}

	ds, _, err := r.Loader.Load(ctx, spec, check.UseCatalog)
	if err != nil {
		if errors.Is(err, catalog.ErrNoData) {
			// Not a defect: the archive simply has nothing for this spec.
			return finish(Skip, fmt.Sprintf("no data found for %s", spec))
		}
		// Acquisition errors other than no-data are genuine failures; they
		// are not maskable by the expected-failure registry.
		return finish(Fail, fmt.Sprintf("acquisition: %v", err))
	}

	checkErr := check.Fn(ctx, CheckContext{Combiner: r.Combiner, Logger: log}, ds)

	expected := check.Registry.Has(spec)
	switch {
	case checkErr != nil && expected:
		return finish(XFail, checkErr.Error())
	case checkErr != nil:
		return finish(Fail, checkErr.Error())
	case expected:
		// Strict semantics: a registered expected failure that passes is a
		// suite-level failure, so stale allow-list entries surface.
		return finish(XPass, "expected failure passed; remove the registry entry")
	default:
		return finish(Pass, "")
	}
}
