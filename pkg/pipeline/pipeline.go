// Package pipeline runs the metric, layout and render stages over a graph.
//
// This package is the single place where calculators are orchestrated, so
// the CLI and the HTTP service share one implementation of cancellation,
// duplicate-edge merging, caching, progress and failure reporting.
//
// # Stages
//
//  1. Metrics: run a list of calculators and collect a [Report]
//  2. Layout: assign vertex locations with a named layout
//  3. Render: produce DOT, SVG, PNG, PDF or JSON from the laid-out graph
//
// Each stage can be run on its own and each consults the runner's cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	report, err := runner.Run(ctx, g, pipeline.Options{
//	    Calculators: []string{"brandes", "degree"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if report.State == pipeline.Cancelled {
//	    return
//	}
//
// Long runs can be moved to the background; the caller polls the returned
// [Handle] or waits on it:
//
//	h := runner.Start(ctx, g, opts)
//	for !h.IsDone() {
//	    fmt.Printf("%.0f%%\n", 100*h.Progress())
//	    time.Sleep(100 * time.Millisecond)
//	}
//	report, err := h.Wait()
//
// # Cancellation
//
// Cancellation is cooperative and is not an error. The runner checks the
// context before every calculator and the calculators check it inside their
// loops. A cancelled run returns a Report in state [Cancelled] with no
// results at all, even from calculators that had already finished, and a
// nil error.
package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netgraph/pkg/cache"
	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/metrics"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultCalculators run when [Options.Calculators] is empty.
var DefaultCalculators = []string{metrics.NameBrandes, metrics.NameDegree, metrics.NameOverall}

// =============================================================================
// State
// =============================================================================

// State is the lifecycle state of a metric run.
type State int

const (
	// NotStarted is the state of a [Handle] whose goroutine has not run yet.
	NotStarted State = iota
	// Running means calculators are executing.
	Running
	// Completed means every calculator ran (or the run stopped on the first
	// failure). Failures are listed in the report.
	Completed
	// Cancelled means the context was done before the run finished. No
	// results are published.
	Cancelled
)

var stateNames = map[State]string{
	NotStarted: "not_started",
	Running:    "running",
	Completed:  "completed",
	Cancelled:  "cancelled",
}

// String returns the snake_case name of s.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes s by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a name written by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// =============================================================================
// Options - Metric Run Configuration
// =============================================================================

// Options configures a metric run. It supports JSON for API requests.
type Options struct {
	// Calculators are resolved with metrics.Lookup. Empty means
	// DefaultCalculators.
	Calculators []string `json:"calculators,omitempty"`

	// StopOnFirstFailure skips the remaining calculators after a failure.
	StopOnFirstFailure bool `json:"stop_on_first_failure,omitempty"`

	// Refresh bypasses the cache lookup; the fresh report is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Custom calculators replace Calculators when set.
	Custom []metrics.Calculator `json:"-"`

	// OnProgress receives overall progress in [0, 1] and a label naming
	// the calculator and its current phase.
	OnProgress func(fraction float64, label string) `json:"-"`

	// Logger receives run logs. The runner's logger is used when nil.
	Logger *log.Logger `json:"-"`

	calculators []metrics.Calculator
	validated   bool
}

// ValidateAndSetDefaults resolves calculator names and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Custom) > 0 {
		o.calculators = o.Custom
		o.Calculators = make([]string, len(o.Custom))
		for i, c := range o.Custom {
			if c == nil {
				return fmt.Errorf("custom calculator %d is nil", i)
			}
			o.Calculators[i] = c.Name()
		}
	} else {
		if len(o.Calculators) == 0 {
			o.Calculators = append([]string(nil), DefaultCalculators...)
		}
		calcs, err := metrics.LookupAll(o.Calculators)
		if err != nil {
			return err
		}
		o.calculators = calcs
	}
	if o.OnProgress == nil {
		o.OnProgress = func(float64, string) {}
	}
	o.validated = true
	return nil
}

// KeyOpts returns the cache key options of the run.
func (o *Options) KeyOpts() cache.MetricsKeyOpts {
	return cache.MetricsKeyOpts{
		Calculators:        o.Calculators,
		StopOnFirstFailure: o.StopOnFirstFailure,
	}
}

// =============================================================================
// Report
// =============================================================================

// Report is the outcome of a metric run.
type Report struct {
	// RunID identifies the run in logs and stores.
	RunID string `json:"run_id"`

	State State `json:"state"`

	// GraphHash is the content hash of the input graph. It is empty when
	// the graph could not be serialized.
	GraphHash string `json:"graph_hash,omitempty"`

	// Results holds one entry per successful calculator, in run order.
	Results []metrics.Result `json:"results,omitempty"`

	// Failures holds one entry per failed calculator, in run order.
	Failures []Failure `json:"failures,omitempty"`

	Stats Stats `json:"stats"`

	// CacheHit is set when the report was served from the cache.
	CacheHit bool `json:"cache_hit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Failure records one calculator's error.
type Failure struct {
	Calculator string        `json:"calculator"`
	Code       nxerrors.Code `json:"code,omitempty"`
	Message    string        `json:"message"`
}

// Stats contains run statistics.
type Stats struct {
	Vertices int `json:"vertices"`
	Edges    int `json:"edges"`

	// MergedEdges counts the duplicate edges dropped before calculators
	// that require merged duplicates. Zero when none ran.
	MergedEdges int `json:"merged_edges"`

	Duration time.Duration `json:"duration_ns"`
}

// Result returns the result of the named calculator.
func (r *Report) Result(calculator string) (metrics.Result, bool) {
	for _, res := range r.Results {
		if res.Calculator == calculator {
			return res, true
		}
	}
	return metrics.Result{}, false
}

// Failed reports whether any calculator failed.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Apply writes every result into g's metadata. See metrics.Result.Apply.
func (r *Report) Apply(g *graph.Graph) error {
	for _, res := range r.Results {
		if err := res.Apply(g); err != nil {
			return fmt.Errorf("apply %s: %w", res.Calculator, err)
		}
	}
	return nil
}

// MarshalReport encodes r as JSON.
func MarshalReport(r *Report) ([]byte, error) { return json.Marshal(r) }

// UnmarshalReport decodes the output of MarshalReport.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
