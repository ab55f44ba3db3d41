package pipeline

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// Handle tracks a metric run started with [Runner.Start].
//
// All methods are safe for concurrent use. The report and error are
// published when Done is closed.
type Handle struct {
	done     chan struct{}
	cancel   context.CancelFunc
	state    atomic.Int32
	progress atomic.Uint64
	label    atomic.Value

	report *Report
	err    error
}

// Start runs the calculators in a new goroutine and returns immediately.
// Cancelling ctx or calling Handle.Cancel stops the run before its next
// calculator. g must not be modified until the run is done.
func (r *Runner) Start(ctx context.Context, g *graph.Graph, opts Options) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	h.label.Store("")
	h.state.Store(int32(NotStarted))

	user := opts.OnProgress
	opts.OnProgress = func(fraction float64, label string) {
		h.setProgress(fraction)
		h.label.Store(label)
		if user != nil {
			user(fraction, label)
		}
	}

	go func() {
		defer close(h.done)
		defer cancel()
		h.state.Store(int32(Running))
		h.report, h.err = r.Run(ctx, g, opts)
		switch {
		case h.err != nil:
			h.state.Store(int32(Completed))
		default:
			h.state.Store(int32(h.report.State))
		}
	}()
	return h
}

// Done is closed when the run has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// IsDone reports whether the run has finished.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Poll returns the report without blocking. ok is false while the run is
// still going.
func (h *Handle) Poll() (report *Report, err error, ok bool) {
	if !h.IsDone() {
		return nil, nil, false
	}
	return h.report, h.err, true
}

// Wait blocks until the run has finished.
func (h *Handle) Wait() (*Report, error) {
	<-h.done
	return h.report, h.err
}

// Cancel requests cancellation. It does not wait for the run to stop.
func (h *Handle) Cancel() { h.cancel() }

// State returns the run state. A run that returned an error reports
// Completed; its error is available from Wait.
func (h *Handle) State() State { return State(h.state.Load()) }

// Progress returns the fraction of calculator steps completed, in [0, 1].
func (h *Handle) Progress() float64 {
	return math.Float64frombits(h.progress.Load())
}

// Label describes the step currently running.
func (h *Handle) Label() string { return h.label.Load().(string) }

func (h *Handle) setProgress(f float64) {
	f = math.Max(0, math.Min(1, f))
	h.progress.Store(math.Float64bits(f))
}
