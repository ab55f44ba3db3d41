package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/netgraph/pkg/cache"
	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/graph/transform"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/metrics"
	"github.com/matzehuels/netgraph/pkg/observability"
)

// Runner encapsulates stage execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options, as long as none of them mutates a graph another run
// is reading.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Run executes the configured calculators against g in order.
//
// The context is checked before each calculator. When it is done the run
// stops and returns a Report in state Cancelled with no results and a nil
// error. A calculator error is recorded in Report.Failures and the remaining
// calculators still run unless StopOnFirstFailure is set.
//
// g is never modified: calculators that require merged duplicates see a
// merged copy, built once before the first of them runs. Reports of
// completed runs without failures are cached under the graph's content hash
// when the calculators are built-in.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, opts Options) (*Report, error) {
	if g == nil {
		return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "graph is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		State:     Running,
		CreatedAt: start.UTC(),
		Stats: Stats{
			Vertices: g.VertexCount(),
			Edges:    g.EdgeCount(),
		},
	}

	cacheKey := ""
	if data, err := nxio.MarshalGraph(g); err == nil {
		report.GraphHash = cache.Hash(data)
		if len(opts.Custom) == 0 {
			cacheKey = r.Keyer.MetricsKey(report.GraphHash, opts.KeyOpts())
		}
	} else {
		logger.Debug("graph not hashable, caching disabled", "error", err)
	}

	// A run cancelled before it starts stays cancelled even when the cache
	// holds its report.
	if cacheKey != "" && !opts.Refresh && ctx.Err() == nil {
		if cached, ok := r.cachedReport(ctx, cacheKey); ok {
			cached.RunID = report.RunID
			cached.CacheHit = true
			opts.OnProgress(1, "cached")
			logger.Info("metrics served from cache", "run", cached.RunID, "graph", shortHash(cached.GraphHash))
			return cached, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, report.RunID, len(opts.calculators))
	logger.Info("metric run started",
		"run", report.RunID,
		"calculators", opts.Calculators,
		"vertices", report.Stats.Vertices,
		"edges", report.Stats.Edges)

	results, failures, merged, cancelled := r.execute(ctx, g, &opts)
	report.Stats.Duration = time.Since(start)
	report.Stats.MergedEdges = merged

	if cancelled {
		// Nothing computed by a cancelled run is published.
		report.State = Cancelled
		report.Stats.MergedEdges = 0
		hooks.OnRunComplete(ctx, report.RunID, report.State.String(), report.Stats.Duration)
		logger.Warn("metric run cancelled", "run", report.RunID, "duration", report.Stats.Duration)
		return report, nil
	}

	report.State = Completed
	report.Results = results
	report.Failures = failures
	opts.OnProgress(1, "done")
	hooks.OnRunComplete(ctx, report.RunID, report.State.String(), report.Stats.Duration)
	logger.Info("metric run completed",
		"run", report.RunID,
		"results", len(results),
		"failures", len(failures),
		"duration", report.Stats.Duration)

	if cacheKey != "" && !report.Failed() {
		r.storeReport(ctx, cacheKey, report)
	}
	return report, nil
}

// execute runs the calculators and reports whether the run was cancelled.
func (r *Runner) execute(ctx context.Context, g *graph.Graph, opts *Options) ([]metrics.Result, []Failure, int, bool) {
	hooks := observability.Pipeline()
	logger := opts.Logger

	total := 0
	for _, c := range opts.calculators {
		total += weight(c)
	}

	var (
		results  []metrics.Result
		failures []Failure
		merged   *graph.Graph
		removed  int
		done     int
	)
	for _, c := range opts.calculators {
		if ctx.Err() != nil {
			return nil, nil, 0, true
		}

		work := g
		if c.RequiresMergedDuplicates() {
			if merged == nil {
				var stats transform.MergeStats
				merged, stats = transform.MergeDuplicateEdges(g)
				removed = stats.Removed
				if removed > 0 {
					logger.Debug("merged duplicate edges", "removed", removed)
				}
			}
			work = merged
		}

		name := c.Name()
		steps := weight(c)
		before := done
		progress := metrics.ProgressFunc(func(n, of int, label string) {
			frac := 1.0
			if of > 0 {
				frac = min(float64(n)/float64(of), 1)
			}
			opts.OnProgress(
				(float64(before)+frac*float64(steps))/float64(total),
				name+": "+label,
			)
		})

		hooks.OnCalculatorStart(ctx, name, work.VertexCount())
		calcStart := time.Now()
		res, err := c.Calculate(ctx, work, progress)
		hooks.OnCalculatorComplete(ctx, name, time.Since(calcStart), err)

		if err != nil {
			if metrics.IsCancelled(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, nil, 0, true
			}
			logger.Warn("calculator failed", "calculator", name, "error", err)
			failures = append(failures, Failure{
				Calculator: name,
				Code:       nxerrors.GetCode(err),
				Message:    err.Error(),
			})
			if opts.StopOnFirstFailure {
				break
			}
		} else {
			if res.Calculator == "" {
				res.Calculator = name
			}
			fillMissing(&res, g)
			results = append(results, res)
			logger.Debug("calculator finished", "calculator", name, "duration", time.Since(calcStart))
		}

		done += steps
		opts.OnProgress(float64(done)/float64(total), name)
	}
	return results, failures, removed, false
}

// weight is the progress weight of c; every calculator counts at least once.
func weight(c metrics.Calculator) int {
	return max(c.Steps(), 1)
}

// fillMissing gives every vertex of g a value in every vertex column of res.
// Vertices a calculator skipped read as zero.
func fillMissing(res *metrics.Result, g *graph.Graph) {
	for name, col := range res.Vertices {
		if col == nil {
			col = make(metrics.VertexValues, g.VertexCount())
			res.Vertices[name] = col
		}
		for _, id := range g.VertexIDs() {
			if _, ok := col[id]; !ok {
				col[id] = 0
			}
		}
	}
}

func (r *Runner) cachedReport(ctx context.Context, key string) (*Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	cached, err := UnmarshalReport(data)
	if err != nil || cached.State != Completed {
		// Unreadable entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return cached, true
}

func (r *Runner) storeReport(ctx context.Context, key string, report *Report) {
	data, err := MarshalReport(report)
	if err != nil {
		// Non-finite values have no JSON encoding.
		r.Logger.Debug("report not cached", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLMetrics); err != nil {
		r.Logger.Debug("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger fills opts.Logger with the runner's logger when unset. It
// runs before validation so callers' options never need a logger.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
