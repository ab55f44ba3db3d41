package metrics

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// ErrCancelled is wrapped by the error a calculator returns when its context
// is done. It is not a calculation failure.
var ErrCancelled = errors.New("calculation cancelled")

// ErrUnknownCalculator is returned by [Lookup] for unregistered names.
var ErrUnknownCalculator = errors.New("unknown calculator")

// Calculator computes one family of metrics over a graph.
type Calculator interface {
	// Name identifies the calculator in reports, cache keys and the CLI.
	Name() string

	// RequiresMergedDuplicates reports whether duplicate edges must be
	// merged before Calculate is called.
	RequiresMergedDuplicates() bool

	// Steps is the calculator's weight in pipeline progress.
	Steps() int

	// Calculate computes the metrics. It returns an error wrapping
	// ErrCancelled when ctx is done before the work is finished.
	Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error)
}

// Progress receives progress updates from a running calculator.
// done counts finished units of work out of total.
type Progress interface {
	Step(done, total int, label string)
}

// ProgressFunc adapts a function to [Progress].
type ProgressFunc func(done, total int, label string)

// Step calls f.
func (f ProgressFunc) Step(done, total int, label string) { f(done, total, label) }

// NopProgress discards progress updates.
var NopProgress Progress = ProgressFunc(func(int, int, string) {})

// IsCancelled reports whether err signals cancellation.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// checkCancelled returns a cancellation error once ctx is done.
func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// failure wraps err as a CALCULATION_FAILED error attributed to calculator.
func failure(calculator string, err error, format string, args ...any) error {
	return nxerrors.Wrap(nxerrors.ErrCodeCalculation, err, "%s: %s", calculator, fmt.Sprintf(format, args...))
}

// VertexValues maps vertex IDs to a metric value.
type VertexValues map[graph.VertexID]float64

// EdgeValues maps edge IDs to a metric value.
type EdgeValues map[graph.EdgeID]float64

// Result holds the values a calculator produced. Vertex columns always
// contain every vertex of the graph the calculator ran on.
type Result struct {
	Calculator string                  `json:"calculator"`
	Vertices   map[string]VertexValues `json:"vertices,omitempty"`
	Edges      map[string]EdgeValues   `json:"edges,omitempty"`
	Graph      map[string]float64      `json:"graph,omitempty"`
}

// newResult creates a result whose vertex columns are pre-filled with zero
// for every vertex of g.
func newResult(calculator string, g *graph.Graph, columns ...string) Result {
	r := Result{Calculator: calculator}
	if len(columns) > 0 {
		r.Vertices = make(map[string]VertexValues, len(columns))
		ids := g.VertexIDs()
		for _, c := range columns {
			col := make(VertexValues, len(ids))
			for _, id := range ids {
				col[id] = 0
			}
			r.Vertices[c] = col
		}
	}
	return r
}

func (r *Result) setGraph(column string, v float64) {
	if r.Graph == nil {
		r.Graph = make(map[string]float64)
	}
	r.Graph[column] = v
}

func (r *Result) edgeColumn(column string) EdgeValues {
	if r.Edges == nil {
		r.Edges = make(map[string]EdgeValues)
	}
	col, ok := r.Edges[column]
	if !ok {
		col = make(EdgeValues)
		r.Edges[column] = col
	}
	return col
}

// Vertex returns the value of column for vertex id.
func (r Result) Vertex(column string, id graph.VertexID) (float64, bool) {
	v, ok := r.Vertices[column][id]
	return v, ok
}

// VertexColumns returns the names of the per-vertex columns, sorted.
func (r Result) VertexColumns() []string { return slices.Sorted(maps.Keys(r.Vertices)) }

// GraphColumns returns the names of the graph-wide values, sorted.
func (r Result) GraphColumns() []string { return slices.Sorted(maps.Keys(r.Graph)) }

// Apply writes the result into g's metadata: vertex columns onto vertices,
// edge columns onto edges, graph values onto the graph. Column names become
// metadata keys holding float64 values. IDs missing from g are skipped.
func (r Result) Apply(g *graph.Graph) error {
	for column, values := range r.Vertices {
		for id, val := range values {
			if v, ok := g.Vertex(id); ok {
				if err := v.Metadata().Set(column, val); err != nil {
					return err
				}
			}
		}
	}
	for column, values := range r.Edges {
		for id, val := range values {
			if e, ok := g.Edge(id); ok {
				if err := e.Metadata().Set(column, val); err != nil {
					return err
				}
			}
		}
	}
	for column, val := range r.Graph {
		if err := g.Metadata().Set(column, val); err != nil {
			return err
		}
	}
	return nil
}

// Column names shared by several calculators.
const (
	ColumnBetweenness           = "BetweennessCentrality"
	ColumnCloseness             = "ClosenessCentrality"
	ColumnDegree                = "Degree"
	ColumnInDegree              = "InDegree"
	ColumnOutDegree             = "OutDegree"
	ColumnClustering            = "ClusteringCoefficient"
	ColumnMultiplicity          = "EdgeMultiplicity"
	ColumnMaxGeodesic           = "MaximumGeodesicDistance"
	ColumnAvgGeodesic           = "AverageGeodesicDistance"
	ColumnVertices              = "Vertices"
	ColumnEdges                 = "TotalEdges"
	ColumnUniqueEdges           = "UniqueEdges"
	ColumnEdgesWithDuplicates   = "EdgesWithDuplicates"
	ColumnSelfLoops             = "SelfLoops"
	ColumnComponents            = "ConnectedComponents"
	ColumnSingleVertexComponent = "SingleVertexComponents"
	ColumnMaxComponentVertices  = "MaximumComponentVertices"
	ColumnMaxComponentEdges     = "MaximumComponentEdges"
	ColumnDensity               = "GraphDensity"
)

// Lookup returns a new calculator by name.
func Lookup(name string) (Calculator, error) {
	switch name {
	case NameBrandes:
		return NewBrandesCentrality(), nil
	case NameDegree:
		return Degree{}, nil
	case NameClustering:
		return ClusteringCoefficient{}, nil
	case NameDuplicates:
		return DuplicateEdges{}, nil
	case NameOverall:
		return Overall{}, nil
	}
	return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidInput, ErrUnknownCalculator, "calculator %q (known: %v)", name, Names())
}

// Names lists every calculator accepted by [Lookup].
func Names() []string {
	return []string{NameBrandes, NameDegree, NameClustering, NameDuplicates, NameOverall}
}

// LookupAll resolves a list of names, preserving order.
func LookupAll(names []string) ([]Calculator, error) {
	out := make([]Calculator, 0, len(names))
	for _, n := range names {
		c, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
