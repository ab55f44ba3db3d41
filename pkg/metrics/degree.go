package metrics

import (
	"context"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// NameDegree is the registered name of [Degree].
const NameDegree = "degree"

// Degree computes in-degree, out-degree and total degree. Duplicate edges
// are counted individually and a self-loop adds 2 to the total degree. In
// and out degrees count directed edges only.
type Degree struct{}

func (Degree) Name() string                   { return NameDegree }
func (Degree) RequiresMergedDuplicates() bool { return false }
func (Degree) Steps() int                     { return 1 }

// Calculate implements [Calculator].
func (Degree) Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error) {
	if err := checkCancelled(ctx); err != nil {
		return Result{}, err
	}
	if p == nil {
		p = NopProgress
	}
	res := newResult(NameDegree, g, ColumnDegree, ColumnInDegree, ColumnOutDegree)
	total, in, out := res.Vertices[ColumnDegree], res.Vertices[ColumnInDegree], res.Vertices[ColumnOutDegree]
	for _, e := range g.Edges() {
		v1, v2 := e.Vertex1().ID(), e.Vertex2().ID()
		total[v1]++
		total[v2]++
		if e.IsDirected() {
			out[v1]++
			in[v2]++
		}
	}
	p.Step(1, 1, "degrees")
	return res, nil
}
