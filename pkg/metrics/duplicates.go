package metrics

import (
	"context"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/graph/transform"
)

// NameDuplicates is the registered name of [DuplicateEdges].
const NameDuplicates = "duplicates"

// DuplicateEdges counts duplicate edges. Every edge gets an
// EdgeMultiplicity value, the size of its duplicate group (1 for an edge
// without duplicates). Graph values report unique edges (groups), edges
// belonging to a group of two or more, and the total edge count.
type DuplicateEdges struct{}

func (DuplicateEdges) Name() string                   { return NameDuplicates }
func (DuplicateEdges) RequiresMergedDuplicates() bool { return false }
func (DuplicateEdges) Steps() int                     { return 1 }

// Calculate implements [Calculator].
func (DuplicateEdges) Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error) {
	if err := checkCancelled(ctx); err != nil {
		return Result{}, err
	}
	if p == nil {
		p = NopProgress
	}
	res := newResult(NameDuplicates, g)
	mult := res.edgeColumn(ColumnMultiplicity)

	groups := transform.DuplicateGroups(g)
	withDup := 0
	for _, group := range groups {
		if len(group) > 1 {
			withDup += len(group)
		}
		for _, e := range group {
			mult[e.ID()] = float64(len(group))
		}
	}
	res.setGraph(ColumnUniqueEdges, float64(len(groups)))
	res.setGraph(ColumnEdgesWithDuplicates, float64(withDup))
	res.setGraph(ColumnEdges, float64(g.EdgeCount()))
	p.Step(1, 1, "duplicate edges")
	return res, nil
}
