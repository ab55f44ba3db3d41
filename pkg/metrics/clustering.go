package metrics

import (
	"context"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// NameClustering is the registered name of [ClusteringCoefficient].
const NameClustering = "clustering"

// ClusteringCoefficient computes the local clustering coefficient of every
// vertex on the undirected view of the graph: the fraction of pairs of
// distinct neighbors that are themselves adjacent. Vertices with fewer than
// two neighbors get 0.
type ClusteringCoefficient struct{}

func (ClusteringCoefficient) Name() string                   { return NameClustering }
func (ClusteringCoefficient) RequiresMergedDuplicates() bool { return false }
func (ClusteringCoefficient) Steps() int                     { return 1 }

// Calculate implements [Calculator].
func (ClusteringCoefficient) Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error) {
	if p == nil {
		p = NopProgress
	}
	res := newResult(NameClustering, g, ColumnClustering)
	col := res.Vertices[ColumnClustering]

	adj := newAdjacency(g, true)
	n := adj.len()
	linked := make([]map[int]struct{}, n)
	for i, nbrs := range adj.out {
		linked[i] = make(map[int]struct{}, len(nbrs))
		for _, w := range nbrs {
			linked[i][w] = struct{}{}
		}
	}

	for v := 0; v < n; v++ {
		if err := checkCancelled(ctx); err != nil {
			return Result{}, err
		}
		nbrs := adj.out[v]
		k := len(nbrs)
		if k >= 2 {
			links := 0
			for i := 0; i < k; i++ {
				for j := i + 1; j < k; j++ {
					if _, ok := linked[nbrs[i]][nbrs[j]]; ok {
						links++
					}
				}
			}
			col[adj.ids[v]] = 2 * float64(links) / float64(k*(k-1))
		}
		p.Step(v+1, n, "clustering")
	}
	return res, nil
}
