package metrics

import (
	"context"
	"sync"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// NameBrandes is the registered name of [BrandesCentrality].
const NameBrandes = "brandes"

// BrandesCentrality computes betweenness and closeness centrality for every
// vertex, plus the maximum and average geodesic distance of the graph, with
// Brandes' unweighted algorithm in O(V·E).
//
// Directed edges are traversed from tail to head, undirected edges both
// ways; self-loops are ignored. Betweenness is the raw Brandes score; when
// every edge is undirected each pair is counted once (the accumulated score
// is halved). Closeness is the reciprocal of the summed distances to every
// reachable vertex, and 0 for a vertex that reaches none. Isolates get 0
// for both.
//
// A BrandesCentrality serializes concurrent Calculate calls.
type BrandesCentrality struct {
	mu sync.Mutex
}

// NewBrandesCentrality creates a Brandes centrality calculator.
func NewBrandesCentrality() *BrandesCentrality { return &BrandesCentrality{} }

func (*BrandesCentrality) Name() string                   { return NameBrandes }
func (*BrandesCentrality) RequiresMergedDuplicates() bool { return true }
func (*BrandesCentrality) Steps() int                     { return 2 }

// Calculate implements [Calculator].
func (c *BrandesCentrality) Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p == nil {
		p = NopProgress
	}
	res := newResult(NameBrandes, g, ColumnBetweenness, ColumnCloseness)
	res.setGraph(ColumnMaxGeodesic, 0)
	res.setGraph(ColumnAvgGeodesic, 0)

	adj := newAdjacency(g, false)
	n := adj.len()
	if n == 0 {
		return res, nil
	}

	cb := make([]float64, n)
	closeness := make([]float64, n)
	delta := make([]float64, n)
	bfs := newBFSState(n)
	var geo geodesics

	for s := 0; s < n; s++ {
		if err := checkCancelled(ctx); err != nil {
			return Result{}, err
		}
		bfs.run(adj, s)
		if total := geo.add(bfs); total > 0 {
			closeness[s] = 1 / float64(total)
		}
		accumulate(bfs, s, delta, cb)
		p.Step(s+1, n+1, "shortest paths")
	}
	if err := checkCancelled(ctx); err != nil {
		return Result{}, err
	}

	scale := 1.0
	if allUndirected(g) {
		scale = 0.5
	}
	betweenCol, closeCol := res.Vertices[ColumnBetweenness], res.Vertices[ColumnCloseness]
	for i, id := range adj.ids {
		betweenCol[id] = cb[i] * scale
		closeCol[id] = closeness[i]
	}
	res.setGraph(ColumnMaxGeodesic, float64(geo.max))
	res.setGraph(ColumnAvgGeodesic, geo.average())
	p.Step(n+1, n+1, "collect results")
	return res, nil
}

// accumulate performs the back-propagation phase of Brandes' algorithm for
// source s, adding pair dependencies into cb.
func accumulate(b *bfsState, s int, delta, cb []float64) {
	for _, v := range b.stack {
		delta[v] = 0
	}
	for i := len(b.stack) - 1; i >= 0; i-- {
		w := b.stack[i]
		for _, v := range b.pred[w] {
			delta[v] += (b.sigma[v] / b.sigma[w]) * (1 + delta[w])
		}
		if w != s {
			cb[w] += delta[w]
		}
	}
}

// allUndirected reports whether g has at least one edge and no directed
// edges.
func allUndirected(g *graph.Graph) bool {
	if g.Directedness() == graph.Directed || g.EdgeCount() == 0 {
		return false
	}
	for _, e := range g.Edges() {
		if e.IsDirected() {
			return false
		}
	}
	return true
}
