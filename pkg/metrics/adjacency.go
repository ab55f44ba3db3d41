package metrics

import (
	"slices"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// adjacency is an index-addressed snapshot of a graph's traversable
// neighborhoods. Neighbor lists are distinct, sorted and exclude the
// vertex itself, so duplicate edges and self-loops have no effect on
// path counts.
type adjacency struct {
	ids   []graph.VertexID
	index map[graph.VertexID]int
	out   [][]int
}

// newAdjacency builds the adjacency of g. Directed edges are traversed from
// tail to head unless undirected is set; undirected edges both ways.
func newAdjacency(g *graph.Graph, undirected bool) *adjacency {
	ids := g.VertexIDs()
	a := &adjacency{
		ids:   ids,
		index: make(map[graph.VertexID]int, len(ids)),
		out:   make([][]int, len(ids)),
	}
	for i, id := range ids {
		a.index[id] = i
	}
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		u, w := a.index[e.Vertex1().ID()], a.index[e.Vertex2().ID()]
		a.out[u] = append(a.out[u], w)
		if undirected || !e.IsDirected() {
			a.out[w] = append(a.out[w], u)
		}
	}
	for i := range a.out {
		slices.Sort(a.out[i])
		a.out[i] = slices.Compact(a.out[i])
	}
	return a
}

func (a *adjacency) len() int { return len(a.ids) }

// bfsState holds the per-source buffers of a breadth-first search, reused
// across sources.
type bfsState struct {
	dist  []int
	sigma []float64
	pred  [][]int
	stack []int
	queue []int
}

func newBFSState(n int) *bfsState {
	return &bfsState{
		dist:  make([]int, n),
		sigma: make([]float64, n),
		pred:  make([][]int, n),
		stack: make([]int, 0, n),
		queue: make([]int, 0, n),
	}
}

// run performs the BFS phase of Brandes' algorithm from s. Afterwards
// stack holds the visited vertices in non-decreasing distance order, sigma
// the shortest-path counts and pred the shortest-path predecessors.
func (b *bfsState) run(a *adjacency, s int) {
	for i := range b.dist {
		b.dist[i] = -1
		b.sigma[i] = 0
		b.pred[i] = b.pred[i][:0]
	}
	b.stack = b.stack[:0]
	b.queue = append(b.queue[:0], s)
	b.dist[s] = 0
	b.sigma[s] = 1

	for head := 0; head < len(b.queue); head++ {
		v := b.queue[head]
		b.stack = append(b.stack, v)
		for _, w := range a.out[v] {
			if b.dist[w] < 0 {
				b.dist[w] = b.dist[v] + 1
				b.queue = append(b.queue, w)
			}
			if b.dist[w] == b.dist[v]+1 {
				b.sigma[w] += b.sigma[v]
				b.pred[w] = append(b.pred[w], v)
			}
		}
	}
}

// geodesics accumulates shortest-path distance statistics over sources.
type geodesics struct {
	max   int
	sum   float64
	pairs int
}

// add records the distances found by the last BFS run from a source and
// returns their sum.
func (gd *geodesics) add(b *bfsState) int {
	total := 0
	for _, v := range b.stack {
		d := b.dist[v]
		if d <= 0 {
			continue
		}
		total += d
		gd.pairs++
		gd.max = max(gd.max, d)
	}
	gd.sum += float64(total)
	return total
}

func (gd *geodesics) average() float64 {
	if gd.pairs == 0 {
		return 0
	}
	return gd.sum / float64(gd.pairs)
}
