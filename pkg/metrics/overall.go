package metrics

import (
	"context"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/graph/transform"
)

// NameOverall is the registered name of [Overall].
const NameOverall = "overall"

// Overall computes graph-wide summary values: vertex and edge counts,
// self-loops, duplicate edges, weakly connected components, density and
// geodesic distances.
//
// Density uses unique edges that are not self-loops: E/(V(V-1)) for
// directed graphs and 2E/(V(V-1)) otherwise, and is 0 below two vertices.
type Overall struct{}

func (Overall) Name() string                   { return NameOverall }
func (Overall) RequiresMergedDuplicates() bool { return false }
func (Overall) Steps() int                     { return 2 }

// Calculate implements [Calculator].
func (Overall) Calculate(ctx context.Context, g *graph.Graph, p Progress) (Result, error) {
	if err := checkCancelled(ctx); err != nil {
		return Result{}, err
	}
	if p == nil {
		p = NopProgress
	}
	res := newResult(NameOverall, g)
	n := g.VertexCount()

	groups := transform.DuplicateGroups(g)
	selfLoops, withDup, uniqueLinks := 0, 0, 0
	for _, group := range groups {
		if len(group) > 1 {
			withDup += len(group)
		}
		if !group[0].IsSelfLoop() {
			uniqueLinks++
		}
	}
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			selfLoops++
		}
	}
	res.setGraph(ColumnVertices, float64(n))
	res.setGraph(ColumnEdges, float64(g.EdgeCount()))
	res.setGraph(ColumnUniqueEdges, float64(len(groups)))
	res.setGraph(ColumnEdgesWithDuplicates, float64(withDup))
	res.setGraph(ColumnSelfLoops, float64(selfLoops))
	res.setGraph(ColumnDensity, density(g.Directedness(), n, uniqueLinks))

	comps := components(g)
	res.setGraph(ColumnComponents, float64(comps.count))
	res.setGraph(ColumnSingleVertexComponent, float64(comps.singletons))
	res.setGraph(ColumnMaxComponentVertices, float64(comps.maxVertices))
	res.setGraph(ColumnMaxComponentEdges, float64(comps.maxEdges))
	p.Step(1, n+1, "components")

	adj := newAdjacency(g, false)
	bfs := newBFSState(n)
	var geo geodesics
	for s := 0; s < n; s++ {
		if err := checkCancelled(ctx); err != nil {
			return Result{}, err
		}
		bfs.run(adj, s)
		geo.add(bfs)
		p.Step(s+2, n+1, "geodesic distances")
	}
	res.setGraph(ColumnMaxGeodesic, float64(geo.max))
	res.setGraph(ColumnAvgGeodesic, geo.average())
	return res, nil
}

func density(d graph.Directedness, vertices, links int) float64 {
	if vertices < 2 {
		return 0
	}
	possible := float64(vertices) * float64(vertices-1)
	if d != graph.Directed {
		possible /= 2
	}
	return float64(links) / possible
}

type componentStats struct {
	count, singletons     int
	maxVertices, maxEdges int
}

// components computes weakly connected component statistics with a
// union-find over edge endpoints.
func components(g *graph.Graph) componentStats {
	ids := g.VertexIDs()
	parent := make(map[graph.VertexID]graph.VertexID, len(ids))
	for _, id := range ids {
		parent[id] = id
	}
	find := func(x graph.VertexID) graph.VertexID {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range g.Edges() {
		a, b := find(e.Vertex1().ID()), find(e.Vertex2().ID())
		if a != b {
			parent[b] = a
		}
	}

	vertices := make(map[graph.VertexID]int)
	edges := make(map[graph.VertexID]int)
	for _, id := range ids {
		vertices[find(id)]++
	}
	for _, e := range g.Edges() {
		edges[find(e.Vertex1().ID())]++
	}

	var st componentStats
	for root, nv := range vertices {
		st.count++
		if nv == 1 {
			st.singletons++
		}
		st.maxVertices = max(st.maxVertices, nv)
		st.maxEdges = max(st.maxEdges, edges[root])
	}
	return st
}
