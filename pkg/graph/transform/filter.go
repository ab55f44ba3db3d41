package transform

import "github.com/matzehuels/netgraph/pkg/graph"

// Filter returns the subgraph of g induced by the vertices keep accepts:
// the kept vertices and every edge whose endpoints are both kept. IDs,
// names, locations and metadata are preserved. A nil keep copies g.
func Filter(g *graph.Graph, keep func(*graph.Vertex) bool) *graph.Graph {
	out := graph.NewEmptyLike(g)
	copyVertices(out, g, keep)
	for _, e := range g.Edges() {
		v1, v2, ok := endpoints(out, e)
		if !ok {
			continue
		}
		ce := must(out.AddEdgeWithID(e.ID(), v1, v2, e.IsDirected()))
		*ce.Metadata() = *e.Metadata().Clone()
	}
	return out
}

// FilterIDs is [Filter] keeping the vertices whose IDs are listed.
func FilterIDs(g *graph.Graph, ids []graph.VertexID) *graph.Graph {
	set := make(map[graph.VertexID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Filter(g, func(v *graph.Vertex) bool {
		_, ok := set[v.ID()]
		return ok
	})
}
