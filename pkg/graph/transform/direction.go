package transform

import "github.com/matzehuels/netgraph/pkg/graph"

// ToUndirected returns an undirected copy of g. Edges joining the same
// vertex pair collapse onto the first one, keeping its ID and metadata.
// Self-loops are kept (one per vertex).
func ToUndirected(g *graph.Graph) *graph.Graph {
	out := graph.MustNew(graph.Undirected, g.Restrictions())
	copyVertices(out, g, nil)
	for _, e := range g.Edges() {
		v1, v2, _ := endpoints(out, e)
		if len(out.ConnectingEdges(v1, v2)) > 0 {
			continue
		}
		ce := must(out.AddEdgeWithID(e.ID(), v1, v2, false))
		*ce.Metadata() = *e.Metadata().Clone()
	}
	return out
}

// ToDirected returns a directed copy of g. Each undirected edge a–b becomes
// a→b followed by b→a; an undirected self-loop becomes a single directed
// loop. Directed edges are copied. Edge IDs are reassigned in the order the
// new edges are created.
func ToDirected(g *graph.Graph) *graph.Graph {
	out := graph.MustNew(graph.Directed, g.Restrictions())
	copyVertices(out, g, nil)
	add := func(v1, v2 *graph.Vertex, src *graph.Edge) {
		ce, err := out.AddEdge(v1, v2, true)
		if err != nil {
			// Only a disallowed duplicate can fail here: a→b already
			// produced by an earlier edge.
			return
		}
		*ce.Metadata() = *src.Metadata().Clone()
	}
	for _, e := range g.Edges() {
		v1, v2, _ := endpoints(out, e)
		add(v1, v2, e)
		if !e.IsDirected() && !e.IsSelfLoop() {
			add(v2, v1, e)
		}
	}
	return out
}
