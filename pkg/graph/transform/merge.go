package transform

import "github.com/matzehuels/netgraph/pkg/graph"

// MergeStats describes what [MergeDuplicateEdges] collapsed.
type MergeStats struct {
	// Multiplicity maps the ID of each kept edge that absorbed duplicates to
	// the size of its group (always >= 2). Edges without duplicates are
	// absent.
	Multiplicity map[graph.EdgeID]int

	// Removed is the number of dropped edges.
	Removed int
}

// DuplicateGroups partitions the edges of g into groups of duplicates. Each
// group starts with its kept (earliest) edge; groups appear in the order of
// their first edge. Edges without duplicates form singleton groups.
func DuplicateGroups(g *graph.Graph) [][]*graph.Edge {
	var groups [][]*graph.Edge
	groupOf := make(map[graph.EdgeID]int)
	for _, e := range g.Edges() {
		idx := -1
		for _, c := range g.ConnectingEdges(e.Vertex1(), e.Vertex2()) {
			if c.ID() >= e.ID() {
				break
			}
			gi, kept := groupOf[c.ID()]
			if kept && groups[gi][0] == c && e.IsDuplicateOf(c) {
				idx = gi
				break
			}
		}
		if idx < 0 {
			groupOf[e.ID()] = len(groups)
			groups = append(groups, []*graph.Edge{e})
			continue
		}
		groups[idx] = append(groups[idx], e)
	}
	return groups
}

// MergeDuplicateEdges returns a copy of g in which every group of duplicate
// edges is reduced to its first edge. Vertex and kept edge IDs, names,
// locations and metadata are preserved.
func MergeDuplicateEdges(g *graph.Graph) (*graph.Graph, MergeStats) {
	stats := MergeStats{Multiplicity: make(map[graph.EdgeID]int)}
	out := graph.NewEmptyLike(g)
	copyVertices(out, g, nil)
	for _, group := range DuplicateGroups(g) {
		e := group[0]
		v1, v2, _ := endpoints(out, e)
		ce := must(out.AddEdgeWithID(e.ID(), v1, v2, e.IsDirected()))
		*ce.Metadata() = *e.Metadata().Clone()
		if len(group) > 1 {
			stats.Multiplicity[e.ID()] = len(group)
			stats.Removed += len(group) - 1
		}
	}
	return out, stats
}
