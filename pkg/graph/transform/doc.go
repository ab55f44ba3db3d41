// Package transform provides graph transformations that return modified
// copies of a [graph.Graph]. The source graph is never changed.
//
// # Duplicate Edges
//
// [DuplicateGroups] partitions the edges of a graph into groups of mutual
// duplicates, in edge insertion order. [MergeDuplicateEdges] keeps the first
// edge of each group (with its metadata) and drops the rest; the group sizes
// are reported in [MergeStats] so weights can be recovered. Metric
// calculators that count paths rely on this: parallel edges would otherwise
// multiply shortest-path counts.
//
// In mixed graphs duplication is not transitive (a→b and b→a are distinct,
// while an undirected a–b duplicates both). Groups are formed greedily: each
// edge joins the group of the first earlier kept edge it duplicates.
//
// # Directedness Conversion
//
// [ToUndirected] drops edge direction. Reciprocal directed pairs and any
// other duplicates collapse onto the first edge, whose metadata is kept.
//
// [ToDirected] replaces every undirected edge a–b with a→b and b→a, each
// carrying a copy of the original metadata. Directed edges are copied as is.
//
// # Filtering
//
// [Filter] returns the subgraph induced by the vertices a predicate keeps.
// Vertex and edge IDs are preserved, so results computed on the subgraph can
// be joined back to the source.
//
// # Usage
//
//	merged, stats := transform.MergeDuplicateEdges(g)
//	fmt.Println(stats.Removed, "parallel edges merged")
//
//	core := transform.Filter(g, func(v *graph.Vertex) bool { return g.Degree(v) > 1 })
package transform
