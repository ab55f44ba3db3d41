// Package graph provides the network graph model used by every other
// netgraph package: a graph of vertices and edges supporting directed,
// undirected and mixed edges, duplicate edges, self-loops and per-element
// typed metadata.
//
// # Overview
//
// A [Graph] owns two insertion-ordered collections, one of [Vertex] and one
// of [Edge] records. Vertices and edges are only ever created through the
// graph ([Graph.AddVertex], [Graph.AddEdge]), which assigns each record an
// integer ID that is unique within the graph, never reused, and strictly
// increasing with insertion order.
//
// # Basic Usage
//
//	g, _ := graph.New(graph.Undirected, graph.NoSelfLoops)
//	a := g.AddNamedVertex("a")
//	b := g.AddNamedVertex("b")
//	if _, err := g.AddEdge(a, b, false); err != nil {
//	    // structural violation
//	}
//	fmt.Println(g.Degree(a)) // 1
//
// # Structural Invariants
//
// [Graph.AddEdge] rejects, with a STRUCTURAL_VIOLATION error:
//   - nil vertices, and vertices that belong to another graph instance
//   - a directed edge in an [Undirected] graph, or an undirected edge in a
//     [Directed] graph ([Mixed] graphs accept both)
//   - self-loops when the graph was created with [NoSelfLoops]
//   - duplicate edges when the graph was created with [NoDuplicateEdges]
//
// Two edges are duplicates when they join the same pair of vertices and
// either at least one of them is undirected, or both are directed with the
// same tail ([Edge.Vertex1]) and head ([Edge.Vertex2]).
//
// # Metadata
//
// Every vertex, edge and graph owns a [Metadata] bag. Values are read through
// typed [Key] tokens with [TryGetValue] and [GetRequiredValue]; reading a
// value with the wrong type is a METADATA_CONTRACT_VIOLATION, never a silent
// default. Keys starting with [ReservedPrefix] belong to netgraph itself
// (layout locks, polar coordinates, curve points) and cannot be created or
// written by name from outside this package; the predefined tokens such as
// [LockVertexLocation] are the only way to reach them.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. A metric or layout run
// assumes exclusive access to the graph for its duration; callers must
// serialize access if other goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage provides graph transformations: duplicate edge
// merging, directed/undirected conversion and vertex filtering.
//
// [transform]: github.com/matzehuels/netgraph/pkg/graph/transform
package graph
