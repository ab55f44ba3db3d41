package graph

import "fmt"

// Edge connects two vertices of the same graph. For a directed edge
// Vertex1 is the tail and Vertex2 the head. Both vertices may be the same
// vertex (a self-loop). Edges are created by [Graph.AddEdge].
type Edge struct {
	id       EdgeID
	vertex1  *Vertex
	vertex2  *Vertex
	directed bool
	graph    *Graph
	meta     Metadata
}

// ID returns the edge ID, unique within its graph.
func (e *Edge) ID() EdgeID { return e.id }

// Vertex1 returns the first endpoint (the tail of a directed edge).
func (e *Edge) Vertex1() *Vertex { return e.vertex1 }

// Vertex2 returns the second endpoint (the head of a directed edge).
func (e *Edge) Vertex2() *Vertex { return e.vertex2 }

// IsDirected reports whether the edge is directed.
func (e *Edge) IsDirected() bool { return e.directed }

// IsSelfLoop reports whether both endpoints are the same vertex.
func (e *Edge) IsSelfLoop() bool { return e.vertex1 == e.vertex2 }

// Graph returns the owning graph, or nil once the edge has been removed.
func (e *Edge) Graph() *Graph { return e.graph }

// Metadata returns the edge's metadata bag. It is never nil.
func (e *Edge) Metadata() *Metadata { return &e.meta }

// IsIncidentTo reports whether v is one of the edge's endpoints.
func (e *Edge) IsIncidentTo(v *Vertex) bool {
	return e.vertex1 == v || e.vertex2 == v
}

// Adjacent returns the endpoint opposite v. For a self-loop it returns v.
// It returns nil if v is not an endpoint.
func (e *Edge) Adjacent(v *Vertex) *Vertex {
	switch v {
	case e.vertex1:
		return e.vertex2
	case e.vertex2:
		return e.vertex1
	}
	return nil
}

// IsDuplicateOf reports whether e and other join the same vertices such that
// they duplicate each other: when either is undirected the endpoint order is
// ignored, when both are directed the tails and heads must match.
func (e *Edge) IsDuplicateOf(other *Edge) bool {
	if other == nil || e == other {
		return false
	}
	return e.duplicates(other.vertex1, other.vertex2, other.directed)
}

func (e *Edge) duplicates(v1, v2 *Vertex, isDirected bool) bool {
	if e.directed && isDirected {
		return e.vertex1 == v1 && e.vertex2 == v2
	}
	return (e.vertex1 == v1 && e.vertex2 == v2) || (e.vertex1 == v2 && e.vertex2 == v1)
}

func (e *Edge) String() string {
	arrow := "--"
	if e.directed {
		arrow = "->"
	}
	return fmt.Sprintf("edge %d (%d %s %d)", e.id, e.vertex1.id, arrow, e.vertex2.id)
}
