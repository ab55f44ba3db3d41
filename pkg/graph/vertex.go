package graph

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vertex is a graph node. It carries an ID, an optional name, a 2D
// location and a metadata bag. Vertices are created by [Graph.AddVertex].
type Vertex struct {
	id       VertexID
	name     string
	location r2.Vec
	graph    *Graph
	meta     Metadata
}

// ID returns the vertex ID, unique within its graph.
func (v *Vertex) ID() VertexID { return v.id }

// Name returns the vertex name, which may be empty.
func (v *Vertex) Name() string { return v.name }

// SetName sets the vertex name.
func (v *Vertex) SetName(name string) { v.name = name }

// Location returns the vertex position in drawing coordinates.
func (v *Vertex) Location() r2.Vec { return v.location }

// SetLocation sets the vertex position.
func (v *Vertex) SetLocation(p r2.Vec) { v.location = p }

// Graph returns the owning graph, or nil once the vertex has been removed.
func (v *Vertex) Graph() *Graph { return v.graph }

// Metadata returns the vertex's metadata bag. It is never nil.
func (v *Vertex) Metadata() *Metadata { return &v.meta }

// IsLocked reports whether the vertex carries a true [LockVertexLocation].
// A value of the wrong type is treated as unlocked.
func (v *Vertex) IsLocked() bool {
	locked, _, _ := TryGetValue(&v.meta, LockVertexLocation)
	return locked
}

// Label returns the name if set, otherwise the ID in decimal.
func (v *Vertex) Label() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprint(int64(v.id))
}

func (v *Vertex) String() string {
	if v.name != "" {
		return fmt.Sprintf("vertex %d (%s)", v.id, v.name)
	}
	return fmt.Sprintf("vertex %d", v.id)
}
