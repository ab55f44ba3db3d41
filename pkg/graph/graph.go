package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
)

var (
	// ErrInvalidDirectedness is returned by [New] for an unknown directedness.
	ErrInvalidDirectedness = errors.New("invalid directedness")

	// ErrInvalidRestrictions is returned by [New] when the restriction flags
	// are not a subset of [AllRestrictions].
	ErrInvalidRestrictions = errors.New("invalid restrictions")

	// ErrNilVertex is returned when a nil vertex is passed to a graph method.
	ErrNilVertex = errors.New("vertex is nil")

	// ErrNilEdge is returned when a nil edge is passed to a graph method.
	ErrNilEdge = errors.New("edge is nil")

	// ErrForeignVertex is returned when a vertex does not belong to the graph.
	// This includes vertices of other graph instances and removed vertices.
	ErrForeignVertex = errors.New("vertex does not belong to this graph")

	// ErrForeignEdge is returned when an edge does not belong to the graph.
	ErrForeignEdge = errors.New("edge does not belong to this graph")

	// ErrDirectednessMismatch is returned when an edge's directedness is not
	// allowed by the graph's [Directedness].
	ErrDirectednessMismatch = errors.New("edge directedness not allowed by graph")

	// ErrSelfLoopNotAllowed is returned for a self-loop in a graph created
	// with [NoSelfLoops].
	ErrSelfLoopNotAllowed = errors.New("self-loop not allowed")

	// ErrDuplicateEdgeNotAllowed is returned for a duplicate edge in a graph
	// created with [NoDuplicateEdges].
	ErrDuplicateEdgeNotAllowed = errors.New("duplicate edge not allowed")

	// ErrIDNotIncreasing is returned by [Graph.AddVertexWithID] and
	// [Graph.AddEdgeWithID] when the requested ID would break insertion order.
	ErrIDNotIncreasing = errors.New("ID must be greater than every previously assigned ID")
)

// Directedness describes which kinds of edges a graph accepts.
type Directedness int

const (
	// Directed graphs accept only directed edges.
	Directed Directedness = iota
	// Undirected graphs accept only undirected edges.
	Undirected
	// Mixed graphs accept both.
	Mixed
)

// String returns the lowercase name of d.
func (d Directedness) String() string {
	switch d {
	case Directed:
		return "directed"
	case Undirected:
		return "undirected"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("directedness(%d)", int(d))
	}
}

// Valid reports whether d is one of the defined values.
func (d Directedness) Valid() bool { return d >= Directed && d <= Mixed }

// Allows reports whether an edge with the given directedness may be added.
func (d Directedness) Allows(isDirected bool) bool {
	switch d {
	case Directed:
		return isDirected
	case Undirected:
		return !isDirected
	default:
		return true
	}
}

// ParseDirectedness parses the output of [Directedness.String].
func ParseDirectedness(s string) (Directedness, error) {
	switch s {
	case "directed":
		return Directed, nil
	case "undirected":
		return Undirected, nil
	case "mixed":
		return Mixed, nil
	}
	return 0, nxerrors.Structural(ErrInvalidDirectedness, "parse %q", s)
}

// Restrictions are construction-time flags limiting which edges a graph accepts.
type Restrictions uint8

const (
	// NoDuplicateEdges rejects duplicate edges.
	NoDuplicateEdges Restrictions = 1 << iota
	// NoSelfLoops rejects self-loops.
	NoSelfLoops

	// RestrictionsNone allows duplicate edges and self-loops.
	RestrictionsNone Restrictions = 0
	// AllRestrictions is every defined flag.
	AllRestrictions = NoDuplicateEdges | NoSelfLoops
)

// Has reports whether every flag in f is set in r.
func (r Restrictions) Has(f Restrictions) bool { return r&f == f }

// VertexID identifies a vertex within its graph.
type VertexID int64

// EdgeID identifies an edge within its graph.
type EdgeID int64

// Graph is a network graph with explicit, addressable vertex and edge
// collections. The zero value is not usable; create graphs with [New].
//
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	instanceID   string
	directedness Directedness
	restrictions Restrictions

	vertices   []*Vertex
	vertexByID map[VertexID]*Vertex
	edges      []*Edge
	edgeByID   map[EdgeID]*Edge

	// incident is derived from edges. Additions update it in place,
	// removals reset it to nil and it is rebuilt on the next read.
	incident map[VertexID][]*Edge

	lastVertexID VertexID
	lastEdgeID   EdgeID

	meta Metadata
}

// New creates an empty graph. It fails with a STRUCTURAL_VIOLATION when
// directedness is unknown or restrictions contains undefined flags.
func New(directedness Directedness, restrictions Restrictions) (*Graph, error) {
	if !directedness.Valid() {
		return nil, nxerrors.Structural(ErrInvalidDirectedness, "create graph with %s", directedness)
	}
	if restrictions&^AllRestrictions != 0 {
		return nil, nxerrors.Structural(ErrInvalidRestrictions, "create graph with flags %#x", uint8(restrictions))
	}
	return &Graph{
		instanceID:   uuid.NewString(),
		directedness: directedness,
		restrictions: restrictions,
		vertexByID:   make(map[VertexID]*Vertex),
		edgeByID:     make(map[EdgeID]*Edge),
		incident:     make(map[VertexID][]*Edge),
	}, nil
}

// MustNew is like [New] but panics on error. Intended for tests and
// package-level fixtures with constant arguments.
func MustNew(directedness Directedness, restrictions Restrictions) *Graph {
	g, err := New(directedness, restrictions)
	if err != nil {
		panic(err)
	}
	return g
}

// InstanceID returns a process-unique identifier for this graph instance.
// Results computed for one instance are never valid for another.
func (g *Graph) InstanceID() string { return g.instanceID }

// Directedness returns the graph's directedness.
func (g *Graph) Directedness() Directedness { return g.directedness }

// Restrictions returns the graph's construction-time restriction flags.
func (g *Graph) Restrictions() Restrictions { return g.restrictions }

// Metadata returns the graph-level metadata bag. It is never nil.
func (g *Graph) Metadata() *Metadata { return &g.meta }

// AddVertex adds a vertex with a fresh ID. O(1).
func (g *Graph) AddVertex() *Vertex {
	return g.insertVertex(g.lastVertexID + 1)
}

// AddNamedVertex adds a vertex with a fresh ID and the given name.
func (g *Graph) AddNamedVertex(name string) *Vertex {
	v := g.AddVertex()
	v.name = name
	return v
}

// AddVertexWithID adds a vertex with a caller-chosen ID. The ID must be
// greater than every vertex ID the graph has assigned so far, which keeps
// IDs strictly increasing with insertion order. Used by copies and
// importers that preserve IDs.
func (g *Graph) AddVertexWithID(id VertexID) (*Vertex, error) {
	if id <= g.lastVertexID {
		return nil, nxerrors.Structural(ErrIDNotIncreasing, "add vertex %d (last %d)", id, g.lastVertexID)
	}
	return g.insertVertex(id), nil
}

func (g *Graph) insertVertex(id VertexID) *Vertex {
	v := &Vertex{id: id, graph: g}
	g.lastVertexID = id
	g.vertices = append(g.vertices, v)
	g.vertexByID[id] = v
	if g.incident != nil {
		g.incident[id] = nil
	}
	return v
}

// AddEdge connects v1 and v2. For a directed edge v1 is the tail and v2 the
// head. It fails with a STRUCTURAL_VIOLATION if either vertex is nil or not a
// member of g, if the graph's directedness forbids the edge, or if the
// edge is a self-loop or duplicate the graph's restrictions forbid.
func (g *Graph) AddEdge(v1, v2 *Vertex, isDirected bool) (*Edge, error) {
	if err := g.checkEdge(v1, v2, isDirected); err != nil {
		return nil, err
	}
	return g.insertEdge(g.lastEdgeID+1, v1, v2, isDirected), nil
}

// AddEdgeWithID is like [Graph.AddEdge] with a caller-chosen ID, which must
// be greater than every edge ID assigned so far.
func (g *Graph) AddEdgeWithID(id EdgeID, v1, v2 *Vertex, isDirected bool) (*Edge, error) {
	if id <= g.lastEdgeID {
		return nil, nxerrors.Structural(ErrIDNotIncreasing, "add edge %d (last %d)", id, g.lastEdgeID)
	}
	if err := g.checkEdge(v1, v2, isDirected); err != nil {
		return nil, err
	}
	return g.insertEdge(id, v1, v2, isDirected), nil
}

func (g *Graph) checkEdge(v1, v2 *Vertex, isDirected bool) error {
	if v1 == nil || v2 == nil {
		return nxerrors.Structural(ErrNilVertex, "add edge")
	}
	if !g.Contains(v1) {
		return nxerrors.Structural(ErrForeignVertex, "add edge: vertex %d", v1.id)
	}
	if !g.Contains(v2) {
		return nxerrors.Structural(ErrForeignVertex, "add edge: vertex %d", v2.id)
	}
	if !g.directedness.Allows(isDirected) {
		return nxerrors.Structural(ErrDirectednessMismatch, "add %s edge to %s graph", edgeKind(isDirected), g.directedness)
	}
	if v1 == v2 && g.restrictions.Has(NoSelfLoops) {
		return nxerrors.Structural(ErrSelfLoopNotAllowed, "add edge %d -> %d", v1.id, v2.id)
	}
	if g.restrictions.Has(NoDuplicateEdges) {
		for _, e := range g.incidentIndex()[v1.id] {
			if e.duplicates(v1, v2, isDirected) {
				return nxerrors.Structural(ErrDuplicateEdgeNotAllowed, "add edge %d -> %d duplicates edge %d", v1.id, v2.id, e.id)
			}
		}
	}
	return nil
}

func edgeKind(isDirected bool) string {
	if isDirected {
		return "directed"
	}
	return "undirected"
}

func (g *Graph) insertEdge(id EdgeID, v1, v2 *Vertex, isDirected bool) *Edge {
	e := &Edge{id: id, vertex1: v1, vertex2: v2, directed: isDirected, graph: g}
	g.lastEdgeID = id
	g.edges = append(g.edges, e)
	g.edgeByID[id] = e
	if g.incident != nil {
		g.incident[v1.id] = append(g.incident[v1.id], e)
		if v2 != v1 {
			g.incident[v2.id] = append(g.incident[v2.id], e)
		}
	}
	return e
}

// RemoveEdge removes e from the graph, purging it from the incident-edge
// index and clearing its metadata. The edge is unusable afterwards.
func (g *Graph) RemoveEdge(e *Edge) error {
	if e == nil {
		return nxerrors.Structural(ErrNilEdge, "remove edge")
	}
	if e.graph != g {
		return nxerrors.Structural(ErrForeignEdge, "remove edge %d", e.id)
	}
	g.edges = slices.DeleteFunc(g.edges, func(x *Edge) bool { return x == e })
	delete(g.edgeByID, e.id)
	g.detachEdge(e)
	g.incident = nil
	return nil
}

// RemoveVertex removes v and every edge incident to it.
func (g *Graph) RemoveVertex(v *Vertex) error {
	if v == nil {
		return nxerrors.Structural(ErrNilVertex, "remove vertex")
	}
	if !g.Contains(v) {
		return nxerrors.Structural(ErrForeignVertex, "remove vertex %d", v.id)
	}
	doomed := g.IncidentEdges(v)
	g.edges = slices.DeleteFunc(g.edges, func(e *Edge) bool { return e.IsIncidentTo(v) })
	for _, e := range doomed {
		delete(g.edgeByID, e.id)
		g.detachEdge(e)
	}
	g.vertices = slices.DeleteFunc(g.vertices, func(x *Vertex) bool { return x == v })
	delete(g.vertexByID, v.id)
	v.graph = nil
	v.meta.Clear()
	g.incident = nil
	return nil
}

func (g *Graph) detachEdge(e *Edge) {
	e.graph = nil
	e.meta.Clear()
}

// Contains reports whether v is a live vertex of g.
func (g *Graph) Contains(v *Vertex) bool {
	return v != nil && v.graph == g
}

// ContainsEdge reports whether e is a live edge of g.
func (g *Graph) ContainsEdge(e *Edge) bool {
	return e != nil && e.graph == g
}

// Vertex returns the vertex with the given ID.
func (g *Graph) Vertex(id VertexID) (*Vertex, bool) {
	v, ok := g.vertexByID[id]
	return v, ok
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	e, ok := g.edgeByID[id]
	return e, ok
}

// VertexByName returns the first vertex, in insertion order, with the given
// name. Names are not required to be unique.
func (g *Graph) VertexByName(name string) (*Vertex, bool) {
	for _, v := range g.vertices {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

// Vertices returns the vertices in insertion (and therefore ID) order.
// The slice is a copy; the vertices are live.
func (g *Graph) Vertices() []*Vertex { return slices.Clone(g.vertices) }

// Edges returns the edges in insertion (and therefore ID) order.
// The slice is a copy; the edges are live.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// VertexIDs returns every vertex ID in ascending order.
func (g *Graph) VertexIDs() []VertexID {
	ids := make([]VertexID, len(g.vertices))
	for i, v := range g.vertices {
		ids[i] = v.id
	}
	return ids
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Clone returns a deep copy of g: same directedness, restrictions, IDs,
// names, locations and metadata, but a new instance ID. Metadata maps are
// copied; the values inside them are shared.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		instanceID:   uuid.NewString(),
		directedness: g.directedness,
		restrictions: g.restrictions,
		vertices:     make([]*Vertex, 0, len(g.vertices)),
		vertexByID:   make(map[VertexID]*Vertex, len(g.vertices)),
		edges:        make([]*Edge, 0, len(g.edges)),
		edgeByID:     make(map[EdgeID]*Edge, len(g.edges)),
		incident:     make(map[VertexID][]*Edge, len(g.vertices)),
		lastVertexID: g.lastVertexID,
		lastEdgeID:   g.lastEdgeID,
		meta:         *g.meta.Clone(),
	}
	for _, v := range g.vertices {
		cv := &Vertex{id: v.id, name: v.name, location: v.location, graph: c, meta: *v.meta.Clone()}
		c.vertices = append(c.vertices, cv)
		c.vertexByID[cv.id] = cv
		c.incident[cv.id] = nil
	}
	for _, e := range g.edges {
		ce := &Edge{
			id:       e.id,
			vertex1:  c.vertexByID[e.vertex1.id],
			vertex2:  c.vertexByID[e.vertex2.id],
			directed: e.directed,
			graph:    c,
			meta:     *e.meta.Clone(),
		}
		c.edges = append(c.edges, ce)
		c.edgeByID[ce.id] = ce
		c.incident[ce.vertex1.id] = append(c.incident[ce.vertex1.id], ce)
		if ce.vertex2 != ce.vertex1 {
			c.incident[ce.vertex2.id] = append(c.incident[ce.vertex2.id], ce)
		}
	}
	return c
}

// NewEmptyLike returns an empty graph with g's directedness and restrictions.
func NewEmptyLike(g *Graph) *Graph {
	return MustNew(g.directedness, g.restrictions)
}

// SetLocations assigns locations by vertex ID. Unknown IDs are ignored.
func (g *Graph) SetLocations(locations map[VertexID]r2.Vec) {
	for id, p := range locations {
		if v, ok := g.vertexByID[id]; ok {
			v.location = p
		}
	}
}

// Locations returns every vertex location keyed by vertex ID.
func (g *Graph) Locations() map[VertexID]r2.Vec {
	out := make(map[VertexID]r2.Vec, len(g.vertices))
	for _, v := range g.vertices {
		out[v.id] = v.location
	}
	return out
}
