package graph

func (g *Graph) incidentIndex() map[VertexID][]*Edge {
	if g.incident != nil {
		return g.incident
	}
	idx := make(map[VertexID][]*Edge, len(g.vertices))
	for _, v := range g.vertices {
		idx[v.id] = nil
	}
	for _, e := range g.edges {
		idx[e.vertex1.id] = append(idx[e.vertex1.id], e)
		if e.vertex2 != e.vertex1 {
			idx[e.vertex2.id] = append(idx[e.vertex2.id], e)
		}
	}
	g.incident = idx
	return idx
}

// IncidentEdges returns every edge touching v, in edge insertion order. A
// self-loop appears once. The result is nil for vertices not in g.
func (g *Graph) IncidentEdges(v *Vertex) []*Edge {
	if !g.Contains(v) {
		return nil
	}
	src := g.incidentIndex()[v.id]
	out := make([]*Edge, len(src))
	copy(out, src)
	return out
}

// OutgoingEdges returns the edges that can be traversed away from v: directed
// edges with v as tail and every undirected incident edge.
func (g *Graph) OutgoingEdges(v *Vertex) []*Edge {
	var out []*Edge
	if !g.Contains(v) {
		return out
	}
	for _, e := range g.incidentIndex()[v.id] {
		if !e.directed || e.vertex1 == v {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns the edges that can be traversed into v: directed
// edges with v as head and every undirected incident edge.
func (g *Graph) IncomingEdges(v *Vertex) []*Edge {
	var out []*Edge
	if !g.Contains(v) {
		return out
	}
	for _, e := range g.incidentIndex()[v.id] {
		if !e.directed || e.vertex2 == v {
			out = append(out, e)
		}
	}
	return out
}

// AdjacentVertices returns the distinct vertices joined to v by an incident
// edge, ordered by first appearance. v itself is included only if it has a
// self-loop.
func (g *Graph) AdjacentVertices(v *Vertex) []*Vertex {
	return adjacentVia(v, g.IncidentEdges(v))
}

// Successors returns the distinct vertices reachable from v in one step.
func (g *Graph) Successors(v *Vertex) []*Vertex {
	return adjacentVia(v, g.OutgoingEdges(v))
}

// Predecessors returns the distinct vertices that reach v in one step.
func (g *Graph) Predecessors(v *Vertex) []*Vertex {
	return adjacentVia(v, g.IncomingEdges(v))
}

func adjacentVia(v *Vertex, edges []*Edge) []*Vertex {
	var out []*Vertex
	seen := make(map[*Vertex]struct{}, len(edges))
	for _, e := range edges {
		u := e.Adjacent(v)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Degree returns the number of edge endpoints at v. A self-loop counts twice.
func (g *Graph) Degree(v *Vertex) int {
	d := 0
	for _, e := range g.IncidentEdges(v) {
		d++
		if e.IsSelfLoop() {
			d++
		}
	}
	return d
}

// InDegree counts directed edges with v as head. Undirected edges are not
// counted; use [Graph.Degree] for those.
func (g *Graph) InDegree(v *Vertex) int {
	n := 0
	for _, e := range g.IncidentEdges(v) {
		if e.directed && e.vertex2 == v {
			n++
		}
	}
	return n
}

// OutDegree counts directed edges with v as tail.
func (g *Graph) OutDegree(v *Vertex) int {
	n := 0
	for _, e := range g.IncidentEdges(v) {
		if e.directed && e.vertex1 == v {
			n++
		}
	}
	return n
}

// ConnectingEdges returns every edge joining v1 and v2 regardless of
// direction, in insertion order. For v1 == v2 it returns v1's self-loops.
func (g *Graph) ConnectingEdges(v1, v2 *Vertex) []*Edge {
	var out []*Edge
	if !g.Contains(v1) || !g.Contains(v2) {
		return out
	}
	for _, e := range g.incidentIndex()[v1.id] {
		if e.Adjacent(v1) == v2 {
			out = append(out, e)
		}
	}
	return out
}

// DuplicatesOf returns the other edges of g that duplicate e.
func (g *Graph) DuplicatesOf(e *Edge) []*Edge {
	var out []*Edge
	if !g.ContainsEdge(e) {
		return out
	}
	for _, x := range g.incidentIndex()[e.vertex1.id] {
		if e.IsDuplicateOf(x) {
			out = append(out, x)
		}
	}
	return out
}

// HasDuplicateEdges reports whether any two edges duplicate each other.
func (g *Graph) HasDuplicateEdges() bool {
	for _, e := range g.edges {
		if len(g.DuplicatesOf(e)) > 0 {
			return true
		}
	}
	return false
}

// HasSelfLoops reports whether any edge is a self-loop.
func (g *Graph) HasSelfLoops() bool {
	for _, e := range g.edges {
		if e.IsSelfLoop() {
			return true
		}
	}
	return false
}
