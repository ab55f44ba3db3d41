package transform

import "github.com/matzehuels/netgraph/pkg/graph"

// copyVertices adds every kept vertex of src to dst, preserving ID, name,
// location and metadata. dst must be empty.
func copyVertices(dst, src *graph.Graph, keep func(*graph.Vertex) bool) {
	*dst.Metadata() = *src.Metadata().Clone()
	for _, v := range src.Vertices() {
		if keep != nil && !keep(v) {
			continue
		}
		cv := must(dst.AddVertexWithID(v.ID()))
		cv.SetName(v.Name())
		cv.SetLocation(v.Location())
		*cv.Metadata() = *v.Metadata().Clone()
	}
}

// endpoints returns the copies of e's endpoints in dst, or false if either
// was filtered out.
func endpoints(dst *graph.Graph, e *graph.Edge) (*graph.Vertex, *graph.Vertex, bool) {
	v1, ok1 := dst.Vertex(e.Vertex1().ID())
	v2, ok2 := dst.Vertex(e.Vertex2().ID())
	return v1, v2, ok1 && ok2
}

// must unwraps graph mutations whose preconditions the caller has already
// established. An error here is a bug in this package.
func must[T any](v T, err error) T {
	if err != nil {
		panic("transform: " + err.Error())
	}
	return v
}
