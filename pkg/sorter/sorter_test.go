package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

var weight = graph.NewKey[float64]("Weight")

func weighted(t *testing.T, values ...float64) (*graph.Graph, []*graph.Vertex) {
	t.Helper()
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	vs := make([]*graph.Vertex, len(values))
	for i, w := range values {
		vs[i] = g.AddVertex()
		graph.SetValue(vs[i].Metadata(), weight, w)
	}
	return g, vs
}

func ids(vs []*graph.Vertex) []graph.VertexID {
	out := make([]graph.VertexID, len(vs))
	for i, v := range vs {
		out[i] = v.ID()
	}
	return out
}

func TestByMetadata(t *testing.T) {
	_, vs := weighted(t, 3, 1, 2)

	asc, err := ByMetadata(weight, false).Sort(vs)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{2, 3, 1}, ids(asc))

	desc, err := ByMetadata(weight, true).Sort(vs)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{1, 3, 2}, ids(desc))

	assert.Equal(t, []graph.VertexID{1, 2, 3}, ids(vs), "input untouched")
}

func TestByMetadataTiesByID(t *testing.T) {
	_, vs := weighted(t, 5, 1, 5, 1)
	out, err := ByMetadata(weight, false).Sort([]*graph.Vertex{vs[2], vs[3], vs[0], vs[1]})
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{2, 4, 1, 3}, ids(out))

	out, err = ByMetadata(weight, true).Sort(vs)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{1, 3, 2, 4}, ids(out))
}

func TestByMetadataMissingKey(t *testing.T) {
	g, vs := weighted(t, 1, 2)
	bare := g.AddVertex()

	_, err := ByMetadata(weight, false).Sort(append(vs, bare))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSortKey)
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeMetadataContract))
	assert.Contains(t, err.Error(), "Weight")
	assert.Contains(t, err.Error(), "vertex 3")
}

func TestByMetadataWrongType(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	v := g.AddVertex()
	require.NoError(t, v.Metadata().Set("Weight", "heavy"))

	_, err := ByMetadata(weight, false).Sort([]*graph.Vertex{v})
	assert.ErrorIs(t, err, ErrMissingSortKey)
}

func TestByComparison(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	a, b, c := g.AddNamedVertex("b"), g.AddNamedVertex("C"), g.AddNamedVertex("a")

	out, err := ByComparison(nil).Sort([]*graph.Vertex{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, []*graph.Vertex{a, b, c}, out)

	out, err = ByName().Sort([]*graph.Vertex{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []*graph.Vertex{c, a, b}, out)

	reverse := ByComparison(func(x, y *graph.Vertex) int { return -CompareID(x, y) })
	out, err = reverse.Sort([]*graph.Vertex{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []*graph.Vertex{c, b, a}, out)
}

func TestChain(t *testing.T) {
	g, vs := weighted(t, 2, 1)
	bare := g.AddVertex()
	all := []*graph.Vertex{bare, vs[0], vs[1]}

	out, err := Chain(ByMetadata(weight, false), ByComparison(nil)).Sort(all)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{1, 2, 3}, ids(out))

	out, err = Chain(ByMetadata(weight, false), ByComparison(nil)).Sort(vs)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{2, 1}, ids(out))
}

func TestSortEmpty(t *testing.T) {
	out, err := ByMetadata(weight, false).Sort(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
