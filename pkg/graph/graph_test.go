package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		directedness Directedness
		restrictions Restrictions
		wantErr      error
	}{
		{"directed", Directed, RestrictionsNone, nil},
		{"undirected all", Undirected, AllRestrictions, nil},
		{"mixed", Mixed, NoSelfLoops, nil},
		{"bad directedness", Directedness(7), RestrictionsNone, ErrInvalidDirectedness},
		{"bad restrictions", Mixed, Restrictions(0x80), ErrInvalidRestrictions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.directedness, tt.restrictions)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeStructural))
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.directedness, g.Directedness())
			assert.Equal(t, tt.restrictions, g.Restrictions())
			assert.NotEmpty(t, g.InstanceID())
			assert.Zero(t, g.VertexCount())
		})
	}
}

func TestParseDirectedness(t *testing.T) {
	for _, d := range []Directedness{Directed, Undirected, Mixed} {
		got, err := ParseDirectedness(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDirectedness("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirectedness)
}

func TestInstanceIDsDiffer(t *testing.T) {
	a := MustNew(Mixed, RestrictionsNone)
	b := MustNew(Mixed, RestrictionsNone)
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
	assert.NotEqual(t, a.InstanceID(), a.Clone().InstanceID())
}

func TestIDsStrictlyIncrease(t *testing.T) {
	g := MustNew(Mixed, RestrictionsNone)
	var last VertexID
	for range 10 {
		v := g.AddVertex()
		assert.Greater(t, v.ID(), last)
		last = v.ID()
	}

	// Removing the newest vertex must not make its ID available again.
	vs := g.Vertices()
	require.NoError(t, g.RemoveVertex(vs[len(vs)-1]))
	v := g.AddVertex()
	assert.Greater(t, v.ID(), last)

	a, b := vs[0], vs[1]
	e1, err := g.AddEdge(a, b, true)
	require.NoError(t, err)
	require.NoError(t, g.RemoveEdge(e1))
	e2, err := g.AddEdge(a, b, true)
	require.NoError(t, err)
	assert.Greater(t, e2.ID(), e1.ID())
}

func TestAddWithID(t *testing.T) {
	g := MustNew(Undirected, RestrictionsNone)
	v5, err := g.AddVertexWithID(5)
	require.NoError(t, err)
	assert.Equal(t, VertexID(5), v5.ID())

	_, err = g.AddVertexWithID(3)
	assert.ErrorIs(t, err, ErrIDNotIncreasing)

	assert.Equal(t, VertexID(6), g.AddVertex().ID())

	v9, err := g.AddVertexWithID(9)
	require.NoError(t, err)
	e, err := g.AddEdgeWithID(40, v5, v9, false)
	require.NoError(t, err)
	assert.Equal(t, EdgeID(40), e.ID())
	_, err = g.AddEdgeWithID(40, v5, v9, false)
	assert.ErrorIs(t, err, ErrIDNotIncreasing)
}

func TestAddEdgeRejections(t *testing.T) {
	t.Run("nil vertex", func(t *testing.T) {
		g := MustNew(Mixed, RestrictionsNone)
		a := g.AddVertex()
		_, err := g.AddEdge(a, nil, true)
		assert.ErrorIs(t, err, ErrNilVertex)
	})

	t.Run("foreign vertex", func(t *testing.T) {
		g := MustNew(Mixed, RestrictionsNone)
		other := MustNew(Mixed, RestrictionsNone)
		a := g.AddVertex()
		x := other.AddVertex()
		_, err := g.AddEdge(a, x, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrForeignVertex)
		assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeStructural))
		assert.Zero(t, g.EdgeCount())
		assert.Zero(t, other.EdgeCount())
	})

	t.Run("removed vertex", func(t *testing.T) {
		g := MustNew(Mixed, RestrictionsNone)
		a, b := g.AddVertex(), g.AddVertex()
		require.NoError(t, g.RemoveVertex(b))
		_, err := g.AddEdge(a, b, false)
		assert.ErrorIs(t, err, ErrForeignVertex)
	})

	t.Run("directedness", func(t *testing.T) {
		d := MustNew(Directed, RestrictionsNone)
		a, b := d.AddVertex(), d.AddVertex()
		_, err := d.AddEdge(a, b, false)
		assert.ErrorIs(t, err, ErrDirectednessMismatch)

		u := MustNew(Undirected, RestrictionsNone)
		c, e := u.AddVertex(), u.AddVertex()
		_, err = u.AddEdge(c, e, true)
		assert.ErrorIs(t, err, ErrDirectednessMismatch)
	})

	t.Run("self loop", func(t *testing.T) {
		g := MustNew(Undirected, NoSelfLoops)
		a := g.AddVertex()
		_, err := g.AddEdge(a, a, false)
		assert.ErrorIs(t, err, ErrSelfLoopNotAllowed)

		free := MustNew(Undirected, RestrictionsNone)
		b := free.AddVertex()
		e, err := free.AddEdge(b, b, false)
		require.NoError(t, err)
		assert.True(t, e.IsSelfLoop())
	})
}

func TestDuplicateEdges(t *testing.T) {
	tests := []struct {
		name     string
		first    bool // first edge directed, a -> b
		second   bool // second edge directed
		reversed bool // second edge b -> a
		dup      bool
	}{
		{"directed same direction", true, true, false, true},
		{"directed opposite", true, true, true, false},
		{"undirected same", false, false, false, true},
		{"undirected reversed", false, false, true, true},
		{"mixed reversed", true, false, true, true},
		{"mixed same", false, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := MustNew(Mixed, NoDuplicateEdges)
			a, b := g.AddVertex(), g.AddVertex()
			_, err := g.AddEdge(a, b, tt.first)
			require.NoError(t, err)

			v1, v2 := a, b
			if tt.reversed {
				v1, v2 = b, a
			}
			_, err = g.AddEdge(v1, v2, tt.second)
			if tt.dup {
				assert.ErrorIs(t, err, ErrDuplicateEdgeNotAllowed)
				assert.Equal(t, 1, g.EdgeCount())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 2, g.EdgeCount())
			}
		})
	}
}

// Mixed graph with restrictions none: three parallel edges are all kept.
func TestParallelEdgesAllowed(t *testing.T) {
	g := MustNew(Mixed, RestrictionsNone)
	a, b := g.AddNamedVertex("a"), g.AddNamedVertex("b")
	e1, _ := g.AddEdge(a, b, true)
	e2, _ := g.AddEdge(a, b, true)
	e3, _ := g.AddEdge(b, a, false)

	assert.Equal(t, []*Edge{e1, e2, e3}, g.ConnectingEdges(a, b))
	assert.Equal(t, []*Edge{e1, e2, e3}, g.ConnectingEdges(b, a))
	assert.Equal(t, 3, g.Degree(a))
	assert.True(t, e1.IsDuplicateOf(e2))
	assert.True(t, e1.IsDuplicateOf(e3))
	assert.True(t, g.HasDuplicateEdges())
	assert.Len(t, g.DuplicatesOf(e3), 2)
}

func TestIncidence(t *testing.T) {
	g := MustNew(Mixed, RestrictionsNone)
	a, b, c := g.AddNamedVertex("a"), g.AddNamedVertex("b"), g.AddNamedVertex("c")
	ab, _ := g.AddEdge(a, b, true)
	bc, _ := g.AddEdge(b, c, false)
	loop, _ := g.AddEdge(b, b, true)

	assert.Equal(t, []*Edge{ab, bc, loop}, g.IncidentEdges(b))
	assert.Equal(t, []*Edge{bc, loop}, g.OutgoingEdges(b))
	assert.Equal(t, []*Edge{ab, bc, loop}, g.IncomingEdges(b))
	assert.Equal(t, []*Vertex{a, c, b}, g.AdjacentVertices(b))
	assert.Equal(t, []*Vertex{b}, g.Successors(a))
	assert.Empty(t, g.Predecessors(a))
	assert.Equal(t, 4, g.Degree(b))
	assert.Equal(t, 2, g.InDegree(b))
	assert.Equal(t, 1, g.OutDegree(b))
	assert.Equal(t, []*Edge{loop}, g.ConnectingEdges(b, b))
	assert.Empty(t, g.ConnectingEdges(a, c))
	assert.True(t, g.HasSelfLoops())
	assert.Nil(t, g.IncidentEdges(MustNew(Mixed, RestrictionsNone).AddVertex()))
}

func TestRemoveEdge(t *testing.T) {
	g := MustNew(Undirected, RestrictionsNone)
	a, b := g.AddVertex(), g.AddVertex()
	e, _ := g.AddEdge(a, b, false)
	require.NoError(t, e.Metadata().Set("weight", 2.0))

	require.NoError(t, g.RemoveEdge(e))
	assert.Zero(t, g.EdgeCount())
	assert.Empty(t, g.IncidentEdges(a))
	assert.Nil(t, e.Graph())
	assert.Zero(t, e.Metadata().Len())
	_, ok := g.Edge(e.ID())
	assert.False(t, ok)

	assert.ErrorIs(t, g.RemoveEdge(e), ErrForeignEdge)
	assert.ErrorIs(t, g.RemoveEdge(nil), ErrNilEdge)
}

func TestRemoveVertex(t *testing.T) {
	g := MustNew(Mixed, RestrictionsNone)
	a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
	g.AddEdge(a, b, true)
	bc, _ := g.AddEdge(b, c, false)
	ca, _ := g.AddEdge(c, a, true)

	require.NoError(t, g.RemoveVertex(b))
	assert.Equal(t, 2, g.VertexCount())
	assert.Equal(t, []*Edge{ca}, g.Edges())
	assert.Equal(t, []*Edge{ca}, g.IncidentEdges(a))
	assert.Nil(t, bc.Graph())
	assert.False(t, g.Contains(b))
	_, ok := g.Vertex(b.ID())
	assert.False(t, ok)
}

func TestLookups(t *testing.T) {
	g := MustNew(Undirected, RestrictionsNone)
	a := g.AddNamedVertex("alpha")
	g.AddNamedVertex("beta")
	g.AddNamedVertex("alpha")

	got, ok := g.VertexByName("alpha")
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = g.VertexByName("gamma")
	assert.False(t, ok)

	byID, ok := g.Vertex(a.ID())
	require.True(t, ok)
	assert.Same(t, a, byID)
	assert.Equal(t, []VertexID{1, 2, 3}, g.VertexIDs())
	assert.Equal(t, "alpha", a.Label())
	assert.Equal(t, "4", g.AddVertex().Label())
}

func TestClone(t *testing.T) {
	g := MustNew(Mixed, NoSelfLoops)
	a, b := g.AddNamedVertex("a"), g.AddNamedVertex("b")
	a.SetLocation(r2.Vec{X: 1, Y: 2})
	require.NoError(t, a.Metadata().Set("color", "red"))
	SetValue(a.Metadata(), LockVertexLocation, true)
	e, _ := g.AddEdge(a, b, true)
	require.NoError(t, e.Metadata().Set("weight", 3.0))
	require.NoError(t, g.Metadata().Set("title", "demo"))

	c := g.Clone()
	assert.Equal(t, g.Directedness(), c.Directedness())
	assert.Equal(t, g.Restrictions(), c.Restrictions())
	assert.Equal(t, g.VertexIDs(), c.VertexIDs())

	ca, _ := c.Vertex(a.ID())
	assert.NotSame(t, a, ca)
	assert.Equal(t, r2.Vec{X: 1, Y: 2}, ca.Location())
	assert.True(t, ca.IsLocked())
	color, _ := ca.Metadata().Get("color")
	assert.Equal(t, "red", color)

	ce, _ := c.Edge(e.ID())
	assert.Same(t, ca, ce.Vertex1())
	assert.Equal(t, []*Edge{ce}, c.IncidentEdges(ca))

	// Edits on the copy stay on the copy.
	require.NoError(t, ca.Metadata().Set("color", "blue"))
	color, _ = a.Metadata().Get("color")
	assert.Equal(t, "red", color)

	// ID allocation continues after the source's last ID.
	assert.Equal(t, VertexID(3), c.AddVertex().ID())
	_, err := c.AddEdge(ca, ca, true)
	assert.True(t, errors.Is(err, ErrSelfLoopNotAllowed))
}

func TestLocations(t *testing.T) {
	g := MustNew(Undirected, RestrictionsNone)
	a, b := g.AddVertex(), g.AddVertex()
	g.SetLocations(map[VertexID]r2.Vec{a.ID(): {X: 1}, 99: {X: 5}})
	assert.Equal(t, map[VertexID]r2.Vec{a.ID(): {X: 1}, b.ID(): {}}, g.Locations())
}
