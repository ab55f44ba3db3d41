package layout

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/sorter"
)

var viewport = r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 200, Y: 100}}

const eps = 1e-9

func assertVec(t *testing.T, want, got r2.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "X")
	assert.InDelta(t, want.Y, got.Y, eps, "Y")
}

func polarVertex(g *graph.Graph, r, angle float64) *graph.Vertex {
	v := g.AddVertex()
	graph.SetValue(v.Metadata(), graph.PolarLayoutCoordinates, graph.SinglePolarCoordinates{R: r, Angle: angle})
	return v
}

func TestPolarNormalized(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	east := polarVertex(g, 1, 0)
	north := polarVertex(g, 0.5, 90)
	clamped := polarVertex(g, 3, 180)
	wrapped := polarVertex(g, 1, -90)
	bare := g.AddVertex()

	l, err := NewPolar(Options{})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, viewport))

	// Center (100, 50); R=1 maps to 50.
	assertVec(t, r2.Vec{X: 150, Y: 50}, east.Location())
	assertVec(t, r2.Vec{X: 100, Y: 75}, north.Location())
	assertVec(t, r2.Vec{X: 50, Y: 50}, clamped.Location())
	assertVec(t, r2.Vec{X: 100, Y: 0}, wrapped.Location())
	assertVec(t, r2.Vec{X: 100, Y: 50}, bare.Location())

	recorded, err := graph.GetRequiredValue(g.Metadata(), graph.LayoutBounds)
	require.NoError(t, err)
	assert.Equal(t, viewport, recorded)
}

func TestPolarAbsolute(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	v := polarVertex(g, 80, 450)
	l, err := NewPolarAbsolute(Options{})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, viewport))
	assertVec(t, r2.Vec{X: 100, Y: 130}, v.Location())
}

func TestPolarToCartesianQuadrants(t *testing.T) {
	pole := r2.Vec{X: 50, Y: 50}
	tests := []struct {
		angle float64
		want  r2.Vec
	}{
		{0, r2.Vec{X: 60, Y: 50}},
		{90, r2.Vec{X: 50, Y: 60}},
		{180, r2.Vec{X: 40, Y: 50}},
		{270, r2.Vec{X: 50, Y: 40}},
		{-270, r2.Vec{X: 50, Y: 60}},
	}
	for _, tt := range tests {
		assertVec(t, tt.want, PolarToCartesian(pole, 10, tt.angle))
	}

	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	v := polarVertex(g, 10, 90)
	l, err := NewPolarAbsolute(Options{})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, r2.Box{Max: r2.Vec{X: 100, Y: 100}}))
	assertVec(t, r2.Vec{X: 50, Y: 60}, v.Location())
}

func TestConstructorsRejectInvalidOptions(t *testing.T) {
	bad := Options{Margin: -1}
	_, err := NewPolar(bad)
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeInvalidLayout))
	_, err = NewPolarAbsolute(bad)
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeInvalidLayout))
	_, err = NewFruchtermanReingold(Options{Iterations: -3})
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeInvalidLayout))
}

func TestNormalizeAngle(t *testing.T) {
	tests := map[float64]float64{0: 0, 360: 0, 450: 90, -90: 270, -720: 0, 359.5: 359.5}
	for in, want := range tests {
		assert.InDelta(t, want, NormalizeAngle(in), eps, "angle %v", in)
	}
}

func TestLockedVerticesNeverMove(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
			locked := polarVertex(g, 1, 45)
			locked.SetLocation(r2.Vec{X: 7, Y: 9})
			graph.SetValue(locked.Metadata(), graph.LockVertexLocation, true)
			free := polarVertex(g, 1, 0)
			other := g.AddVertex()
			g.AddEdge(locked, free, false)
			g.AddEdge(free, other, false)

			l, err := New(name, Options{Iterations: 20})
			require.NoError(t, err)
			require.NoError(t, l.Layout(context.Background(), g, viewport))
			assert.Equal(t, r2.Vec{X: 7, Y: 9}, locked.Location())
		})
	}
}

func TestSubsetOnly(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
			in1 := polarVertex(g, 1, 0)
			in2 := polarVertex(g, 1, 180)
			out := polarVertex(g, 1, 90)
			out.SetLocation(r2.Vec{X: -5, Y: -5})
			g.AddEdge(in1, out, false)
			g.AddEdge(in1, in2, false)
			graph.SetValue(g.Metadata(), graph.LayOutTheseVerticesOnly, []graph.VertexID{in1.ID(), in2.ID()})

			l, err := New(name, Options{Iterations: 20})
			require.NoError(t, err)
			require.NoError(t, l.Layout(context.Background(), g, viewport))
			assert.Equal(t, r2.Vec{X: -5, Y: -5}, out.Location())
			for _, v := range []*graph.Vertex{in1, in2} {
				p := v.Location()
				assert.True(t, p.X >= 0 && p.X <= 200 && p.Y >= 0 && p.Y <= 100, "%s at %v", v, p)
			}
		})
	}
}

func TestEmptyGraphIsNoop(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	for _, name := range Names() {
		l, err := New(name, Options{})
		require.NoError(t, err)
		require.NoError(t, l.Layout(context.Background(), g, viewport))
	}
	assert.False(t, g.Metadata().Has(graph.LayoutBounds.Name()))
}

func TestInvalidBounds(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	g.AddVertex()
	bad := r2.Box{Max: r2.Vec{X: math.Inf(1), Y: 10}}
	l, err := NewPolar(Options{})
	require.NoError(t, err)
	err = l.Layout(context.Background(), g, bad)
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeInvalidLayout))
}

func TestNewUnknown(t *testing.T) {
	_, err := New("hyperbolic", Options{})
	assert.ErrorIs(t, err, ErrUnknownLayout)

	_, err = New(NameCircle, Options{Margin: -1})
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeInvalidLayout))
}

func TestCircle(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	vs := []*graph.Vertex{g.AddVertex(), g.AddVertex(), g.AddVertex(), g.AddVertex()}
	sq := r2.Box{Max: r2.Vec{X: 100, Y: 100}}
	require.NoError(t, (&Circle{}).Layout(context.Background(), g, sq))
	assertVec(t, r2.Vec{X: 100, Y: 50}, vs[0].Location())
	assertVec(t, r2.Vec{X: 50, Y: 100}, vs[1].Location())
	assertVec(t, r2.Vec{X: 0, Y: 50}, vs[2].Location())
	assertVec(t, r2.Vec{X: 50, Y: 0}, vs[3].Location())
}

func TestCircleUsesSorter(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	a, b := g.AddNamedVertex("b"), g.AddNamedVertex("a")
	sq := r2.Box{Max: r2.Vec{X: 100, Y: 100}}
	l, err := New(NameCircle, Options{Sorter: sorter.ByName()})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, sq))
	assertVec(t, r2.Vec{X: 100, Y: 50}, b.Location())
	assertVec(t, r2.Vec{X: 0, Y: 50}, a.Location())
}

func TestGridAndMargin(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	vs := []*graph.Vertex{g.AddVertex(), g.AddVertex(), g.AddVertex()}
	l, err := New(NameGrid, Options{Margin: 10})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, r2.Box{Max: r2.Vec{X: 120, Y: 120}}))
	// 2x2 grid over [10,110]^2, cells of 50.
	assertVec(t, r2.Vec{X: 35, Y: 35}, vs[0].Location())
	assertVec(t, r2.Vec{X: 85, Y: 35}, vs[1].Location())
	assertVec(t, r2.Vec{X: 35, Y: 85}, vs[2].Location())
}

func TestRandomIsSeeded(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
		for range 5 {
			g.AddVertex()
		}
		return g
	}
	g1, g2 := build(), build()
	l, err := New(NameRandom, Options{Seed: 7})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g1, viewport))
	require.NoError(t, l.Layout(context.Background(), g2, viewport))
	assert.Equal(t, g1.Locations(), g2.Locations())
}

func TestSpiralEndpoints(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	first, _, last := g.AddVertex(), g.AddVertex(), g.AddVertex()
	require.NoError(t, (&Spiral{}).Layout(context.Background(), g, viewport))
	assertVec(t, r2.Vec{X: 100, Y: 50}, first.Location())
	assertVec(t, r2.Vec{X: 150, Y: 50}, last.Location())
}

func TestForceDirectedSeparatesVertices(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
	g.AddEdge(a, b, false)
	g.AddEdge(b, c, false)

	l, err := NewFruchtermanReingold(Options{Iterations: 50})
	require.NoError(t, err)
	require.NoError(t, l.Layout(context.Background(), g, viewport))
	assert.NotEqual(t, a.Location(), b.Location())
	assert.NotEqual(t, b.Location(), c.Location())
}

func TestForceDirectedCancelled(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	a, b := g.AddVertex(), g.AddVertex()
	g.AddEdge(a, b, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, err := NewFruchtermanReingold(Options{})
	require.NoError(t, err)
	err = l.Layout(ctx, g, viewport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, r2.Vec{}, a.Location())
}
