package io

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.MustNew(graph.Mixed, graph.NoSelfLoops)
	a := g.AddNamedVertex("A")
	b := g.AddNamedVertex("B")
	c := g.AddNamedVertex("C")
	require.NoError(t, g.RemoveVertex(c))
	d := g.AddNamedVertex("D")

	require.NoError(t, a.Metadata().Set("weight", 3.5))
	a.SetLocation(r2.Vec{X: 10, Y: 20})
	graph.SetValue(a.Metadata(), graph.LockVertexLocation, true)
	graph.SetValue(b.Metadata(), graph.PolarLayoutCoordinates, graph.SinglePolarCoordinates{R: 0.5, Angle: 90})

	e1, err := g.AddEdge(a, b, true)
	require.NoError(t, err)
	require.NoError(t, e1.Metadata().Set("label", "ab"))
	graph.SetValue(e1.Metadata(), graph.EdgeCurvePoints, []r2.Vec{{X: 1, Y: 2}})
	_, err = g.AddEdge(b, d, false)
	require.NoError(t, err)

	require.NoError(t, g.Metadata().Set("title", "sample"))
	graph.SetValue(g.Metadata(), graph.LayoutBounds, r2.Box{Max: r2.Vec{X: 100, Y: 50}})
	graph.SetValue(g.Metadata(), graph.LayOutTheseVerticesOnly, []graph.VertexID{a.ID(), d.ID()})
	return g
}

func TestJSONRoundTrip(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(g, &buf))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, graph.Mixed, got.Directedness())
	assert.Equal(t, graph.NoSelfLoops, got.Restrictions())
	assert.Equal(t, []graph.VertexID{1, 2, 4}, got.VertexIDs())

	a, ok := got.Vertex(1)
	require.True(t, ok)
	assert.Equal(t, "A", a.Name())
	assert.Equal(t, r2.Vec{X: 10, Y: 20}, a.Location())
	assert.True(t, a.IsLocked())
	w, _ := a.Metadata().Get("weight")
	assert.Equal(t, 3.5, w)

	b, _ := got.Vertex(2)
	pc, err := graph.GetRequiredValue(b.Metadata(), graph.PolarLayoutCoordinates)
	require.NoError(t, err)
	assert.Equal(t, graph.SinglePolarCoordinates{R: 0.5, Angle: 90}, pc)

	e1, ok := got.Edge(1)
	require.True(t, ok)
	assert.True(t, e1.IsDirected())
	curve, err := graph.GetRequiredValue(e1.Metadata(), graph.EdgeCurvePoints)
	require.NoError(t, err)
	assert.Equal(t, []r2.Vec{{X: 1, Y: 2}}, curve)
	e2, _ := got.Edge(2)
	assert.False(t, e2.IsDirected())

	bounds, err := graph.GetRequiredValue(got.Metadata(), graph.LayoutBounds)
	require.NoError(t, err)
	assert.Equal(t, r2.Box{Max: r2.Vec{X: 100, Y: 50}}, bounds)
	subset, err := graph.GetRequiredValue(got.Metadata(), graph.LayOutTheseVerticesOnly)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{1, 4}, subset)

	// A second round trip is byte-identical.
	first, err := MarshalGraph(g)
	require.NoError(t, err)
	second, err := MarshalGraph(got)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestReadJSONAssignsMissingEdgeIDs(t *testing.T) {
	in := `{
	  "directedness": "directed",
	  "vertices": [{"id": 5}, {"id": 2}],
	  "edges": [{"from": 2, "to": 5}, {"id": 7, "from": 5, "to": 2}]
	}`
	g, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{2, 5}, g.VertexIDs())

	e, ok := g.Edge(8)
	require.True(t, ok)
	assert.Equal(t, graph.VertexID(2), e.Vertex1().ID())
	assert.True(t, e.IsDirected())
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code nxerrors.Code
	}{
		{"malformed", `{"vertices": [`, nxerrors.ErrCodeInvalidFormat},
		{"unknown field", `{"vertices": [], "edges": [], "nodes": []}`, nxerrors.ErrCodeInvalidFormat},
		{"directedness", `{"directedness": "sideways", "vertices": [], "edges": []}`, nxerrors.ErrCodeInvalidInput},
		{"restriction", `{"restrictions": ["acyclic"], "vertices": [], "edges": []}`, nxerrors.ErrCodeInvalidInput},
		{"missing id", `{"vertices": [{"name": "x"}], "edges": []}`, nxerrors.ErrCodeInvalidInput},
		{"duplicate id", `{"vertices": [{"id": 1}, {"id": 1}], "edges": []}`, nxerrors.ErrCodeInvalidInput},
		{"unknown vertex", `{"vertices": [{"id": 1}], "edges": [{"from": 1, "to": 2}]}`, nxerrors.ErrCodeInvalidInput},
		{"reserved meta", `{"vertices": [{"id": 1, "meta": {"~lock": true}}], "edges": []}`, nxerrors.ErrCodeMetadataContract},
		{"self loop", `{"restrictions": ["no-self-loops"], "vertices": [{"id": 1}], "edges": [{"from": 1, "to": 1}]}`, nxerrors.ErrCodeStructural},
		{"directed in undirected", `{"vertices": [{"id": 1}, {"id": 2}], "edges": [{"from": 1, "to": 2, "directed": true}]}`, nxerrors.ErrCodeStructural},
		{"subset", `{"layout_subset": [9], "vertices": [{"id": 1}], "edges": []}`, nxerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Equal(t, tt.code, nxerrors.GetCode(err), "%v", err)
		})
	}
}

func TestReadJSONSelfLoopSentinel(t *testing.T) {
	in := `{"restrictions": ["no-self-loops"], "vertices": [{"id": 1}], "edges": [{"id": 3, "from": 1, "to": 1}]}`
	_, err := ReadJSON(strings.NewReader(in))
	assert.True(t, errors.Is(err, graph.ErrSelfLoopNotAllowed))
	assert.Contains(t, err.Error(), "edge 3")
}

func TestExportImportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	g := sampleGraph(t)
	require.NoError(t, ExportJSON(g, path))

	got, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, g.VertexIDs(), got.VertexIDs())

	_, err = ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, nxerrors.Is(err, nxerrors.ErrCodeFileNotFound))
}

func TestMarshalGraphIgnoresInstance(t *testing.T) {
	g := sampleGraph(t)
	a, err := MarshalGraph(g)
	require.NoError(t, err)
	b, err := MarshalGraph(g.Clone())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.NoError(t, g.Metadata().Set("title", "changed"))
	c, err := MarshalGraph(g)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

const sampleGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="color" attr.type="string"><default>gray</default></key>
  <key id="d1" for="edge" attr.name="weight" attr.type="double"/>
  <key id="d2" for="node" attr.name="rank" attr.type="int"/>
  <key id="d3" for="graph" attr.name="public" attr.type="boolean"/>
  <graph id="G" edgedefault="undirected">
    <data key="d3">true</data>
    <node id="a"><data key="d0">red</data><data key="d2">7</data></node>
    <node id="b"/>
    <node id="c"/>
    <edge source="a" target="b"><data key="d1">1.5</data></edge>
    <edge source="b" target="c" directed="true"/>
  </graph>
</graphml>`

func TestReadGraphML(t *testing.T) {
	g, err := ReadGraphML(strings.NewReader(sampleGraphML))
	require.NoError(t, err)

	assert.Equal(t, graph.Mixed, g.Directedness())
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())

	pub, _ := g.Metadata().Get("public")
	assert.Equal(t, true, pub)

	a, ok := g.VertexByName("a")
	require.True(t, ok)
	assert.Equal(t, graph.VertexID(1), a.ID())
	color, _ := a.Metadata().Get("color")
	assert.Equal(t, "red", color)
	rank, _ := a.Metadata().Get("rank")
	assert.Equal(t, int64(7), rank)

	b, _ := g.VertexByName("b")
	color, _ = b.Metadata().Get("color")
	assert.Equal(t, "gray", color)

	e1, _ := g.Edge(1)
	assert.False(t, e1.IsDirected())
	weight, _ := e1.Metadata().Get("weight")
	assert.Equal(t, 1.5, weight)
	e2, _ := g.Edge(2)
	assert.True(t, e2.IsDirected())
}

func TestReadGraphMLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code nxerrors.Code
	}{
		{"not xml", `{}`, nxerrors.ErrCodeInvalidFormat},
		{"no graph", `<graphml></graphml>`, nxerrors.ErrCodeInvalidFormat},
		{"edgedefault", `<graphml><graph edgedefault="both"/></graphml>`, nxerrors.ErrCodeInvalidFormat},
		{"reserved key", `<graphml><key id="k" for="node" attr.name="~x" attr.type="string"/><graph/></graphml>`, nxerrors.ErrCodeMetadataContract},
		{"undeclared key", `<graphml><graph><node id="a"><data key="k">1</data></node></graph></graphml>`, nxerrors.ErrCodeInvalidInput},
		{"bad value", `<graphml><key id="k" for="node" attr.name="n" attr.type="int"/><graph><node id="a"><data key="k">x</data></node></graph></graphml>`, nxerrors.ErrCodeInvalidFormat},
		{"duplicate node", `<graphml><graph><node id="a"/><node id="a"/></graph></graphml>`, nxerrors.ErrCodeInvalidInput},
		{"unknown target", `<graphml><graph><node id="a"/><edge source="a" target="z"/></graph></graphml>`, nxerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraphML(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Equal(t, tt.code, nxerrors.GetCode(err), "%v", err)
		})
	}
}

func TestGraphMLRoundTrip(t *testing.T) {
	g := graph.MustNew(graph.Directed, graph.RestrictionsNone)
	a, b := g.AddNamedVertex("alpha"), g.AddNamedVertex("beta")
	require.NoError(t, a.Metadata().Set("score", 0.25))
	require.NoError(t, b.Metadata().Set("score", "n/a"))
	require.NoError(t, a.Metadata().Set("hub", true))
	e, err := g.AddEdge(a, b, true)
	require.NoError(t, err)
	require.NoError(t, e.Metadata().Set("hops", 2))

	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(g, &buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `xmlns="http://graphml.graphdrawing.org/xmlns"`)
	assert.Contains(t, out, `edgedefault="directed"`)

	got, err := ReadGraphML(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, graph.Directed, got.Directedness())

	ga, ok := got.VertexByName("alpha")
	require.True(t, ok)
	score, _ := ga.Metadata().Get("score")
	assert.Equal(t, "0.25", score, "mixed-type key falls back to string")
	hub, _ := ga.Metadata().Get("hub")
	assert.Equal(t, true, hub)

	ge, _ := got.Edge(1)
	hops, _ := ge.Metadata().Get("hops")
	assert.Equal(t, int64(2), hops)
}

func TestWriteGraphMLFallsBackToIDs(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	g.AddNamedVertex("x")
	g.AddVertex()

	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(g, &buf))
	assert.Contains(t, buf.String(), `id="n1"`)
	assert.Contains(t, buf.String(), `id="n2"`)
}
