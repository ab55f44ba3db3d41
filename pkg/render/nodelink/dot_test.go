package nodelink

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/graph"
)

func laidOut(t *testing.T, d graph.Directedness) *graph.Graph {
	t.Helper()
	g := graph.MustNew(d, graph.RestrictionsNone)
	a, b := g.AddNamedVertex("A"), g.AddNamedVertex("B")
	a.SetLocation(r2.Vec{X: 10, Y: 10})
	b.SetLocation(r2.Vec{X: 90, Y: 40})
	graph.SetValue(g.Metadata(), graph.LayoutBounds, r2.Box{Max: r2.Vec{X: 100, Y: 50}})
	if _, err := g.AddEdge(a, b, d == graph.Directed); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g
}

func TestToDOTPinsPositions(t *testing.T) {
	dot, err := ToDOT(laidOut(t, graph.Directed), Options{ShowLabels: true})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	for _, want := range []string{
		"digraph G {",
		`v1 [pos="10.00,40.00!", label="A"]`,
		`v2 [pos="90.00,10.00!", label="B"]`,
		"v1 -> v2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTUndirected(t *testing.T) {
	dot, err := ToDOT(laidOut(t, graph.Undirected), Options{})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if !strings.HasPrefix(dot, "graph G {") || !strings.Contains(dot, "v1 -- v2;") {
		t.Errorf("unexpected undirected DOT:\n%s", dot)
	}
	if !strings.Contains(dot, "shape=point") || !strings.Contains(dot, `tooltip="A"`) {
		t.Errorf("unlabeled nodes should be points with tooltips:\n%s", dot)
	}
}

func TestToDOTMixed(t *testing.T) {
	g := laidOut(t, graph.Mixed)
	a, _ := g.Vertex(1)
	b, _ := g.Vertex(2)
	if _, err := g.AddEdge(b, a, true); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	dot, err := ToDOT(g, Options{})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if !strings.Contains(dot, "v1 -> v2 [dir=none];") || !strings.Contains(dot, "v2 -> v1;") {
		t.Errorf("unexpected mixed DOT:\n%s", dot)
	}
}

func TestToDOTSizeBy(t *testing.T) {
	g := laidOut(t, graph.Directed)
	a, _ := g.Vertex(1)
	b, _ := g.Vertex(2)
	_ = a.Metadata().Set("score", 0.0)
	_ = b.Metadata().Set("score", 4.0)

	dot, err := ToDOT(g, Options{SizeBy: "score"})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if !strings.Contains(dot, "width=0.25") || !strings.Contains(dot, "width=1.00") {
		t.Errorf("sizes not scaled:\n%s", dot)
	}

	_ = b.Metadata().Set("score", "high")
	if _, err := ToDOT(g, Options{SizeBy: "score"}); err == nil {
		t.Error("non-numeric size key should fail")
	}
}

func TestToDOTWithoutBounds(t *testing.T) {
	g := graph.MustNew(graph.Undirected, graph.RestrictionsNone)
	g.AddVertex().SetLocation(r2.Vec{X: 5, Y: 5})
	g.AddVertex().SetLocation(r2.Vec{X: 15, Y: 25})
	dot, err := ToDOT(g, Options{})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if !strings.Contains(dot, `pos="0.00,20.00!"`) || !strings.Contains(dot, `pos="10.00,0.00!"`) {
		t.Errorf("positions should be relative to the vertex bounding box:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
}
