package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/layout"
)

// PointsPerUnit converts layout units to DOT points. Graphviz positions are
// in points (1/72 inch); one layout unit is one point.
const PointsPerUnit = 1.0

// Node size range in inches when [Options.SizeBy] is set.
const (
	MinNodeSize = 0.25
	MaxNodeSize = 1.0
)

// Options configures DOT generation.
type Options struct {
	// ShowLabels prints vertex labels inside the nodes. Otherwise nodes are
	// unlabeled dots.
	ShowLabels bool

	// SizeBy names a numeric vertex metadata key (for example a metric
	// column written by metrics.Result.Apply). Node sizes scale linearly
	// between MinNodeSize and MaxNodeSize over its range.
	SizeBy string
}

// ToDOT converts a laid-out graph to Graphviz DOT with every node pinned at
// its location. Screen coordinates grow downwards and DOT coordinates grow
// upwards, so Y is flipped within the layout rectangle: the graph's
// [graph.LayoutBounds] when set, the bounding box of the vertices otherwise.
//
// Directed graphs become digraphs. Mixed graphs are written as digraphs with
// dir=none on undirected edges.
func ToDOT(g *graph.Graph, opts Options) (string, error) {
	if g == nil {
		return "", nxerrors.New(nxerrors.ErrCodeInvalidInput, "graph is nil")
	}
	bounds, err := frame(g)
	if err != nil {
		return "", err
	}
	sizes, err := nodeSizes(g, opts.SizeBy)
	if err != nil {
		return "", err
	}

	kind, arrow := "digraph", "->"
	if g.Directedness() == graph.Undirected {
		kind, arrow = "graph", "--"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s G {\n", kind)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  splines=line;\n")
	if opts.ShowLabels {
		buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, fixedsize=false];\n")
	} else {
		buf.WriteString("  node [shape=point, width=0.12];\n")
	}
	buf.WriteString("\n")

	for _, v := range g.Vertices() {
		p := v.Location()
		x := (p.X - bounds.Min.X) * PointsPerUnit
		y := (bounds.Max.Y - p.Y) * PointsPerUnit
		attrs := []string{fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(y))}
		if opts.ShowLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", v.Label()))
		} else {
			attrs = append(attrs, fmt.Sprintf("tooltip=%q", v.Label()))
		}
		if s, ok := sizes[v.ID()]; ok {
			attrs = append(attrs, fmt.Sprintf("width=%s", fmtFloat(s)), "height="+fmtFloat(s))
		}
		if v.IsLocked() {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(v), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s %s %s", nodeID(e.Vertex1()), arrow, nodeID(e.Vertex2()))
		if kind == "digraph" && !e.IsDirected() {
			buf.WriteString(" [dir=none]")
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeID(v *graph.Vertex) string { return fmt.Sprintf("v%d", v.ID()) }

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func frame(g *graph.Graph) (r2.Box, error) {
	b, ok, err := graph.TryGetValue(g.Metadata(), graph.LayoutBounds)
	if err != nil {
		return r2.Box{}, err
	}
	if ok {
		return b, nil
	}
	b, _ = layout.Bounds(g)
	return b, nil
}

func nodeSizes(g *graph.Graph, key string) (map[graph.VertexID]float64, error) {
	if key == "" {
		return nil, nil
	}
	values := make(map[graph.VertexID]float64, g.VertexCount())
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.Vertices() {
		raw, ok := v.Metadata().Get(key)
		if !ok {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			return nil, nxerrors.MetadataContract(&nxerrors.KeyError{
				Key: key, Err: graph.ErrTypeMismatch, Want: "number", Got: fmt.Sprintf("%T", raw),
			}, "size %s", v)
		}
		values[v.ID()] = f
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	sizes := make(map[graph.VertexID]float64, len(values))
	for id, f := range values {
		t := 0.5
		if hi > lo {
			t = (f - lo) / (hi - lo)
		}
		sizes[id] = MinNodeSize + t*(MaxNodeSize-MinNodeSize)
	}
	return sizes, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

// RenderSVG renders DOT produced by [ToDOT] to SVG. The neato engine keeps
// pinned positions, so the drawing matches the computed layout.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
