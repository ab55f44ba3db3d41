package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// Affine is a 2D affine transform stored as a 3×3 homogeneous matrix.
type Affine struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{m: mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})}
}

// RectangleTransform returns the transform mapping from onto to: from.Min
// goes to to.Min and from.Max to to.Max. A rectangle with zero width or
// height is first inflated by one unit in that dimension, so the result is
// always invertible.
func RectangleTransform(from, to r2.Box) Affine {
	from, to = inflate(canon(from)), inflate(canon(to))
	sx := (to.Max.X - to.Min.X) / (from.Max.X - from.Min.X)
	sy := (to.Max.Y - to.Min.Y) / (from.Max.Y - from.Min.Y)
	return Affine{m: mat.NewDense(3, 3, []float64{
		sx, 0, to.Min.X - sx*from.Min.X,
		0, sy, to.Min.Y - sy*from.Min.Y,
		0, 0, 1,
	})}
}

func inflate(b r2.Box) r2.Box {
	if b.Max.X-b.Min.X == 0 {
		b.Max.X++
	}
	if b.Max.Y-b.Min.Y == 0 {
		b.Max.Y++
	}
	return b
}

func (a Affine) matrix() *mat.Dense {
	if a.m == nil {
		return Identity().m
	}
	return a.m
}

// Apply maps p.
func (a Affine) Apply(p r2.Vec) r2.Vec {
	var out mat.VecDense
	out.MulVec(a.matrix(), mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	return r2.Vec{X: out.AtVec(0), Y: out.AtVec(1)}
}

// Then returns the transform applying a first and b second.
func (a Affine) Then(b Affine) Affine {
	var m mat.Dense
	m.Mul(b.matrix(), a.matrix())
	return Affine{m: &m}
}

// Inverse returns the inverse transform. It fails for a singular matrix,
// which [RectangleTransform] never produces.
func (a Affine) Inverse() (Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.matrix()); err != nil {
		return Affine{}, nxerrors.Wrap(nxerrors.ErrCodeInvalidLayout, err, "invert transform")
	}
	return Affine{m: &inv}, nil
}

// String formats the two non-trivial rows.
func (a Affine) String() string {
	m := a.matrix()
	return fmt.Sprintf("[%g %g %g; %g %g %g]",
		m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(1, 0), m.At(1, 1), m.At(1, 2))
}

// TransformLayout remaps a finished layout from one rectangle to another: it
// applies [RectangleTransform] to every vertex location and to every edge's
// [graph.EdgeCurvePoints]. When the graph records [graph.LayoutBounds] they
// are updated to the target rectangle.
func TransformLayout(g *graph.Graph, from, to r2.Box) error {
	t := RectangleTransform(from, to)
	for _, v := range g.Vertices() {
		v.SetLocation(t.Apply(v.Location()))
	}
	for _, e := range g.Edges() {
		pts, ok, err := graph.TryGetValue(e.Metadata(), graph.EdgeCurvePoints)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		moved := make([]r2.Vec, len(pts))
		for i, p := range pts {
			moved[i] = t.Apply(p)
		}
		graph.SetValue(e.Metadata(), graph.EdgeCurvePoints, moved)
	}
	if g.Metadata().Has(graph.LayoutBounds.Name()) {
		graph.SetValue(g.Metadata(), graph.LayoutBounds, canon(to))
	}
	return nil
}

// Bounds returns the smallest rectangle containing every vertex location.
// It returns false for a graph without vertices.
func Bounds(g *graph.Graph) (r2.Box, bool) {
	vs := g.Vertices()
	if len(vs) == 0 {
		return r2.Box{}, false
	}
	b := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, v := range vs {
		p := v.Location()
		b.Min.X, b.Min.Y = math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y)
		b.Max.X, b.Max.Y = math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y)
	}
	return b, true
}
