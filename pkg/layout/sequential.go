package layout

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// Circle places vertices evenly on the largest circle that fits the
// rectangle, starting at 0 degrees and proceeding counter-clockwise.
type Circle struct{ base }

func (*Circle) Name() string { return NameCircle }

// Layout implements [Layout].
func (l *Circle) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NameCircle, g, bounds, func(s *scope) error {
		vs, err := s.ordered(l.opts.Sorter)
		if err != nil {
			return err
		}
		center := s.center()
		r := min(s.width(), s.height()) / 2
		if len(vs) == 1 {
			r = 0
		}
		step := 360 / float64(len(vs))
		for i, v := range vs {
			v.SetLocation(PolarToCartesian(center, r, float64(i)*step))
		}
		return nil
	})
}

// Grid places vertices row by row in the cells of a near-square grid,
// each vertex at the center of its cell.
type Grid struct{ base }

func (*Grid) Name() string { return NameGrid }

// Layout implements [Layout].
func (l *Grid) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NameGrid, g, bounds, func(s *scope) error {
		vs, err := s.ordered(l.opts.Sorter)
		if err != nil {
			return err
		}
		cols := int(math.Ceil(math.Sqrt(float64(len(vs)))))
		rows := (len(vs) + cols - 1) / cols
		cw, ch := s.width()/float64(cols), s.height()/float64(rows)
		for i, v := range vs {
			row, col := i/cols, i%cols
			v.SetLocation(r2.Vec{
				X: s.rect.Min.X + (float64(col)+0.5)*cw,
				Y: s.rect.Min.Y + (float64(row)+0.5)*ch,
			})
		}
		return nil
	})
}

// Spiral places vertices along an Archimedean spiral from the center
// outwards, the last vertex touching the largest inscribed circle.
type Spiral struct{ base }

// SpiralTurns is the number of full turns of the spiral.
const SpiralTurns = 3

func (*Spiral) Name() string { return NameSpiral }

// Layout implements [Layout].
func (l *Spiral) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NameSpiral, g, bounds, func(s *scope) error {
		vs, err := s.ordered(l.opts.Sorter)
		if err != nil {
			return err
		}
		center := s.center()
		maxR := min(s.width(), s.height()) / 2
		n := len(vs)
		for i, v := range vs {
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			v.SetLocation(PolarToCartesian(center, t*maxR, t*SpiralTurns*360))
		}
		return nil
	})
}

// Random scatters vertices uniformly over the rectangle. The same seed and
// graph always produce the same layout.
type Random struct{ base }

func (*Random) Name() string { return NameRandom }

// Layout implements [Layout].
func (l *Random) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NameRandom, g, bounds, func(s *scope) error {
		rng := rand.New(rand.NewPCG(l.opts.Seed, l.opts.Seed^0x9e3779b97f4a7c15))
		for _, v := range s.movable {
			v.SetLocation(r2.Vec{
				X: s.rect.Min.X + rng.Float64()*s.width(),
				Y: s.rect.Min.Y + rng.Float64()*s.height(),
			})
		}
		return nil
	})
}
