package layout

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// FruchtermanReingold is a force-directed layout. Every pair of
// participants repels, edges between participants attract, and movement per
// iteration is capped by a temperature that cools linearly to zero.
//
// Locked vertices exert forces but never move. Vertices start from their
// current locations; when every movable vertex shares one location (a fresh
// graph) they are first scattered with the seeded generator. ctx is checked
// before every iteration.
type FruchtermanReingold struct{ base }

// NewFruchtermanReingold creates a force-directed layout.
func NewFruchtermanReingold(opts Options) (*FruchtermanReingold, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &FruchtermanReingold{base: base{opts: opts}}, nil
}

func (*FruchtermanReingold) Name() string { return NameForce }

// Layout implements [Layout].
func (l *FruchtermanReingold) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NameForce, g, bounds, func(s *scope) error {
		return l.simulate(ctx, s)
	})
}

func (l *FruchtermanReingold) simulate(ctx context.Context, s *scope) error {
	n := len(s.participants)
	index := make(map[graph.VertexID]int, n)
	pos := make([]r2.Vec, n)
	fixed := make([]bool, n)
	for i, v := range s.participants {
		index[v.ID()] = i
		pos[i] = v.Location()
		fixed[i] = v.IsLocked()
	}
	if collapsed(pos, fixed) {
		rng := rand.New(rand.NewPCG(l.opts.Seed, l.opts.Seed^0x9e3779b97f4a7c15))
		for i := range pos {
			if !fixed[i] {
				pos[i] = r2.Vec{
					X: s.rect.Min.X + rng.Float64()*s.width(),
					Y: s.rect.Min.Y + rng.Float64()*s.height(),
				}
			}
		}
	}

	type link struct{ a, b int }
	var links []link
	for _, e := range s.g.Edges() {
		if e.IsSelfLoop() || !s.includes(e.Vertex1()) || !s.includes(e.Vertex2()) {
			continue
		}
		links = append(links, link{index[e.Vertex1().ID()], index[e.Vertex2().ID()]})
	}

	area := math.Max(s.width()*s.height(), 1)
	k := math.Sqrt(area / float64(n))
	t0 := math.Max(s.width(), s.height()) / 10
	disp := make([]r2.Vec, n)
	iterations := max(l.opts.Iterations, 1)

	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		clear(disp)

		// Repulsion between every pair.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := r2.Sub(pos[i], pos[j])
				dist := r2.Norm(d)
				if dist < 1e-9 {
					d = r2.Vec{X: 1e-3 * float64(i-j), Y: 1e-3}
					dist = r2.Norm(d)
				}
				f := r2.Scale(k*k/(dist*dist), d)
				disp[i] = r2.Add(disp[i], f)
				disp[j] = r2.Sub(disp[j], f)
			}
		}

		// Attraction along edges.
		for _, ln := range links {
			d := r2.Sub(pos[ln.a], pos[ln.b])
			dist := r2.Norm(d)
			if dist < 1e-9 {
				continue
			}
			f := r2.Scale(dist/k, d)
			disp[ln.a] = r2.Sub(disp[ln.a], f)
			disp[ln.b] = r2.Add(disp[ln.b], f)
		}

		// Move, capped by the temperature, and keep inside the rectangle.
		temp := t0 * (1 - float64(it)/float64(iterations))
		for i := range pos {
			if fixed[i] {
				continue
			}
			if m := r2.Norm(disp[i]); m > 0 {
				pos[i] = r2.Add(pos[i], r2.Scale(math.Min(m, temp)/m, disp[i]))
			}
			pos[i].X = math.Max(s.rect.Min.X, math.Min(s.rect.Max.X, pos[i].X))
			pos[i].Y = math.Max(s.rect.Min.Y, math.Min(s.rect.Max.Y, pos[i].Y))
		}
	}

	for i, v := range s.participants {
		if !fixed[i] {
			v.SetLocation(pos[i])
		}
	}
	return nil
}

// collapsed reports whether every movable position is identical.
func collapsed(pos []r2.Vec, fixed []bool) bool {
	var first *r2.Vec
	for i := range pos {
		if fixed[i] {
			continue
		}
		if first == nil {
			first = &pos[i]
			continue
		}
		if pos[i] != *first {
			return false
		}
	}
	return true
}
