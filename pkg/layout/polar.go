package layout

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// Polar places each vertex at its [graph.PolarLayoutCoordinates] with R
// normalized: R is clamped to [0, 1] and 1 maps to half the smaller
// dimension of the rectangle.
type Polar struct{ base }

// NewPolar creates a normalized polar layout.
func NewPolar(opts Options) (*Polar, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Polar{base: base{opts: opts}}, nil
}

func (*Polar) Name() string { return NamePolar }

// Layout implements [Layout].
func (l *Polar) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NamePolar, g, bounds, func(s *scope) error {
		scale := min(s.width(), s.height()) / 2
		return placePolar(s, func(r float64) float64 {
			return math.Max(0, math.Min(1, r)) * scale
		})
	})
}

// PolarAbsolute places each vertex at its [graph.PolarLayoutCoordinates]
// with R in drawing units. The pole is the center of the rectangle.
type PolarAbsolute struct{ base }

// NewPolarAbsolute creates an absolute polar layout.
func NewPolarAbsolute(opts Options) (*PolarAbsolute, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &PolarAbsolute{base: base{opts: opts}}, nil
}

func (*PolarAbsolute) Name() string { return NamePolarAbsolute }

// Layout implements [Layout].
func (l *PolarAbsolute) Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error {
	return l.run(ctx, NamePolarAbsolute, g, bounds, func(s *scope) error {
		return placePolar(s, func(r float64) float64 { return r })
	})
}

func placePolar(s *scope, radius func(float64) float64) error {
	pole := s.center()
	for _, v := range s.movable {
		pc, ok, err := graph.TryGetValue(v.Metadata(), graph.PolarLayoutCoordinates)
		if err != nil {
			return err
		}
		if !ok {
			v.SetLocation(pole)
			continue
		}
		v.SetLocation(PolarToCartesian(pole, radius(pc.R), pc.Angle))
	}
	return nil
}

// PolarToCartesian converts a polar position around pole to layout
// coordinates. The angle is in degrees from +X towards +Y, so 90 points
// along +Y.
func PolarToCartesian(pole r2.Vec, r, angleDegrees float64) r2.Vec {
	theta := NormalizeAngle(angleDegrees) * math.Pi / 180
	return r2.Vec{
		X: pole.X + r*math.Cos(theta),
		Y: pole.Y + r*math.Sin(theta),
	}
}

// NormalizeAngle wraps degrees into [0, 360).
func NormalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a < 0 {
		a += 360
	}
	return a
}
