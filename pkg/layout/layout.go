package layout

import (
	"context"
	"errors"
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/observability"
	"github.com/matzehuels/netgraph/pkg/sorter"
)

// Layout names accepted by [New].
const (
	NamePolar         = "polar"
	NamePolarAbsolute = "polar-absolute"
	NameCircle        = "circle"
	NameGrid          = "grid"
	NameRandom        = "random"
	NameSpiral        = "spiral"
	NameForce         = "force"
)

// Defaults for [Options].
const (
	DefaultIterations = 100
	DefaultSeed       = uint64(42)
)

// ErrUnknownLayout is returned by [New] for unregistered names.
var ErrUnknownLayout = errors.New("unknown layout")

// Layout positions the vertices of a graph inside bounds.
type Layout interface {
	Name() string
	Layout(ctx context.Context, g *graph.Graph, bounds r2.Box) error
}

// Options configures the layouts created by [New]. Not every layout reads
// every field.
type Options struct {
	// Margin is kept free along each side of the rectangle.
	Margin float64 `json:"margin,omitempty" toml:"margin"`

	// Sorter orders vertices for the sequential layouts. Nil means ID order.
	Sorter sorter.Sorter `json:"-" toml:"-"`

	// Seed drives the random and force-directed layouts.
	Seed uint64 `json:"seed,omitempty" toml:"seed"`

	// Iterations bounds the force-directed simulation.
	Iterations int `json:"iterations,omitempty" toml:"iterations"`
}

// ValidateAndSetDefaults checks o and fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Margin < 0 {
		return nxerrors.New(nxerrors.ErrCodeInvalidLayout, "margin must be non-negative, got %v", o.Margin)
	}
	if o.Iterations < 0 {
		return nxerrors.New(nxerrors.ErrCodeInvalidLayout, "iterations must be non-negative, got %d", o.Iterations)
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Sorter == nil {
		o.Sorter = sorter.ByComparison(nil)
	}
	return nil
}

// New returns the layout registered under name.
func New(name string, opts Options) (Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	b := base{opts: opts}
	switch name {
	case NamePolar:
		return &Polar{base: b}, nil
	case NamePolarAbsolute:
		return &PolarAbsolute{base: b}, nil
	case NameCircle:
		return &Circle{base: b}, nil
	case NameGrid:
		return &Grid{base: b}, nil
	case NameRandom:
		return &Random{base: b}, nil
	case NameSpiral:
		return &Spiral{base: b}, nil
	case NameForce:
		return &FruchtermanReingold{base: b}, nil
	}
	return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidInput, ErrUnknownLayout, "layout %q (known: %v)", name, Names())
}

// Names lists every layout accepted by [New].
func Names() []string {
	return []string{NamePolar, NamePolarAbsolute, NameCircle, NameGrid, NameRandom, NameSpiral, NameForce}
}

// scope is the part of a graph one layout pass works on.
type scope struct {
	g *graph.Graph

	// rect is the layout rectangle after margins.
	rect r2.Box

	// participants are the vertices the pass may consult, in ID order.
	participants []*graph.Vertex

	// movable are the unlocked participants, in ID order.
	movable []*graph.Vertex

	in map[graph.VertexID]bool
}

func (s *scope) includes(v *graph.Vertex) bool { return s.in[v.ID()] }

func (s *scope) center() r2.Vec {
	return r2.Vec{X: (s.rect.Min.X + s.rect.Max.X) / 2, Y: (s.rect.Min.Y + s.rect.Max.Y) / 2}
}

func (s *scope) width() float64  { return s.rect.Max.X - s.rect.Min.X }
func (s *scope) height() float64 { return s.rect.Max.Y - s.rect.Min.Y }

// ordered returns the movable vertices in the order chosen by the sorter.
func (s *scope) ordered(st sorter.Sorter) ([]*graph.Vertex, error) {
	if st == nil {
		st = sorter.ByComparison(nil)
	}
	return st.Sort(s.movable)
}

// base implements the rules shared by every layout.
type base struct {
	opts Options
}

// run validates bounds, resolves the scope and calls place. It records the
// rectangle in graph metadata and emits layout hooks.
func (b *base) run(ctx context.Context, name string, g *graph.Graph, bounds r2.Box, place func(*scope) error) (err error) {
	if g == nil {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "%s layout: nil graph", name)
	}
	bounds = canon(bounds)
	if err := nxerrors.ValidateDimensions(bounds.Max.X-bounds.Min.X, bounds.Max.Y-bounds.Min.Y); err != nil {
		return err
	}
	if g.VertexCount() == 0 {
		return nil
	}

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, name, g.VertexCount())
	defer func() {
		observability.Layout().OnLayoutComplete(ctx, name, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := b.scope(g, bounds)
	if err != nil {
		return err
	}
	if len(s.movable) > 0 {
		if err := place(s); err != nil {
			return err
		}
	}
	graph.SetValue(g.Metadata(), graph.LayoutBounds, bounds)
	return nil
}

func (b *base) scope(g *graph.Graph, bounds r2.Box) (*scope, error) {
	s := &scope{g: g, rect: inset(bounds, b.opts.Margin), in: make(map[graph.VertexID]bool)}

	subset, ok, err := graph.TryGetValue(g.Metadata(), graph.LayOutTheseVerticesOnly)
	if err != nil {
		return nil, err
	}
	if ok {
		ids := slices.Clone(subset)
		slices.Sort(ids)
		for _, id := range slices.Compact(ids) {
			if v, found := g.Vertex(id); found {
				s.participants = append(s.participants, v)
			}
		}
	} else {
		s.participants = g.Vertices()
	}

	for _, v := range s.participants {
		s.in[v.ID()] = true
		if !v.IsLocked() {
			s.movable = append(s.movable, v)
		}
	}
	return s, nil
}

// canon swaps inverted rectangle corners.
func canon(b r2.Box) r2.Box {
	if b.Min.X > b.Max.X {
		b.Min.X, b.Max.X = b.Max.X, b.Min.X
	}
	if b.Min.Y > b.Max.Y {
		b.Min.Y, b.Max.Y = b.Max.Y, b.Min.Y
	}
	return b
}

// inset shrinks b by margin on every side, collapsing to the center line
// when the margin exceeds half a dimension.
func inset(b r2.Box, margin float64) r2.Box {
	shrink := func(lo, hi float64) (float64, float64) {
		if hi-lo <= 2*margin {
			mid := (lo + hi) / 2
			return mid, mid
		}
		return lo + margin, hi - margin
	}
	b.Min.X, b.Max.X = shrink(b.Min.X, b.Max.X)
	b.Min.Y, b.Max.Y = shrink(b.Min.Y, b.Max.Y)
	return b
}
