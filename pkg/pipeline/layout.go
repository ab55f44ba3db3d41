package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/graph"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/layout"
	"github.com/matzehuels/netgraph/pkg/sorter"
)

// Layout defaults shared by CLI and server.
const (
	DefaultLayout = layout.NameForce
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

// Sort orders accepted by [LayoutOptions.SortBy] besides metadata keys.
const (
	SortByID   = "id"
	SortByName = "name"
)

// LayoutOptions configures the layout stage. It supports JSON for API
// requests and TOML for the config file.
type LayoutOptions struct {
	Type       string  `json:"type,omitempty" toml:"type"`
	Width      float64 `json:"width,omitempty" toml:"width"`
	Height     float64 `json:"height,omitempty" toml:"height"`
	Margin     float64 `json:"margin,omitempty" toml:"margin"`
	Seed       uint64  `json:"seed,omitempty" toml:"seed"`
	Iterations int     `json:"iterations,omitempty" toml:"iterations"`

	// SortBy orders vertices for the sequential layouts: "id", "name" or
	// a numeric vertex metadata key sorted descending (for example a
	// metric column).
	SortBy string `json:"sort_by,omitempty" toml:"sort_by"`

	Refresh bool        `json:"refresh,omitempty" toml:"-"`
	Logger  *log.Logger `json:"-" toml:"-"`
}

// ValidateAndSetDefaults validates the options and fills defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *LayoutOptions) ValidateAndSetDefaults() error {
	if o.Type == "" {
		o.Type = DefaultLayout
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.SortBy == "" {
		o.SortBy = SortByID
	}
	if _, err := layout.New(o.Type, o.layoutOptions(nil)); err != nil {
		return err
	}
	if _, err := o.sorter(); err != nil {
		return err
	}
	return nil
}

// Bounds is the layout rectangle with its origin at zero.
func (o *LayoutOptions) Bounds() r2.Box {
	return r2.Box{Max: r2.Vec{X: o.Width, Y: o.Height}}
}

// KeyOpts returns the cache key options of the pass.
func (o *LayoutOptions) KeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Type:       o.Type,
		Width:      o.Width,
		Height:     o.Height,
		Margin:     o.Margin,
		Seed:       o.Seed,
		Iterations: o.Iterations,
		SortBy:     o.SortBy,
	}
}

func (o *LayoutOptions) layoutOptions(s sorter.Sorter) layout.Options {
	return layout.Options{
		Margin:     o.Margin,
		Sorter:     s,
		Seed:       o.Seed,
		Iterations: o.Iterations,
	}
}

func (o *LayoutOptions) sorter() (sorter.Sorter, error) {
	switch o.SortBy {
	case "", SortByID:
		return sorter.ByComparison(nil), nil
	case SortByName:
		return sorter.ByName(), nil
	}
	key, err := graph.ParseKey[float64](o.SortBy)
	if err != nil {
		return nil, err
	}
	return sorter.ByMetadata(key, true), nil
}

// Layout positions the vertices of g in place.
//
// The pass is cached under the graph's content hash and the options. On a
// hit, stored locations and the layout rectangle are copied into g and hit
// is true.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts LayoutOptions) (hit bool, err error) {
	if g == nil {
		return false, fmt.Errorf("layout: nil graph")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return false, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	cacheKey := ""
	if data, err := nxio.MarshalGraph(g); err == nil {
		cacheKey = r.Keyer.LayoutKey(cache.Hash(data), opts.KeyOpts())
	}

	if cacheKey != "" && !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := nxio.UnmarshalGraph(data); err == nil && restoreLayout(g, cached) {
				logger.Info("layout served from cache", "type", opts.Type)
				return true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	s, err := opts.sorter()
	if err != nil {
		return false, err
	}
	l, err := layout.New(opts.Type, opts.layoutOptions(s))
	if err != nil {
		return false, err
	}

	start := time.Now()
	if err := l.Layout(ctx, g, opts.Bounds()); err != nil {
		return false, fmt.Errorf("%s layout: %w", opts.Type, err)
	}
	logger.Info("computed layout",
		"type", opts.Type,
		"vertices", g.VertexCount(),
		"duration", time.Since(start))

	if cacheKey != "" {
		if data, err := nxio.MarshalGraph(g); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		}
	}
	return false, nil
}

// restoreLayout copies locations and the layout rectangle from cached into
// g. It fails when the vertex sets differ.
func restoreLayout(g, cached *graph.Graph) bool {
	locs := cached.Locations()
	if len(locs) != g.VertexCount() {
		return false
	}
	for _, id := range g.VertexIDs() {
		if _, ok := locs[id]; !ok {
			return false
		}
	}
	g.SetLocations(locs)
	if b, ok, err := graph.TryGetValue(cached.Metadata(), graph.LayoutBounds); err == nil && ok {
		graph.SetValue(g.Metadata(), graph.LayoutBounds, b)
	}
	return true
}
