package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/graph"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/render"
	"github.com/matzehuels/netgraph/pkg/render/nodelink"
)

// DefaultFormats are rendered when [RenderOptions.Formats] is empty.
var DefaultFormats = []string{render.FormatSVG}

// DefaultPNGScale is the PNG resolution multiplier.
const DefaultPNGScale = 2.0

// RenderOptions configures the render stage.
type RenderOptions struct {
	Formats    []string `json:"formats,omitempty" toml:"formats"`
	ShowLabels bool     `json:"show_labels,omitempty" toml:"show_labels"`

	// SizeBy scales nodes by a numeric vertex metadata key.
	SizeBy string `json:"size_by,omitempty" toml:"size_by"`

	PNGScale float64     `json:"png_scale,omitempty" toml:"png_scale"`
	Refresh  bool        `json:"refresh,omitempty" toml:"-"`
	Logger   *log.Logger `json:"-" toml:"-"`
}

// ValidateAndSetDefaults validates the options and fills defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	for _, f := range o.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.PNGScale < 0 {
		return fmt.Errorf("png scale must be positive, got %v", o.PNGScale)
	}
	return nil
}

// Render produces the requested formats from a laid-out graph. hit is true
// when every artifact came from the cache.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts RenderOptions) (artifacts map[string][]byte, hit bool, err error) {
	if g == nil {
		return nil, false, fmt.Errorf("render: nil graph")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	graphData, err := nxio.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph: %w", err)
	}
	layoutHash := cache.Hash(graphData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, f := range opts.Formats {
		if opts.Refresh {
			missing = append(missing, f)
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.keyOpts(f))
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			artifacts[f] = data
			continue
		}
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		logger.Debug("artifacts served from cache", "formats", opts.Formats)
		return artifacts, true, nil
	}

	rendered, err := renderFormats(g, missing, opts)
	if err != nil {
		return nil, false, err
	}
	for f, data := range rendered {
		artifacts[f] = data
		_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(layoutHash, opts.keyOpts(f)), data, cache.TTLArtifact)
	}
	logger.Info("rendered outputs", "formats", missing)
	return artifacts, false, nil
}

func (o *RenderOptions) keyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, ShowLabels: o.ShowLabels, SizeBy: o.SizeBy}
}

// renderFormats builds DOT once and derives every other format from it.
func renderFormats(g *graph.Graph, formats []string, opts RenderOptions) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))

	var dot string
	var svg []byte
	needDOT := slices.ContainsFunc(formats, func(f string) bool { return f != render.FormatJSON })
	if needDOT {
		var err error
		dot, err = nodelink.ToDOT(g, nodelink.Options{ShowLabels: opts.ShowLabels, SizeBy: opts.SizeBy})
		if err != nil {
			return nil, fmt.Errorf("generate DOT: %w", err)
		}
	}
	needSVG := slices.ContainsFunc(formats, func(f string) bool {
		return f == render.FormatSVG || f == render.FormatPNG || f == render.FormatPDF
	})
	if needSVG {
		var err error
		svg, err = nodelink.RenderSVG(dot)
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
	}

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case render.FormatDOT:
			data = []byte(dot)
		case render.FormatSVG:
			data = svg
		case render.FormatPNG:
			data, err = render.ToPNG(svg, opts.PNGScale)
		case render.FormatPDF:
			data, err = render.ToPDF(svg)
		case render.FormatJSON:
			var buf bytes.Buffer
			err = nxio.WriteJSON(g, &buf)
			data = buf.Bytes()
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}
