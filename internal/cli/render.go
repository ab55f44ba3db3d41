package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// renderOpts holds the flag values of the render command.
type renderOpts struct {
	layout     layoutFlags
	formats    string
	output     string
	showLabels bool
	sizeBy     string
	relayout   bool
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render a graph as SVG, PNG, PDF, DOT or JSON",
		Long: `Render a graph as a node-link diagram.

Graphs without layout bounds are laid out first using the layout flags.
Pass --relayout to lay out a graph that already has locations.
PNG and PDF output require rsvg-convert (librsvg).`,
		Example: `  netgraph render laid-out.json
  netgraph render graph.json -t circle -f svg,png -o out/graph
  netgraph render annotated.json --size-by BetweennessCentrality --labels`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lopts := opts.layout.options(cmd.Flags(), c.Config.Layout)
			ropts := c.Config.Render
			if cmd.Flags().Changed("format") || len(ropts.Formats) == 0 {
				formats, err := parseFormats(opts.formats)
				if err != nil {
					return err
				}
				ropts.Formats = formats
			}
			if cmd.Flags().Changed("labels") {
				ropts.ShowLabels = opts.showLabels
			}
			if cmd.Flags().Changed("size-by") {
				ropts.SizeBy = opts.sizeBy
			}
			return c.runRender(cmd.Context(), args[0], opts, lopts, ropts)
		},
	}

	opts.layout.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats, comma-separated: svg, png, pdf, dot, json (default svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path stem (default: input path without extension)")
	cmd.Flags().BoolVar(&opts.showLabels, "labels", false, "draw vertex labels")
	cmd.Flags().StringVar(&opts.sizeBy, "size-by", "", "scale vertices by a numeric metadata key")
	cmd.Flags().BoolVar(&opts.relayout, "relayout", false, "lay out even when the graph already has a layout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, lopts pipeline.LayoutOptions, ropts pipeline.RenderOptions) error {
	if err := lopts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if err := ropts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	g, err := readGraph(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()
	layoutHit := true
	if opts.relayout || !hasLayout(g) {
		spinner.SetMessage(fmt.Sprintf("Computing %s layout...", lopts.Type))
		if layoutHit, err = runner.Layout(ctx, g, lopts); err != nil {
			spinner.StopWithError("Layout failed")
			return err
		}
		spinner.SetMessage("Rendering...")
	}
	artifacts, renderHit, err := runner.Render(ctx, g, ropts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	printSuccess("Rendered %d format(s)", len(ropts.Formats))
	printStats(g.VertexCount(), g.EdgeCount(), layoutHit && renderHit)

	base := outputBase(input, opts.output)
	for _, format := range ropts.Formats {
		path := base + "." + format
		if path == input {
			return fmt.Errorf("refusing to overwrite input %s (pass --output)", input)
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// hasLayout reports whether g carries layout bounds from an earlier pass.
func hasLayout(g *graph.Graph) bool {
	_, ok, err := graph.TryGetValue(g.Metadata(), graph.LayoutBounds)
	return ok && err == nil
}
