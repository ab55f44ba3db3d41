package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/netgraph/pkg/layout"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// layoutFlags holds layout flag values shared by layout and render.
type layoutFlags struct {
	layoutType string
	width      float64
	height     float64
	margin     float64
	seed       uint64
	iterations int
	sortBy     string
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.layoutType, "type", "t", "", fmt.Sprintf("layout algorithm: %s", strings.Join(layout.Names(), ", ")))
	fs.Float64VarP(&f.width, "width", "W", 0, "layout width")
	fs.Float64VarP(&f.height, "height", "H", 0, "layout height")
	fs.Float64Var(&f.margin, "margin", 0, "inset from the layout edges")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for randomized layouts")
	fs.IntVar(&f.iterations, "iterations", 0, "iterations for the force layout")
	fs.StringVar(&f.sortBy, "sort-by", "", `vertex order for sequential layouts: "id", "name" or a numeric metadata key`)
}

// options overlays the flags that were set on the configured defaults.
func (f *layoutFlags) options(fs *pflag.FlagSet, base pipeline.LayoutOptions) pipeline.LayoutOptions {
	opts := base
	if fs.Changed("type") {
		opts.Type = f.layoutType
	}
	if fs.Changed("width") {
		opts.Width = f.width
	}
	if fs.Changed("height") {
		opts.Height = f.height
	}
	if fs.Changed("margin") {
		opts.Margin = f.margin
	}
	if fs.Changed("seed") {
		opts.Seed = f.seed
	}
	if fs.Changed("iterations") {
		opts.Iterations = f.iterations
	}
	if fs.Changed("sort-by") {
		opts.SortBy = f.sortBy
	}
	return opts
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   layoutFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout <graph>",
		Short: "Position the vertices of a graph",
		Long: `Compute vertex locations with one of the layout algorithms and write the
graph with locations and layout bounds.

Locked vertices keep their location. Sequential layouts (circle, grid,
spiral, polar) place vertices in the order given by --sort-by, which may
name a metric column written by "netgraph metrics --apply".`,
		Example: `  netgraph layout graph.json -t circle -o laid-out.json
  netgraph layout annotated.json -t polar --sort-by Degree -o polar.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd.Flags(), c.Config.Layout)
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout as JSON)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, opts pipeline.LayoutOptions) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	g, err := readGraph(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Type))
	spinner.Start()
	hit, err := runner.Layout(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if output != "" {
		printSuccess("%s layout (%gx%g)", opts.Type, opts.Width, opts.Height)
		printStats(g.VertexCount(), g.EdgeCount(), hit)
	}
	if err := writeGraph(g, output); err != nil {
		return err
	}
	if output != "" {
		printFile(output)
		printNextStep("Render it with", "netgraph render "+output)
	}
	return nil
}
