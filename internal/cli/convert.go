package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/graph/transform"
	"github.com/matzehuels/netgraph/pkg/layout"
)

// convertOpts holds the flag values of the convert command.
type convertOpts struct {
	directed   bool
	undirected bool
	merge      bool
	keep       []string
	fit        string
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a graph between JSON and GraphML",
		Long: `Convert a graph file, optionally transforming it on the way.

The format of each side is chosen by extension: .graphml and .xml are
GraphML, anything else is netgraph JSON. "-" reads JSON from stdin or
writes JSON to stdout. Locations, polar coordinates and metadata survive
the round trip.

Transformations run in this order: --keep, --directed/--undirected,
--merge-duplicates, --fit.`,
		Example: `  netgraph convert network.graphml network.json
  netgraph convert graph.json undirected.json --undirected --merge-duplicates
  netgraph convert laid-out.json poster.json --fit 2400x1800`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(args[0])
			if err != nil {
				return err
			}
			if g, err = applyConversions(g, opts); err != nil {
				return err
			}
			if err := writeGraph(g, args[1]); err != nil {
				return err
			}
			if args[1] != "-" {
				printSuccess("Converted %s", args[0])
				printStats(g.VertexCount(), g.EdgeCount(), false)
				printFile(args[1])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.directed, "directed", false, "replace undirected edges by a directed pair")
	cmd.Flags().BoolVar(&opts.undirected, "undirected", false, "make every edge undirected")
	cmd.Flags().BoolVar(&opts.merge, "merge-duplicates", false, "keep only the first edge of each duplicate group")
	cmd.Flags().StringSliceVar(&opts.keep, "keep", nil, "keep only these vertex IDs")
	cmd.Flags().StringVar(&opts.fit, "fit", "", "rescale the layout into a WIDTHxHEIGHT rectangle")
	cmd.MarkFlagsMutuallyExclusive("directed", "undirected")

	return cmd
}

// applyConversions runs the requested transformations on g.
func applyConversions(g *graph.Graph, opts convertOpts) (*graph.Graph, error) {
	if len(opts.keep) > 0 {
		ids, err := parseVertexIDs(opts.keep)
		if err != nil {
			return nil, err
		}
		g = transform.FilterIDs(g, ids)
	}
	switch {
	case opts.directed:
		g = transform.ToDirected(g)
	case opts.undirected:
		g = transform.ToUndirected(g)
	}
	if opts.merge {
		merged, stats := transform.MergeDuplicateEdges(g)
		printDetail("Merged %d duplicate edges", stats.Removed)
		g = merged
	}
	if opts.fit != "" {
		to, err := parseSize(opts.fit)
		if err != nil {
			return nil, err
		}
		from, ok := layout.Bounds(g)
		if !ok {
			return nil, fmt.Errorf("--fit: graph has no vertices")
		}
		if err := layout.TransformLayout(g, from, to); err != nil {
			return nil, err
		}
		graph.SetValue(g.Metadata(), graph.LayoutBounds, to)
	}
	return g, nil
}

func parseVertexIDs(values []string) ([]graph.VertexID, error) {
	ids := make([]graph.VertexID, len(values))
	for i, s := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("vertex ID %q: %w", s, err)
		}
		ids[i] = graph.VertexID(n)
	}
	return ids, nil
}

// parseSize parses "WIDTHxHEIGHT" into a rectangle anchored at the origin.
func parseSize(s string) (r2.Box, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return r2.Box{}, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil || width <= 0 {
		return r2.Box{}, fmt.Errorf("size %q: bad width", s)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil || height <= 0 {
		return r2.Box{}, fmt.Errorf("size %q: bad height", s)
	}
	return r2.Box{Max: r2.Vec{X: width, Y: height}}, nil
}
