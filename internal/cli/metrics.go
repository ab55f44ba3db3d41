package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/metrics"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// metricsOpts holds the flag values of the metrics command.
type metricsOpts struct {
	calculators   []string
	stopOnFailure bool
	output        string
	apply         string
	table         string
	fromTable     string
	save          bool
	noCache       bool
	refresh       bool
	noProgress    bool
}

// metricsCommand creates the metrics command.
func (c *CLI) metricsCommand() *cobra.Command {
	var opts metricsOpts

	cmd := &cobra.Command{
		Use:   "metrics <graph>",
		Short: "Compute graph metrics",
		Long: fmt.Sprintf(`Run metric calculators over a graph and summarize the results.

Calculators run in order. A failing calculator is reported and the others
still run unless --stop-on-failure is set. Press ctrl+c to cancel before
the next calculator starts.

Available calculators: %s`, strings.Join(metrics.Names(), ", ")),
		Example: `  netgraph metrics graph.json
  netgraph metrics graph.graphml -c brandes,clustering -o report.json
  netgraph metrics graph.json --apply annotated.json --save
  netgraph metrics graph.json --table centrality.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("stop-on-failure") {
				opts.stopOnFailure = c.Config.Metrics.StopOnFirstFailure
			}
			return c.runMetrics(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.calculators, "calculators", "c", nil, "calculators to run (default from config)")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "skip remaining calculators after a failure")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report as JSON")
	cmd.Flags().StringVar(&opts.apply, "apply", "", "write the graph with metric values attached as metadata")
	cmd.Flags().StringVar(&opts.table, "table", "", "write the brandes centrality table (TSV)")
	cmd.Flags().StringVar(&opts.fromTable, "from-table", "", "attach centralities from a TSV table instead of computing them")
	cmd.Flags().BoolVar(&opts.save, "save", false, "keep the report in the report store")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached report exists")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the interactive progress bar")
	cmd.MarkFlagsMutuallyExclusive("from-table", "table")

	return cmd
}

func (c *CLI) runMetrics(ctx context.Context, input string, opts metricsOpts) error {
	g, err := readGraph(input)
	if err != nil {
		return err
	}
	if opts.fromTable != "" {
		return c.applyCentralityTable(g, opts)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Calculators:        opts.calculators,
		StopOnFirstFailure: opts.stopOnFailure,
		Refresh:            opts.refresh,
	}
	if len(popts.Calculators) == 0 {
		popts.Calculators = c.Config.Metrics.Calculators
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	interactive := !opts.noProgress && isTerminal()
	if !interactive {
		popts.OnProgress = func(fraction float64, label string) {
			c.Logger.Debug("progress", "done", fmt.Sprintf("%.0f%%", fraction*100), "step", label)
		}
	}

	prog := newProgress(c.Logger)
	h := runner.Start(ctx, g, popts)
	var report *pipeline.Report
	if interactive {
		report, err = waitWithProgress(h, "Computing "+strings.Join(popts.Calculators, ", "))
	} else {
		report, err = h.Wait()
	}
	if err != nil {
		return err
	}
	if report.State == pipeline.Cancelled {
		printWarning("Run cancelled before all calculators finished")
		return context.Canceled
	}
	prog.done(fmt.Sprintf("Computed %d of %d calculators", len(report.Results), len(popts.Calculators)))

	printReport(report)
	return c.writeMetricOutputs(ctx, g, report, opts)
}

func (c *CLI) writeMetricOutputs(ctx context.Context, g *graph.Graph, report *pipeline.Report, opts metricsOpts) error {
	if opts.output != "" {
		data, err := pipeline.MarshalReport(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printFile(opts.output)
	}

	if opts.table != "" {
		res, ok := report.Result(metrics.NameBrandes)
		if !ok {
			return fmt.Errorf("--table needs the %s calculator", metrics.NameBrandes)
		}
		if err := writeFileWith(opts.table, func(f *os.File) error {
			return metrics.WriteCentralityTable(f, g, res)
		}); err != nil {
			return err
		}
		printFile(opts.table)
	}

	if opts.apply != "" {
		if err := report.Apply(g); err != nil {
			return err
		}
		if err := writeGraph(g, opts.apply); err != nil {
			return err
		}
		printFile(opts.apply)
	}

	if opts.save {
		st, err := c.requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Put(ctx, report); err != nil {
			return err
		}
		printSuccess("Saved report %s", report.RunID)
		printNextStep("Show it with", "netgraph reports show "+report.RunID)
	}
	return nil
}

// applyCentralityTable attaches the closeness and betweenness values of a
// centrality table to g and writes the result.
func (c *CLI) applyCentralityTable(g *graph.Graph, opts metricsOpts) error {
	f, err := os.Open(opts.fromTable)
	if err != nil {
		return fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	res, err := metrics.ParseCentralityTable(f, g)
	if err != nil {
		return err
	}
	if err := res.Apply(g); err != nil {
		return err
	}
	printSuccess("Read centralities for %d vertices", g.VertexCount())
	return writeGraph(g, opts.apply)
}

// writeFileWith creates path and hands it to write.
func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
