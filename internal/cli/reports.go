package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/pipeline"
	"github.com/matzehuels/netgraph/pkg/store"
)

// reportsCommand creates the report store command.
func (c *CLI) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage stored metric reports",
		Long: `Manage reports kept by "netgraph metrics --save" and the HTTP server.

The store backend (file or mongo) is chosen in the config file.`,
	}

	cmd.AddCommand(c.reportsListCommand())
	cmd.AddCommand(c.reportsShowCommand())
	cmd.AddCommand(c.reportsDeleteCommand())
	cmd.AddCommand(c.reportsPruneCommand())

	return cmd
}

func (c *CLI) reportsListCommand() *cobra.Command {
	var (
		graphHash string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			reports, err := st.List(ctx, store.ListOptions{GraphHash: graphHash, Limit: limit})
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				printInfo("No stored reports")
				return nil
			}
			fmt.Println(renderTable([]string{"Run", "Created", "Graph", "Calculators", "Failures"}, reportRows(reports)))
			return nil
		},
	}
	cmd.Flags().StringVar(&graphHash, "graph", "", "only reports for this graph hash")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports (0 for all)")
	return cmd
}

func reportRows(reports []*pipeline.Report) [][]string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.RunID,
			r.CreatedAt.Local().Format(time.DateTime),
			shortHash(r.GraphHash),
			strconv.Itoa(len(r.Results)),
			strconv.Itoa(len(r.Failures)),
		}
	}
	return rows
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func (c *CLI) reportsShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printKeyValue("Run", report.RunID)
			printKeyValue("State", report.State.String())
			printKeyValue("Created", report.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("Graph", report.GraphHash)
			printKeyValue("Duration", report.Stats.Duration.Round(time.Millisecond).String())
			printReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func (c *CLI) reportsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete stored reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return err
				}
			}
			printSuccess("Deleted %d report(s)", len(args))
			return nil
		},
	}
}

func (c *CLI) reportsPruneCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete reports older than a retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			ctx := cmd.Context()
			st, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Cleanup(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			printSuccess("Pruned %d report(s) older than %s", n, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", store.DefaultRetention, "retention period")
	return cmd
}
