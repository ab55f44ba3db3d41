package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/internal/server"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Start an HTTP server exposing metrics, layout, render and stored reports.

Routes:
  GET  /healthz
  POST /v1/metrics?calculators=brandes,degree
  GET  /v1/reports?graph=<hash>&limit=<n>
  GET  /v1/reports/{id}
  POST /v1/layout?type=polar&width=800&height=600
  POST /v1/render?format=svg

Cache, store and defaults come from the config file. The server stops
gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			srv := server.New(runner, st, c.Logger, server.Options{
				RunTimeout:  c.Config.Server.RunTimeout,
				MaxBodySize: c.Config.Server.MaxBodySize,
				Metrics: pipeline.Options{
					Calculators:        c.Config.Metrics.Calculators,
					StopOnFirstFailure: c.Config.Metrics.StopOnFirstFailure,
				},
				Layout: c.Config.Layout,
				Render: c.Config.Render,
			})
			c.Logger.Info("starting server",
				"cache", c.Config.Cache.Backend,
				"store", c.Config.Store.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
