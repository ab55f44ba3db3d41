package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/internal/config"
	"github.com/matzehuels/netgraph/pkg/buildinfo"
	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/graph"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/pipeline"
	"github.com/matzehuels/netgraph/pkg/render"
	"github.com/matzehuels/netgraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "netgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is replaced by the loaded file before any subcommand runs.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Netgraph computes metrics and layouts for network graphs",
		Long:         `Netgraph reads network graphs, computes centrality and structural metrics, lays them out and renders them as SVG, PNG, PDF or DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/netgraph/config.toml)")

	root.AddCommand(c.metricsCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sortCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.Config.Cache.Prefix; prefix != "" && c.Config.Cache.Backend == config.CacheFile {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), prefix)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			URL:    c.Config.Cache.RedisURL,
			Addr:   c.Config.Cache.RedisAddr,
			Prefix: c.Config.Cache.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	case config.CacheNone:
		return cache.NewNullCache(), nil
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open file cache: %w", err)
	}
	return fc, nil
}

// newStore opens the configured report store. It returns nil when reports
// are disabled.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.Config.Store.Backend {
	case config.StoreNone:
		return nil, nil
	case config.StoreMongo:
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:      c.Config.Store.MongoURI,
			Database: c.Config.Store.Database,
		})
	}
	return store.NewFileStore(c.Config.Store.Dir)
}

// requireStore is newStore for commands that cannot work without one.
func (c *CLI) requireStore(ctx context.Context) (store.Store, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("report store is disabled (store.backend = %q)", config.StoreNone)
	}
	return st, nil
}

// =============================================================================
// Graph Files
// =============================================================================

// isGraphML reports whether path names a GraphML file.
func isGraphML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphml", ".xml":
		return true
	}
	return false
}

// readGraph loads a graph file, choosing the codec by extension. "-" reads
// JSON from stdin.
func readGraph(path string) (*graph.Graph, error) {
	switch {
	case path == "-":
		return nxio.ReadJSON(os.Stdin)
	case isGraphML(path):
		return nxio.ImportGraphML(path)
	}
	return nxio.ImportJSON(path)
}

// writeGraph saves a graph, choosing the codec by extension. An empty path
// or "-" writes JSON to stdout.
func writeGraph(g *graph.Graph, path string) error {
	switch {
	case path == "" || path == "-":
		return nxio.WriteJSON(g, os.Stdout)
	case isGraphML(path):
		return nxio.ExportGraphML(g, path)
	}
	return nxio.ExportJSON(g, path)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{render.FormatSVG}, nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if err := render.ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// outputBase returns the path stem for rendered artifacts: the explicit
// output when given, else the input path without its extension.
func outputBase(input, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == "-" {
		return "graph"
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
