package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/internal/config"
	"github.com/matzehuels/netgraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached reports, layouts and artifacts",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		kinds   []string
		expired bool
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached entries",
		Long: `Clear cached entries of the configured backend (file or redis).

--kind limits clearing to metric reports, layouts or rendered artifacts.
--expired only removes entries past their time-to-live (file backend; Redis
expires entries itself).`,
		Example: `  netgraph cache clear
  netgraph cache clear --kind layout,artifact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := make([]cache.Kind, 0, len(kinds))
			for _, s := range kinds {
				k, err := cache.ParseKind(s)
				if err != nil {
					return err
				}
				selected = append(selected, k)
			}
			if c.Config.Cache.Backend == config.CacheNone {
				printInfo("Caching is disabled; nothing to clear")
				return nil
			}

			ctx := cmd.Context()
			cc, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			var n int
			switch fc, isFile := cc.(*cache.FileCache); {
			case expired && isFile:
				n, err = fc.Prune(ctx)
			case expired:
				printInfo("Backend %q expires entries itself", c.Config.Cache.Backend)
				return nil
			default:
				clearer, ok := cc.(cache.Clearer)
				if !ok {
					return fmt.Errorf("cache backend %q cannot be cleared", c.Config.Cache.Backend)
				}
				n, err = clearer.Clear(ctx, selected...)
			}
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Nothing to clear")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			if fc, ok := cc.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only these kinds: metrics, layout, artifact")
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries")
	cmd.MarkFlagsMutuallyExclusive("kind", "expired")
	return cmd
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts and sizes of the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != config.CacheFile {
				printInfo("Cache backend is %q; stats cover the file cache only", c.Config.Cache.Backend)
				return nil
			}
			dir, err := c.Config.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			usage, err := fc.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Entries", "Size"}, usageRows(usage)))
			return nil
		},
	}
}

func usageRows(usage map[cache.Kind]cache.Usage) [][]string {
	var rows [][]string
	var total cache.Usage
	for _, kind := range append(cache.Kinds(), cache.KindOther) {
		u, ok := usage[kind]
		if !ok && kind == cache.KindOther {
			continue
		}
		total.Entries += u.Entries
		total.Bytes += u.Bytes
		rows = append(rows, []string{string(kind), strconv.Itoa(u.Entries), formatBytes(u.Bytes)})
	}
	return append(rows, []string{"total", strconv.Itoa(total.Entries), formatBytes(total.Bytes)})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.Config.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
