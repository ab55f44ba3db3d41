package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netgraph/pkg/cache"
)

func writeFileCacheConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[cache]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(dir) + "\"\n\n[store]\nbackend = \"none\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCacheClearByKind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	k := cache.NewDefaultKeyer()
	metricsKey := k.MetricsKey("g", cache.MetricsKeyOpts{Calculators: []string{"degree"}})
	layoutKey := k.LayoutKey("g", cache.LayoutKeyOpts{Type: "circle"})
	for _, key := range []string{metricsKey, layoutKey} {
		if err := fc.Set(ctx, key, []byte("{}"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	cfg := writeFileCacheConfig(t, dir)

	if _, err := runCLI(t, cfg, "cache", "clear", "--kind", "layout"); err != nil {
		t.Fatalf("cache clear --kind layout: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, layoutKey); hit {
		t.Error("layout entry should be cleared")
	}
	if _, hit, _ := fc.Get(ctx, metricsKey); !hit {
		t.Error("metrics entry should survive")
	}

	out, err := runCLI(t, cfg, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	for _, want := range []string{"metrics", "layout", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output lacks %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, cfg, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, metricsKey); hit {
		t.Error("metrics entry should be cleared")
	}
}

func TestCacheClearUnknownKind(t *testing.T) {
	cfg := writeFileCacheConfig(t, t.TempDir())
	if _, err := runCLI(t, cfg, "cache", "clear", "--kind", "sessions"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCacheClearDisabled(t *testing.T) {
	if _, err := runCLI(t, writeConfig(t, ""), "cache", "clear"); err != nil {
		t.Errorf("cache clear with caching disabled: %v", err)
	}
}

func TestUsageRows(t *testing.T) {
	rows := usageRows(map[cache.Kind]cache.Usage{
		cache.KindMetrics: {Entries: 2, Bytes: 2048},
	})
	if len(rows) != 4 {
		t.Fatalf("rows = %v, want metrics, layout, artifact and total", rows)
	}
	if got := rows[0]; got[0] != "metrics" || got[1] != "2" || got[2] != "2.0 KiB" {
		t.Errorf("metrics row = %v", got)
	}
	if got := rows[3]; got[0] != "total" || got[1] != "2" {
		t.Errorf("total row = %v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KiB", 3 << 20: "3.0 MiB"}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	out, err := runCLI(t, writeConfig(t, ""), "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName) + "\n"; out != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}
