package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if n, err := c.Clear(ctx); n != 0 || err != nil {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "metrics:abc"); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "metrics:abc", []byte(`{"state":"completed"}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "metrics:abc")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if string(data) != `{"state":"completed"}` {
		t.Errorf("Get = %s", data)
	}

	if err := c.Delete(ctx, "metrics:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "metrics:abc"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "metrics:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	mk1 := k.MetricsKey("hash123", MetricsKeyOpts{Calculators: []string{"brandes"}})
	mk2 := k.MetricsKey("hash123", MetricsKeyOpts{Calculators: []string{"brandes", "degree"}})
	if mk1 == mk2 {
		t.Error("Different calculator sets should produce different keys")
	}
	if mk1 != k.MetricsKey("hash123", MetricsKeyOpts{Calculators: []string{"brandes"}}) {
		t.Error("MetricsKey should be deterministic")
	}
	if mk1 == k.MetricsKey("hash456", MetricsKeyOpts{Calculators: []string{"brandes"}}) {
		t.Error("Different graphs should produce different keys")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Type: "polar", Width: 800})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Type: "circle", Width: 800})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:acme:")

	opts := MetricsKeyOpts{Calculators: []string{"degree"}}
	if got, want := scoped.MetricsKey("h", opts), "tenant:acme:"+inner.MetricsKey("h", opts); got != want {
		t.Errorf("ScopedKeyer MetricsKey = %s, want %s", got, want)
	}
	layoutKey := scoped.LayoutKey("h", LayoutKeyOpts{})
	if len(layoutKey) < 15 || layoutKey[:12] != "tenant:acme:" {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", layoutKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if key != "prefix:"+NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestKindOf(t *testing.T) {
	k := NewDefaultKeyer()
	scoped := NewScopedKeyer(k, "tenant:acme:")
	tests := []struct {
		key  string
		want Kind
	}{
		{k.MetricsKey("h", MetricsKeyOpts{}), KindMetrics},
		{k.LayoutKey("h", LayoutKeyOpts{}), KindLayout},
		{k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), KindArtifact},
		{scoped.LayoutKey("h", LayoutKeyOpts{}), KindLayout},
		{scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "png"}), KindArtifact},
		{"metrics:abc", KindMetrics},
		{"k", KindOther},
		{"", KindOther},
	}
	for _, tt := range tests {
		if got := KindOf(tt.key); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Layout "); err != nil || k != KindLayout {
		t.Errorf("ParseKind(Layout) = %q, %v", k, err)
	}
	if _, err := ParseKind("other"); err == nil {
		t.Error("other is not selectable")
	}
}

func TestFileCachePartitionsByKind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	k := NewDefaultKeyer()
	keys := map[Kind]string{
		KindMetrics:  k.MetricsKey("g", MetricsKeyOpts{Calculators: []string{"degree"}}),
		KindLayout:   k.LayoutKey("g", LayoutKeyOpts{Type: "circle"}),
		KindArtifact: k.ArtifactKey("g", ArtifactKeyOpts{Format: "svg"}),
		KindOther:    "loose",
	}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	for kind, key := range keys {
		if !strings.HasPrefix(c.path(key), filepath.Join(dir, string(kind))+string(filepath.Separator)) {
			t.Errorf("%s entry stored at %s", kind, c.path(key))
		}
	}

	usage, err := c.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	for kind := range keys {
		if usage[kind].Entries != 1 || usage[kind].Bytes == 0 {
			t.Errorf("usage[%s] = %+v", kind, usage[kind])
		}
	}

	n, err := c.Clear(ctx, KindLayout)
	if err != nil || n != 1 {
		t.Fatalf("Clear(layout) = %d, %v", n, err)
	}
	if _, hit, _ := c.Get(ctx, keys[KindLayout]); hit {
		t.Error("layout entry should be cleared")
	}
	if _, hit, _ := c.Get(ctx, keys[KindMetrics]); !hit {
		t.Error("metrics entry should survive a layout clear")
	}
	if _, err := os.Stat(filepath.Join(dir, string(KindLayout))); !os.IsNotExist(err) {
		t.Errorf("emptied kind directory should be removed: %v", err)
	}

	n, err = c.Clear(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after Clear: %v", entries)
	}
}

func TestFileCacheRejectsForeignEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "metrics:a", []byte("a"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := os.ReadFile(c.path("metrics:a"))
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	target := c.path("metrics:b")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "metrics:b"); hit || err != nil {
		t.Errorf("entry of another key answered: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("foreign entry should be removed")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "layout:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "layout:keep", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	n, err := c.Prune(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	if _, hit, _ := c.Get(ctx, "layout:keep"); !hit {
		t.Error("unexpired entry should survive Prune")
	}
}

// refused is a dial failure as net reports it.
var refused = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func TestRedisRetry(t *testing.T) {
	ctx := context.Background()
	c := &RedisCache{attempts: 3, delay: time.Millisecond}
	boom := errors.New("WRONGTYPE")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"miss is not retried", 1, redis.Nil, 1, redis.Nil},
		{"server error is not retried", 1, boom, 1, boom},
		{"recovers", 1, refused, 2, nil},
		{"exhausted", 5, refused, 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := c.retry(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil || tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedisRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &RedisCache{attempts: 3, delay: time.Hour}
	if err := c.retry(ctx, func() error { return refused }); !errors.Is(err, context.Canceled) {
		t.Errorf("retry with cancelled ctx = %v", err)
	}
}

func TestNewRedisCacheRequiresAddress(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{}); err == nil {
		t.Error("expected error without url or addr")
	}
	if _, err := NewRedisCache(context.Background(), RedisOptions{URL: "http://nope"}); err == nil {
		t.Error("expected error for non-redis url")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("NewRedisCache on closed port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	c := NewRedisCacheFromClient(client, RedisOptions{Prefix: "netgraph:", Attempts: 2, RetryDelay: time.Millisecond})
	defer c.Close()

	if _, hit, err := c.Get(ctx, "k"); !errors.Is(err, ErrNetwork) || hit {
		t.Errorf("Get on closed port: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set on closed port should fail")
	}
	if _, err := c.Clear(ctx, KindMetrics); err == nil {
		t.Error("Clear on closed port should fail")
	}
}
