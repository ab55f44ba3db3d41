// Package cache provides the byte-level caches used by the pipeline and the
// keys it stores results under.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP service and [NullCache] when caching is disabled. A [Keyer]
// turns a graph content hash and stage options into a key; [ScopedKeyer]
// prefixes every key for per-tenant isolation.
//
// Every key names the pipeline stage it belongs to (its [Kind]), so the
// file and Redis backends can clear metric reports, layouts and rendered
// artifacts independently.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind is the pipeline stage a cache entry belongs to.
type Kind string

// Cache entry kinds.
const (
	KindMetrics  Kind = "metrics"
	KindLayout   Kind = "layout"
	KindArtifact Kind = "artifact"

	// KindOther holds keys not produced by a [Keyer].
	KindOther Kind = "other"
)

// Kinds lists the kinds a [Keyer] produces.
func Kinds() []Kind { return []Kind{KindMetrics, KindLayout, KindArtifact} }

// ParseKind parses a kind name as accepted on the command line.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown cache kind %q (known: metrics, layout, artifact)", s)
}

// KindOf returns the kind of a key. Scope prefixes added by a
// [ScopedKeyer] are skipped: the first colon-separated segment naming a
// kind wins.
func KindOf(key string) Kind {
	for _, seg := range strings.Split(key, ":") {
		switch k := Kind(seg); k {
		case KindMetrics, KindLayout, KindArtifact:
			return k
		}
	}
	return KindOther
}

// stageKey builds "<kind>[:<qualifier>]:<sha256 of parts>".
func stageKey(kind Kind, qualifier string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	if qualifier != "" {
		return fmt.Sprintf("%s:%s:%s", kind, qualifier, hex.EncodeToString(sum[:]))
	}
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data. Graph content hashes, report graph
// hashes and file cache names all use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Default time-to-live per cached artifact.
const (
	TTLMetrics  = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Clearer is implemented by backends that can drop entries by kind.
type Clearer interface {
	// Clear removes every entry of the given kinds, or every entry when no
	// kind is given, and returns how many were removed.
	Clear(ctx context.Context, kinds ...Kind) (int, error)
}

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// MetricsKeyOpts are the inputs of a metric run that change its result.
type MetricsKeyOpts struct {
	Calculators        []string `json:"calculators"`
	StopOnFirstFailure bool     `json:"stop_on_first_failure"`
}

// LayoutKeyOpts are the inputs of a layout pass that change its result.
type LayoutKeyOpts struct {
	Type       string  `json:"type"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Margin     float64 `json:"margin"`
	Seed       uint64  `json:"seed"`
	Iterations int     `json:"iterations"`
	SortBy     string  `json:"sort_by,omitempty"`
}

// ArtifactKeyOpts are the inputs of a render that change its bytes.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	ShowLabels bool   `json:"show_labels"`
	SizeBy     string `json:"size_by,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	MetricsKey(graphHash string, opts MetricsKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options next to the content hash, so any option
// change yields a new key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// MetricsKey returns the key of a metric report.
func (DefaultKeyer) MetricsKey(graphHash string, opts MetricsKeyOpts) string {
	return stageKey(KindMetrics, "", graphHash, opts)
}

// LayoutKey returns the key of a laid-out graph.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return stageKey(KindLayout, "", graphHash, opts)
}

// ArtifactKey returns the key of a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return stageKey(KindArtifact, opts.Format, layoutHash, opts)
}

// NullCache stores nothing. The runner falls back to it when no cache is
// configured, and the CLI uses it for --no-cache and the "none" backend.
type NullCache struct{}

// NewNullCache returns a cache on which every Get misses.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

// Clear implements [Clearer]; there is never anything to remove.
func (*NullCache) Clear(context.Context, ...Kind) (int, error) { return 0, nil }

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
