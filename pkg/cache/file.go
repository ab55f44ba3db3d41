package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps entries as JSON files under one directory, partitioned by
// [Kind]:
//
//	<dir>/metrics/3f/3fa8...e1.json
//	<dir>/layout/...
//	<dir>/artifact/...
//
// Each file records its full key, so a file never answers for another key.
// Expired entries are removed when read or by [FileCache.Prune].
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Data      []byte    `json:"data"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the entry stored under key. Unreadable, foreign and expired
// files are removed and count as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	entry, err := readEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil || entry.Key != key || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data under key. The file is written next to its final name and
// renamed into place, so concurrent readers see either the old or the new
// entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	entry := fileEntry{Key: key, Kind: KindOf(key), CreatedAt: now, Data: data}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. A missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close implements [Cache].
func (c *FileCache) Close() error { return nil }

// Clear implements [Clearer]. Emptied subdirectories are removed as well.
func (c *FileCache) Clear(ctx context.Context, kinds ...Kind) (int, error) {
	if len(kinds) == 0 {
		kinds = append(Kinds(), KindOther)
	}
	removed := 0
	for _, kind := range kinds {
		n, err := c.removeWhere(ctx, kind, func(string) bool { return true })
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Prune removes expired and unreadable entries of every kind.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := time.Now()
	removed := 0
	for _, kind := range append(Kinds(), KindOther) {
		n, err := c.removeWhere(ctx, kind, func(path string) bool {
			entry, err := readEntry(path)
			return err != nil || entry.expired(now)
		})
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Usage summarizes the entries of one kind.
type Usage struct {
	Entries int
	Bytes   int64
}

// Usage reports entry counts and sizes per kind. Kinds without entries are
// omitted.
func (c *FileCache) Usage() (map[Kind]Usage, error) {
	out := make(map[Kind]Usage)
	for _, kind := range append(Kinds(), KindOther) {
		err := c.walkKind(kind, func(path string, d fs.DirEntry) error {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			u := out[kind]
			u.Entries++
			u.Bytes += info.Size()
			out[kind] = u
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *FileCache) removeWhere(ctx context.Context, kind Kind, match func(path string) bool) (int, error) {
	removed := 0
	var dirs []string
	err := c.walkKind(kind, func(path string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if match(path) && os.Remove(path) == nil {
			removed++
		}
		dirs = append(dirs, filepath.Dir(path))
		return nil
	})
	// Emptied shard directories go too; os.Remove fails on non-empty ones.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	_ = os.Remove(filepath.Join(c.dir, string(kind)))
	return removed, err
}

// walkKind calls fn for every entry file of kind.
func (c *FileCache) walkKind(kind Kind, fn func(path string, d fs.DirEntry) error) error {
	root := filepath.Join(c.dir, string(kind))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		return fn(path, d)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// path maps key to <dir>/<kind>/<h[:2]>/<h>.json with h = Hash(key).
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, string(KindOf(key)), h[:2], h+".json")
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)
