// Package config loads the netgraph configuration file.
//
// The file is TOML and optional. It is looked up at --config or at
// $XDG_CONFIG_HOME/netgraph/config.toml (~/.config/netgraph/config.toml when
// XDG_CONFIG_HOME is unset). Command-line flags override file values and the
// pipeline fills whatever is still unset.
//
// Example:
//
//	[metrics]
//	calculators = ["brandes", "degree"]
//	stop_on_first_failure = false
//
//	[layout]
//	type = "polar"
//	width = 1024
//	height = 768
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	run_timeout = "2m"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/metrics"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

const appName = "netgraph"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile  = "file"
	StoreMongo = "mongo"
	StoreNone  = "none"
)

// Server defaults.
const (
	DefaultAddr        = ":8080"
	DefaultRunTimeout  = 5 * time.Minute
	DefaultMaxBodySize = 32 << 20
)

// Config is the decoded configuration file.
type Config struct {
	Metrics MetricsConfig          `toml:"metrics"`
	Layout  pipeline.LayoutOptions `toml:"layout"`
	Render  pipeline.RenderOptions `toml:"render"`
	Cache   CacheConfig            `toml:"cache"`
	Store   StoreConfig            `toml:"store"`
	Server  ServerConfig           `toml:"server"`
}

// MetricsConfig holds metric run defaults.
type MetricsConfig struct {
	Calculators        []string `toml:"calculators"`
	StopOnFirstFailure bool     `toml:"stop_on_first_failure"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend string `toml:"backend"`

	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`

	RedisURL  string `toml:"redis_url"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
}

// StoreConfig selects where reports are kept.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ServerConfig configures `netgraph serve`.
type ServerConfig struct {
	Addr        string        `toml:"addr"`
	RunTimeout  time.Duration `toml:"run_timeout"`
	MaxBodySize int64         `toml:"max_body_size"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if len(c.Metrics.Calculators) == 0 {
		c.Metrics.Calculators = slices.Clone(pipeline.DefaultCalculators)
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.RunTimeout == 0 {
		c.Server.RunTimeout = DefaultRunTimeout
	}
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = DefaultMaxBodySize
	}
}

// Validate checks backend names and nested options.
func (c *Config) Validate() error {
	if _, err := metrics.LookupAll(c.Metrics.Calculators); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" && c.Cache.RedisAddr == "" {
			return nxerrors.New(nxerrors.ErrCodeInvalidInput, "cache: redis backend needs redis_url or redis_addr")
		}
	default:
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "cache: unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreFile, StoreNone:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return nxerrors.New(nxerrors.ErrCodeInvalidInput, "store: mongo backend needs mongo_uri")
		}
	default:
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "store: unknown backend %q (want file, mongo or none)", c.Store.Backend)
	}
	layout := c.Layout
	if err := layout.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	render := c.Render
	if err := render.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if c.Server.RunTimeout < 0 {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "server: run_timeout must be positive")
	}
	return nil
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path. An empty path means DefaultPath, and
// a missing file there yields the defaults. A missing explicit path is an
// error. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !explicit {
				return Default(), nil
			}
			return nil, nxerrors.Wrap(nxerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, nxerrors.New(nxerrors.ErrCodeInvalidFormat, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// CacheDir returns the file cache directory: Cache.Dir when set, else
// $XDG_CACHE_HOME/netgraph or ~/.cache/netgraph.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
