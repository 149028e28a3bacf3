// Package attrconfig loads the .attrcore.toml configuration file: the
// extra attributes file path, the system attributes file override, and
// cache sizing, following the load-then-default-then-validate shape used
// elsewhere in this codebase's TOML config loaders.
package attrconfig

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ErrConfigNotFound is returned by Load when path does not exist.
var ErrConfigNotFound = errors.New("attrconfig: config file not found")

// Config is the parsed .attrcore.toml document.
type Config struct {
	Path string `toml:"-"` // path this config was loaded from, not in TOML

	AttributesFile string      `toml:"attributes_file"` // core.attributesfile analogue
	SystemFile     string      `toml:"system_file"`
	IgnoreCase     bool        `toml:"ignore_case"`
	Cache          CacheConfig `toml:"cache"`
}

// CacheConfig holds cache sizing; its one setting bounds each Session's
// memo, not the process-wide AttrFile cache.
type CacheConfig struct {
	// MaxMemoEntries bounds a Session's per-path memo LRU (spec.md §4.6);
	// the Cache itself is deliberately unbounded (spec.md: "Persisted
	// state: none" also implies no hard eviction policy is needed there).
	MaxMemoEntries int `toml:"max_memo_entries"`
}

// Default returns the configuration used when no .attrcore.toml is
// present.
func Default() *Config {
	return &Config{
		SystemFile: "/etc/gitattributes",
		Cache:      CacheConfig{MaxMemoEntries: 32},
	}
}

// Load reads and parses path, applying defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse parses a TOML configuration string, filling in defaults for any
// field left unset.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.SystemFile == "" {
		cfg.SystemFile = "/etc/gitattributes"
	}
	if cfg.Cache.MaxMemoEntries <= 0 {
		cfg.Cache.MaxMemoEntries = 32
	}
	return cfg, nil
}
