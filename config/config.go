// Package config loads the workspace file that names the sessions a uvfs
// invocation works with.
package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/directory"
	"github.com/mwantia/uvfs/log"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is prepended to every environment override, e.g. UVFS_LOG_LEVEL.
const EnvPrefix = "UVFS"

// Config holds a workspace: logging and the named mounts.
type Config struct {
	Log    LogConfig              `toml:"log" yaml:"log"`
	Mounts map[string]MountConfig `toml:"mounts" yaml:"mounts"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" envconfig:"LOG_LEVEL"`
	File  string `toml:"file" yaml:"file" envconfig:"LOG_FILE"`
	JSON  bool   `toml:"json" yaml:"json" envconfig:"LOG_JSON"`
}

// MountConfig describes one session: the driver kind, an optional directory
// strategy and the driver settings passed through as backend.Config.
type MountConfig struct {
	Kind        string         `toml:"kind" yaml:"kind"`
	Directories string         `toml:"directories" yaml:"directories"`
	ReadOnly    bool           `toml:"read_only" yaml:"read_only"`
	Settings    map[string]any `toml:"settings" yaml:"settings"`
}

// Default returns a workspace with a single in-memory mount named "mem".
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Mounts: map[string]MountConfig{
			"mem": {
				Kind: "memory",
			},
		},
	}
}

// Load reads the workspace file at path. The format is picked by extension:
// .toml, .yaml or .yml. Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(filepath.Ext(path), content)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", path, err)
	}

	return cfg, nil
}

// Parse decodes content in the format named by ext and applies the
// environment overrides.
func Parse(ext string, content []byte) (*Config, error) {
	cfg := &Config{}

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		decoder := toml.NewDecoder(bytes.NewReader(content))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.UnmarshalWithOptions(content, cfg, yaml.Strict()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format '%s'", data.ErrInvalid, ext)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides the log settings with UVFS_LOG_* variables when set.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, &c.Log); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	return nil
}

// Validate checks the log level, every mount kind and every strategy name.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", data.ErrInvalid, err)
	}

	for _, name := range c.MountNames() {
		mount := c.Mounts[name]
		if mount.Kind == "" {
			return fmt.Errorf("%w: mount '%s' has no kind", data.ErrInvalid, name)
		}
		if strings.ContainsAny(name, ":/") {
			return fmt.Errorf("%w: mount name '%s' must not contain ':' or '/'", data.ErrInvalid, name)
		}
		if mount.Directories != "" {
			if _, err := directory.ParseType(mount.Directories); err != nil {
				return fmt.Errorf("mount '%s': %w", name, err)
			}
		}
	}

	return nil
}

// MountNames returns the configured mount names in sorted order.
func (c *Config) MountNames() []string {
	names := make([]string, 0, len(c.Mounts))
	for name := range c.Mounts {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger("uvfs", level, c.Log.File, false)
	logger.JSON = c.Log.JSON

	return logger, nil
}

// Open constructs and opens the session described by m.
func (m MountConfig) Open(ctx context.Context, opts ...vfs.VirtualFileSystemOption) (vfs.VirtualFileSystem, error) {
	opts = slices.Clone(opts)
	if m.Directories != "" {
		opts = append(opts, vfs.WithDirectories(directory.Type(m.Directories)))
	}
	if m.ReadOnly {
		opts = append(opts, vfs.WithReadOnly())
	}

	return vfs.Open(ctx, m.Kind, backend.Config(m.Settings), opts...)
}
