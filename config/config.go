// Package config loads memgraph's declarative configuration: the schema
// file location, storage connection, document projection settings, sync
// strategy, and scan defaults. Grounded on eve.evalgo.org/cli.initConfig's
// viper wiring (file + env + flag precedence), generalized from eve's flat
// flag-bound keys to an unmarshal-to-struct shape since memgraph's config
// is nested rather than a handful of service URLs.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DocsConfig controls Document Projection (C5).
type DocsConfig struct {
	OutputDir string `mapstructure:"outputDir"`
	Format    string `mapstructure:"format"`
	Framework string `mapstructure:"framework"`
}

// SyncConfig controls the Reconciliation Engine (C6).
type SyncConfig struct {
	ConflictStrategy string `mapstructure:"conflictStrategy"`
}

// RemoteConfig controls shallow-clone behavior for remote scan targets.
type RemoteConfig struct {
	Depth  int    `mapstructure:"depth"`
	Branch string `mapstructure:"branch"`
}

// PropertyMapping is one of {field}, {from}, {value}, or {compute}; exactly
// one should be set. The scanner resolves them in that priority order.
// Compute names a built-in transform (the declarative config format has no
// way to embed an arbitrary closure, so "compute" is a registry lookup
// rather than a literal function) from scanner's compute registry, e.g.
// "basename" or "language".
type PropertyMapping struct {
	Field   string `mapstructure:"field"`
	From    string `mapstructure:"from"`
	Value   any    `mapstructure:"value"`
	Compute string `mapstructure:"compute"`
}

// MappingRule declares how one artifact kind maps to a schema label.
type MappingRule struct {
	ArtifactKind string                     `mapstructure:"artifactKind"`
	Label        string                     `mapstructure:"label"`
	Properties   map[string]PropertyMapping `mapstructure:"properties"`
	Filter       string                     `mapstructure:"filter"`
}

// ScanConfig controls the Codebase Scanner (C7).
type ScanConfig struct {
	Include   []string      `mapstructure:"include"`
	Exclude   []string      `mapstructure:"exclude"`
	Languages []string      `mapstructure:"languages"`
	Mappings  []MappingRule `mapstructure:"mappings"`
	Remote    RemoteConfig  `mapstructure:"remote"`
}

// Config is the top-level declarative configuration.
type Config struct {
	Schema            string     `mapstructure:"schema"`
	StorageConnection string     `mapstructure:"storageConnection"`
	Docs              DocsConfig `mapstructure:"docs"`
	Sync              SyncConfig `mapstructure:"sync"`
	Scan              ScanConfig `mapstructure:"scan"`
}

// envPrefix is the prefix viper uses for automatic environment variable
// overrides: MEMGRAPH_DOCS_OUTPUTDIR overrides docs.outputDir, and so on.
const envPrefix = "MEMGRAPH"

// Load reads configuration from path (if non-empty), then layers
// environment variable overrides under the MEMGRAPH_ prefix, and returns
// the decoded Config with defaults applied for any field left unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: reading %s", path)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("docs.format", "markdown")
	v.SetDefault("docs.outputDir", "./docs")
	v.SetDefault("sync.conflictStrategy", "fail")
	v.SetDefault("scan.remote.depth", 1)
	v.SetDefault("scan.remote.branch", "main")
}

// Validate rejects a Config with an unrecognized conflict strategy or an
// empty storage connection string, the two fields every caller depends on
// before it can do anything.
func (c *Config) Validate() error {
	switch c.Sync.ConflictStrategy {
	case "graph-wins", "docs-wins", "merge", "fail":
	default:
		return fmt.Errorf("config: sync.conflictStrategy %q is not one of graph-wins|docs-wins|merge|fail", c.Sync.ConflictStrategy)
	}
	if c.StorageConnection == "" {
		return fmt.Errorf("config: storageConnection is required")
	}
	return nil
}
