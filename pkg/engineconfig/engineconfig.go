// Package engineconfig holds core-level tunables that are not part of the
// wire format itself: recursion limits and the default projection and
// composition policy. No other package in this module reads it; the core
// codec packages stay pure and take no configuration of their own.
package engineconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/streamforge/imprint/pkg/value"
)

// Config holds the engine-level settings an operator can tune per
// deployment.
type Config struct {
	// MaxDepth records a recursive nesting limit, defaulting to
	// value.MaxDepth. value.Decode and value.SizeOf always enforce the
	// constant value.MaxDepth and do not read this field.
	MaxDepth int `yaml:"max_depth"`

	Projection  ProjectionPolicy  `yaml:"projection"`
	Composition CompositionPolicy `yaml:"composition"`

	DirCacheCapacity int `yaml:"dircache_capacity"`
}

// ProjectionPolicy holds the default project.Options fields new callers
// should start from.
type ProjectionPolicy struct {
	PreserveSchemaHash bool `yaml:"preserve_schema_hash"`
}

// CompositionPolicy holds the default compose.Options fields new callers
// should start from.
type CompositionPolicy struct {
	PreserveSchemaHash bool `yaml:"preserve_schema_hash"`
	Lenient            bool `yaml:"lenient"`
}

// Default returns the engine's out-of-the-box configuration.
func Default() *Config {
	return &Config{
		MaxDepth:         value.MaxDepth,
		DirCacheCapacity: 1024,
		Projection:       ProjectionPolicy{PreserveSchemaHash: false},
		Composition:      CompositionPolicy{PreserveSchemaHash: false, Lenient: false},
	}
}

// Load reads and parses a YAML configuration file at path, filling in
// Default() for any field the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse engine config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal engine config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write engine config: %w", err)
	}
	return nil
}
