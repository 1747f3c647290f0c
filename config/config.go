// Package config loads shaderc settings from YAML files.
//
// The file is named shaderc.yaml or .shaderc.yaml and is searched for in the
// working directory and its parents. SHADERC_CONFIG names a file explicitly.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/gogpu/shadergraph/spirv"
)

const appName = "shaderc"

// Environment variables.
const (
	EnvConfig   = "SHADERC_CONFIG"
	EnvCacheDir = "SHADERC_CACHE_DIR"
)

// FileNames are searched for in each directory, in order.
var FileNames = []string{
	"shaderc.yaml",
	".shaderc.yaml",
}

// Config is the settings file. Unset fields keep their defaults.
type Config struct {
	// Version is the SPIR-V version, "1.3" by default
	Version string `yaml:"version,omitempty"`

	// Stage is vertex, fragment or compute
	Stage string `yaml:"stage,omitempty"`

	WorkgroupSize []uint32 `yaml:"workgroup_size,omitempty"`

	Debug *bool `yaml:"debug,omitempty"`

	UniformSet     *uint32 `yaml:"uniform_set,omitempty"`
	UniformBinding *uint32 `yaml:"uniform_binding,omitempty"`
	SamplerSet     *uint32 `yaml:"sampler_set,omitempty"`

	Generator *uint32 `yaml:"generator,omitempty"`

	// Output is the directory compiled modules are written to.
	// Relative paths are resolved against the config file directory.
	Output string `yaml:"output,omitempty"`

	// Inputs are doublestar patterns used when no files are given.
	Inputs []string `yaml:"inputs,omitempty"`

	Cache *bool `yaml:"cache,omitempty"`
	// CachePath overrides the cache directory. Relative paths are
	// resolved against the config file directory.
	CachePath string `yaml:"cache_dir,omitempty"`

	Jobs int `yaml:"jobs,omitempty"`

	// Dir is the directory of the loaded file.
	Dir string `yaml:"-"`
}

// Load finds the config file for startDir. SHADERC_CONFIG wins over the
// search. It returns nil and an empty path if there is no file.
func Load(startDir string) (*Config, string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}

	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}

		dir = parent
	}
}

// LoadFile reads the config file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	// an empty file decodes to io.EOF
	if err := dec.Decode(&cfg); err != nil && err != io.EOF { //nolint:errorlint
		return nil, errors.Wrap(err, "decode %v", path)
	}

	cfg.Dir = filepath.Dir(path)

	return &cfg, nil
}

// ToSettings applies c onto spirv.DefaultSettings. A nil Config yields the
// defaults.
func (c *Config) ToSettings() (spirv.Settings, error) {
	s := spirv.DefaultSettings()
	if c == nil {
		return s, nil
	}

	var err error

	if c.Version != "" {
		s.Version, err = spirv.ParseVersion(c.Version)
		if err != nil {
			return s, errors.Wrap(err, "version")
		}
	}

	if c.Stage != "" {
		s.Stage, err = spirv.ParseStage(c.Stage)
		if err != nil {
			return s, errors.Wrap(err, "stage")
		}
	}

	if len(c.WorkgroupSize) > 3 {
		return s, errors.New("workgroup_size: %d dimensions", len(c.WorkgroupSize))
	}

	copy(s.WorkgroupSize[:], c.WorkgroupSize)

	if c.Debug != nil {
		s.Debug = *c.Debug
	}
	if c.UniformSet != nil {
		s.UniformSet = *c.UniformSet
	}
	if c.UniformBinding != nil {
		s.UniformBinding = *c.UniformBinding
	}
	if c.SamplerSet != nil {
		s.SamplerSet = *c.SamplerSet
	}
	if c.Generator != nil {
		s.Generator = *c.Generator
	}

	return s, nil
}

// OutputDir returns the output directory, or "" if none is set.
func (c *Config) OutputDir() string {
	if c == nil || c.Output == "" {
		return ""
	}

	if filepath.IsAbs(c.Output) || c.Dir == "" {
		return c.Output
	}

	return filepath.Join(c.Dir, c.Output)
}

// CacheEnabled reports whether compiled modules are cached. Default true.
func (c *Config) CacheEnabled() bool {
	return c == nil || c.Cache == nil || *c.Cache
}

// CacheDir returns the cache directory.
// Priority: cache_dir > $SHADERC_CACHE_DIR > $XDG_CACHE_HOME/shaderc > ~/.cache/shaderc
func (c *Config) CacheDir() (string, error) {
	if c != nil && c.CachePath != "" {
		if filepath.IsAbs(c.CachePath) || c.Dir == "" {
			return c.CachePath, nil
		}

		return filepath.Join(c.Dir, c.CachePath), nil
	}

	if v := os.Getenv(EnvCacheDir); v != "" {
		return v, nil
	}

	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}

	return filepath.Join(home, ".cache", appName), nil
}
