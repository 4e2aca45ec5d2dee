// Package config loads octdeps project settings.
//
// Settings come from three layers, later ones overriding earlier ones: a
// .octdeps.yml file, the OCTDEPS_PATH and OCTDEPS_EXCLUDE environment
// variables, and command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the project file looked up by Find.
const FileName = ".octdeps.yml"

// Environment variables holding lists separated by os.PathListSeparator.
const (
	EnvPath    = "OCTDEPS_PATH"
	EnvExclude = "OCTDEPS_EXCLUDE"
)

// Config holds resolver settings.
type Config struct {
	// Path is the load path, searched in order.
	Path []string `yaml:"path,omitempty"`
	// Exclude holds path prefixes whose functions are not reported.
	Exclude []string `yaml:"exclude,omitempty"`
	// Builtins are extra names treated as builtins, added to the defaults.
	Builtins []string `yaml:"builtins,omitempty"`
	// MaxDepth bounds nested function walks. Zero means the default.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Load reads a project file. Relative load path entries and exclude
// prefixes are taken relative to the directory holding the file. Unknown
// keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("parsing %s: max_depth must not be negative", path)
	}

	base := filepath.Dir(path)
	c.Path = absolute(base, c.Path)
	c.Exclude = absolute(base, c.Exclude)
	return c, nil
}

func absolute(base string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" && !filepath.IsAbs(p) {
			p = KeepTrailingSeparator(p, filepath.Join(base, p))
		}
		out = append(out, p)
	}
	return out
}

// KeepTrailingSeparator returns resolved, the cleaned form of orig, with
// the trailing separator of orig put back. Exclude prefixes are compared
// textually, so "lib/" must not widen to "lib".
func KeepTrailingSeparator(orig, resolved string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(orig, sep) && !strings.HasSuffix(resolved, sep) {
		return resolved + sep
	}
	return resolved
}

// Find looks for FileName in dir and its parents and returns the first
// match.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// FromEnv returns a copy of c with the lists set in the environment
// replacing the configured ones. Empty list entries are dropped.
func FromEnv(c *Config) *Config {
	out := c.clone()
	if v, ok := os.LookupEnv(EnvPath); ok {
		out.Path = split(v)
	}
	if v, ok := os.LookupEnv(EnvExclude); ok {
		out.Exclude = split(v)
	}
	return out
}

func split(v string) []string {
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Merge returns a copy of c overridden by the non-empty settings of o.
// Builtins accumulate.
func (c *Config) Merge(o *Config) *Config {
	out := c.clone()
	if o == nil {
		return out
	}
	if len(o.Path) > 0 {
		out.Path = append([]string(nil), o.Path...)
	}
	if len(o.Exclude) > 0 {
		out.Exclude = append([]string(nil), o.Exclude...)
	}
	out.Builtins = append(out.Builtins, o.Builtins...)
	if o.MaxDepth > 0 {
		out.MaxDepth = o.MaxDepth
	}
	return out
}

func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}
	return &Config{
		Path:     append([]string(nil), c.Path...),
		Exclude:  append([]string(nil), c.Exclude...),
		Builtins: append([]string(nil), c.Builtins...),
		MaxDepth: c.MaxDepth,
	}
}
