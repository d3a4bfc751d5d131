// Package manifest loads batch job files: a list of include/exclude globs,
// each paired with the dialect to strip and where to write the results.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/strongdm/decomment/internal/decomment"
)

const DefaultSuffix = ".decommented"

type Defaults struct {
	Dialect string `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	OutDir  string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	Suffix  string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

type Job struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Dialect string   `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	OutDir  string   `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	Suffix  string   `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

type File struct {
	Version  int      `json:"version" yaml:"version"`
	Defaults Defaults `json:"defaults" yaml:"defaults"`
	Jobs     []Job    `json:"jobs" yaml:"jobs"`
}

// Load reads a manifest from path. Files ending in .json are decoded as JSON,
// anything else as YAML. The raw document is checked against the embedded
// schema before defaults are applied.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes and validates manifest bytes.
func Parse(b []byte, isJSON bool) (*File, error) {
	var raw any
	if isJSON {
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var m File
	if isJSON {
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}
	applyDefaults(&m)
	if err := validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// FromPatterns builds a single-job manifest for ad-hoc command-line batches.
func FromPatterns(dialect, outDir, suffix string, patterns []string) (*File, error) {
	m := &File{
		Version:  1,
		Defaults: Defaults{Dialect: dialect, OutDir: outDir, Suffix: suffix},
		Jobs:     []Job{{Name: "cli", Include: patterns}},
	}
	applyDefaults(m)
	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func applyDefaults(m *File) {
	if m == nil {
		return
	}
	if m.Version == 0 {
		m.Version = 1
	}
	if m.Defaults.Suffix == "" {
		m.Defaults.Suffix = DefaultSuffix
	}
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if strings.TrimSpace(j.Dialect) == "" {
			j.Dialect = m.Defaults.Dialect
		}
		if strings.TrimSpace(j.OutDir) == "" {
			j.OutDir = m.Defaults.OutDir
		}
		if j.Suffix == "" {
			j.Suffix = m.Defaults.Suffix
		}
		if strings.TrimSpace(j.Name) == "" {
			j.Name = fmt.Sprintf("job-%d", i+1)
		}
	}
}

func validate(m *File) error {
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}
	if m.Version != 1 {
		return fmt.Errorf("unsupported manifest version: %d", m.Version)
	}
	if len(m.Jobs) == 0 {
		return fmt.Errorf("manifest has no jobs")
	}
	for _, j := range m.Jobs {
		if _, err := decomment.ParseDialect(j.Dialect); err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}
		if len(j.Include) == 0 {
			return fmt.Errorf("job %s: include is required", j.Name)
		}
		for _, p := range append(append([]string{}, j.Include...), j.Exclude...) {
			if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
				return fmt.Errorf("job %s: invalid glob %q", j.Name, p)
			}
		}
	}
	return nil
}
