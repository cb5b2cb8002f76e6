package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a configuration file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format for path from its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %q", ext)
	}
}

// Parse decodes data in the given format into a Config. An empty document
// yields an empty Config.
func Parse(data []byte, f Format) (Config, error) {
	var m map[string]any
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			break
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown config format %q", f)
	}
	return New(m), nil
}

// FromFile reads path and parses it in the format its extension names.
func FromFile(path string) (Config, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, f)
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) { return Parse(data, FormatYAML) }

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) { return Parse(data, FormatJSON) }

// Load reads the settings file at path. Unknown keys are reported together
// with invalid values, so a misspelled section does not silently fall back
// to defaults.
func Load(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s, err := Decode(cfg)
	var errs []error
	for _, key := range UnknownKeys(cfg) {
		errs = append(errs, fmt.Errorf("config %s: unknown key", key))
	}
	if err != nil {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}

// sections lists the keys Decode reads. A nil entry is a scalar; variables
// accept any name.
var sections = map[string][]string{
	"typing":         nil,
	"conversion":     nil,
	"slow_threshold": nil,
	"policy":         {"compile", "evaluate", "context"},
	"limits":         {"steps", "depth"},
	"cache":          {"enabled", "size"},
	"observability":  {"metrics", "tracing"},
	"variables":      nil,
}

// UnknownKeys returns the sorted dotted paths in c that Decode ignores.
func UnknownKeys(c Config) []string {
	var unknown []string
	for key, val := range c.Raw() {
		fields, ok := sections[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if fields == nil {
			continue
		}
		sub, ok := asMap(val)
		if !ok {
			continue
		}
		for name := range sub {
			if !slices.Contains(fields, name) {
				unknown = append(unknown, key+"."+name)
			}
		}
	}
	slices.Sort(unknown)
	return unknown
}
