package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// Settings is the decoded engine configuration.
type Settings struct {
	Converter      value.Converter
	CompilePolicy  perr.Policy
	EvaluatePolicy perr.Policy
	ContextPolicy  perr.Policy
	StepLimit      int
	MaxDepth       int
	CacheEnabled   bool
	CacheSize      int
	SlowThreshold  time.Duration
	Metrics        bool
	Tracing        bool

	// Variables are preloaded into a host's root table.
	Variables map[string]value.Value
}

// Default values used when a key is absent.
const (
	DefaultMaxDepth  = 256
	DefaultCacheSize = 512
)

// DefaultSettings returns the settings used for an empty Config.
func DefaultSettings() Settings {
	return Settings{
		Converter:      value.DefaultConverter,
		CompilePolicy:  perr.PolicyCollect,
		EvaluatePolicy: perr.PolicyCollect,
		ContextPolicy:  perr.PolicyRaise,
		MaxDepth:       DefaultMaxDepth,
		CacheEnabled:   true,
		CacheSize:      DefaultCacheSize,
	}
}

// Decode reads Settings from c. Every invalid key is reported; the
// returned Settings hold defaults for those keys.
func Decode(c Config) (Settings, error) {
	s := DefaultSettings()
	var errs []error

	if v := c.String("typing", ""); v != "" {
		t, err := value.ParseTyping(v)
		errs = appendErr(errs, "typing", err)
		s.Converter.Typing = t
	}
	if v := c.String("conversion", ""); v != "" {
		m, err := value.ParseConversion(v)
		errs = appendErr(errs, "conversion", err)
		s.Converter.Conversion = m
	}

	policies := []struct {
		key string
		dst *perr.Policy
	}{
		{"policy.compile", &s.CompilePolicy},
		{"policy.evaluate", &s.EvaluatePolicy},
		{"policy.context", &s.ContextPolicy},
	}
	for _, p := range policies {
		v := c.String(p.key, "")
		if v == "" {
			continue
		}
		pol, err := perr.ParsePolicy(v)
		if err != nil {
			errs = appendErr(errs, p.key, err)
			continue
		}
		*p.dst = pol
	}

	s.StepLimit = c.Int("limits.steps", s.StepLimit)
	s.MaxDepth = c.Int("limits.depth", s.MaxDepth)
	s.CacheEnabled = c.Bool("cache.enabled", s.CacheEnabled)
	s.CacheSize = c.Int("cache.size", s.CacheSize)
	s.SlowThreshold = c.Duration("slow_threshold", s.SlowThreshold)
	s.Metrics = c.Bool("observability.metrics", s.Metrics)
	s.Tracing = c.Bool("observability.tracing", s.Tracing)

	for key, n := range map[string]*int{
		"limits.steps": &s.StepLimit,
		"limits.depth": &s.MaxDepth,
		"cache.size":   &s.CacheSize,
	} {
		if *n < 0 {
			errs = appendErr(errs, key, fmt.Errorf("must not be negative, got %d", *n))
			*n = 0
		}
	}

	vars := c.Sub("variables").Raw()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := value.FromAny(vars[name])
		if err != nil {
			errs = appendErr(errs, "variables."+name, err)
			continue
		}
		if s.Variables == nil {
			s.Variables = make(map[string]value.Value, len(vars))
		}
		s.Variables[name] = v
	}

	return s, errors.Join(errs...)
}

func appendErr(errs []error, key string, err error) []error {
	if err == nil {
		return errs
	}
	return append(errs, fmt.Errorf("config %s: %w", key, err))
}
