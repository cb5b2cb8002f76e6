/*
Package config provides type-safe configuration extraction and the engine
settings decoded from it.

# Accessors

Config wraps a decoded document and returns defaults for missing or
mistyped keys. Dotted keys descend into nested sections:

	cfg, _ := config.FromYAML([]byte("policy:\n  compile: raise\nlimits:\n  steps: 1000\n"))
	cfg.String("policy.compile", "collect") // "raise"
	cfg.Int("limits.steps", 0)               // 1000

# Settings

Decode turns a Config into Settings:

	typing: strong            # weak | strong
	conversion: unchecked     # checked | unchecked
	policy:
	  compile: collect        # raise | collect | silent
	  evaluate: collect
	  context: raise
	limits:
	  steps: 100000
	  depth: 256
	cache:
	  enabled: true
	  size: 512
	slow_threshold: 5ms
	observability:
	  metrics: true
	  tracing: false
	variables:
	  answer: 42
	  greeting: hello

Invalid entries are all reported together and fall back to their defaults.
Load reads a settings file and also reports keys Decode would ignore,
such as a misspelled section name.

# Thread Safety

Config is safe for concurrent read access as long as the underlying map is
not modified.
*/
package config
