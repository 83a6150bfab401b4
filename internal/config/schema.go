package config

import (
	"github.com/gamebook-tools/sectioneer/internal/resolve"
)

// Config holds sectioneer configuration.
// Stored at: ~/.sectioneer/config.yaml
type Config struct {
	Engine EngineCfg `mapstructure:"engine" yaml:"engine"`
	Loader LoaderCfg `mapstructure:"loader" yaml:"loader"`
	Output OutputCfg `mapstructure:"output" yaml:"output"`
}

// EngineCfg carries the resolution engine thresholds.
type EngineCfg struct {
	// MinConfidence is the voting confidence floor (0-1). A negative
	// value disables the floor so every hypothesis votes.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	// SpanOverlapTolerance is the mutual overlap ratio at or above which
	// two spans count as the same detection (0-1).
	SpanOverlapTolerance float64 `mapstructure:"span_overlap_tolerance" yaml:"span_overlap_tolerance"`
	// IDPrefixTokens lists the identifier prefixes stripped during
	// normalization ("S12" -> section 12, "P12" -> page 12).
	IDPrefixTokens []string `mapstructure:"id_prefix_tokens" yaml:"id_prefix_tokens"`
}

// LoaderCfg configures concurrent batch collection.
type LoaderCfg struct {
	// Workers is the fetch pool size. 0 uses one worker per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Endpoints lists upstream detection-service batch URLs fetched in
	// addition to the document's batch directory. URLs support
	// ${ENV_VAR} references for embedded tokens.
	Endpoints []string `mapstructure:"endpoints" yaml:"endpoints"`
}

// OutputCfg configures result rendering.
type OutputCfg struct {
	// Format is "yaml" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineCfg{
			MinConfidence:        resolve.DefaultMinConfidence,
			SpanOverlapTolerance: resolve.DefaultSpanOverlapTolerance,
			IDPrefixTokens:       []string{"S", "P"},
		},
		Loader: LoaderCfg{
			Workers: 0,
		},
		Output: OutputCfg{
			Format: "yaml",
		},
	}
}

// EngineOptions converts the engine section into resolve.Options.
func (c *Config) EngineOptions() resolve.Options {
	return resolve.Options{
		MinConfidence:        c.Engine.MinConfidence,
		SpanOverlapTolerance: c.Engine.SpanOverlapTolerance,
	}
}

// ResolvedEndpoints returns the loader endpoints with ${ENV_VAR}
// references expanded.
func (c *Config) ResolvedEndpoints() []string {
	if len(c.Loader.Endpoints) == 0 {
		return nil
	}
	out := make([]string, len(c.Loader.Endpoints))
	for i, e := range c.Loader.Endpoints {
		out[i] = ResolveEnvVars(e)
	}
	return out
}
