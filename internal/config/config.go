// Package config provides configuration types and helpers for clog.
package config

import (
	"fmt"
	"slices"
)

// Formats lists the dump formats accepted by the format setting.
var Formats = []string{"text", "table", "json", "yaml", "cbor"}

// ColorModes lists the values accepted by the color setting.
var ColorModes = []string{"auto", "always", "never"}

// Config holds the application-wide configuration.
type Config struct {
	Format   string         `mapstructure:"format"`
	Color    string         `mapstructure:"color"`
	Verbose  bool           `mapstructure:"verbose"`
	Debug    bool           `mapstructure:"debug"`
	Learner  LearnerConfig  `mapstructure:"learner"`
	Input    InputConfig    `mapstructure:"input"`
	Progress ProgressConfig `mapstructure:"progress"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Explain  ExplainConfig  `mapstructure:"explain"`
}

// LearnerConfig holds the template matching tolerances.
type LearnerConfig struct {
	// MinConsequentMatches is the alignment score a line needs to join a template.
	MinConsequentMatches int `mapstructure:"min_consequent_matches"`

	// MaxNewAlternatives is how many tokens may fail to align with a template.
	MaxNewAlternatives int `mapstructure:"max_new_alternatives"`

	// InteriorAlternatives records tolerated mismatches as slot alternatives.
	InteriorAlternatives bool `mapstructure:"interior_alternatives"`
}

// InputConfig controls how input lines are read.
type InputConfig struct {
	// ExtractMessage learns from the message field of JSON lines.
	ExtractMessage bool `mapstructure:"extract_message"`
}

// ProgressConfig controls progress reporting while learning.
type ProgressConfig struct {
	Interval int `mapstructure:"interval"` // lines between reports, 0 disables
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // e.g. ":9464", empty disables
}

// ExplainConfig holds settings for template explanations.
type ExplainConfig struct {
	Ollama         OllamaConfig `mapstructure:"ollama"`
	MaxTemplates   int          `mapstructure:"max_templates"`
	Temperature    float32      `mapstructure:"temperature"`
	Redact         bool         `mapstructure:"redact"`          // mask sensitive tokens before sending
	RedactPatterns []string     `mapstructure:"redact_patterns"` // empty uses the default set
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Format: "text",
		Color:  "auto",
		Learner: LearnerConfig{
			MinConsequentMatches: 3,
			MaxNewAlternatives:   1,
		},
		Progress: ProgressConfig{Interval: 1000},
		Explain: ExplainConfig{
			Ollama:       OllamaConfig{Model: "llama3.2"},
			MaxTemplates: 50,
			Redact:       true,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unsupported format %q (want one of %v)", c.Format, Formats)
	}
	if !slices.Contains(ColorModes, c.Color) {
		return fmt.Errorf("unsupported color mode %q (want one of %v)", c.Color, ColorModes)
	}
	if c.Learner.MinConsequentMatches < 1 {
		return fmt.Errorf("learner.min_consequent_matches must be at least 1, got %d", c.Learner.MinConsequentMatches)
	}
	if c.Learner.MaxNewAlternatives < 0 {
		return fmt.Errorf("learner.max_new_alternatives must not be negative, got %d", c.Learner.MaxNewAlternatives)
	}
	if c.Progress.Interval < 0 {
		return fmt.Errorf("progress.interval must not be negative, got %d", c.Progress.Interval)
	}
	if c.Explain.MaxTemplates < 0 {
		return fmt.Errorf("explain.max_templates must not be negative, got %d", c.Explain.MaxTemplates)
	}
	if c.Explain.Temperature < 0 {
		return fmt.Errorf("explain.temperature must not be negative, got %g", c.Explain.Temperature)
	}
	return nil
}
