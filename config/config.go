// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed settings.yaml
var defaultSettings []byte

var (
	// RootDir is a directory for the user's settings and libraries
	RootDir = filepath.Join(home(), ".felix")

	// SettingsPath is the default path to the user's settings file
	SettingsPath = filepath.Join(RootDir, "settings.yaml")
)

// Weights are the fusion weights of each evidence source
type Weights struct {
	Physical  float64 `mapstructure:"physical"`
	Semantic  float64 `mapstructure:"semantic"`
	Escalated float64 `mapstructure:"escalated"`
}

// Sum of the weights
func (w Weights) Sum() float64 {
	return w.Physical + w.Semantic + w.Escalated
}

// WeightSets has a weight set for each combination of evidence sources
type WeightSets struct {
	// Direct is used when the first classifier is trusted
	Direct Weights `mapstructure:"direct"`

	// Escalated is used when the escalator decided the role
	Escalated Weights `mapstructure:"escalated"`
}

// GenAIConfig is settings for the Gemini classifiers
type GenAIConfig struct {
	APIKey               string  `mapstructure:"api-key"`
	EmbeddingModel       string  `mapstructure:"embedding-model"`
	Model                string  `mapstructure:"model"`
	EscalationConfidence float64 `mapstructure:"escalation-confidence"`
}

// Config is the root-level settings struct and is a mix
// of settings available in settings.yaml and those
// available from the command line
type Config struct {
	// HashRegistry is the path to the known sequence TSV
	HashRegistry string `mapstructure:"hash-registry"`

	// MotifDir is the root of the motif matrices
	MotifDir string `mapstructure:"motif-dir"`

	// RoleRules is a path to a rule table, empty for the built-in one
	RoleRules string `mapstructure:"role-rules"`

	// LibraryDB is the path to the sqlite parts library
	LibraryDB string `mapstructure:"library-db"`

	// Workers is the number of parts inferred in parallel
	Workers int `mapstructure:"workers"`

	// ClassifierTimeout bounds each classifier call
	ClassifierTimeout time.Duration `mapstructure:"classifier-timeout"`

	// EscalationThreshold is the semantic confidence below which the escalator is called
	EscalationThreshold float64 `mapstructure:"escalation-threshold"`

	// AcceptanceThreshold is the fused confidence below which a role is rejected
	AcceptanceThreshold float64 `mapstructure:"acceptance-threshold"`

	// FallbackConfidence is the confidence of a failed classifier call
	FallbackConfidence float64 `mapstructure:"fallback-confidence"`

	// Precision is the number of decimal places in fused confidences
	Precision int `mapstructure:"precision"`

	// Pseudocount is added to motif counts
	Pseudocount float64 `mapstructure:"pseudocount"`

	Weights WeightSets `mapstructure:"weights"`

	GenAI GenAIConfig `mapstructure:"genai"`

	// Verbose logging
	Verbose bool `mapstructure:"verbose"`
}

// New returns a new Config populated by the global Viper (flags bound in /cmd),
// the user's settings file and the defaults. Exits if the settings are invalid.
func New() *Config {
	c, err := Load(viper.GetViper(), viper.GetString("settings"))
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	return c
}

// Load reads the embedded defaults into v, merges the settings file at path (if it exists)
// and FELIX_ environment variables, then decodes and validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(defaultSettings)); err != nil {
		return nil, fmt.Errorf("failed to read default settings: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("FELIX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	c.HashRegistry = expandHome(c.HashRegistry)
	c.MotifDir = expandHome(c.MotifDir)
	c.RoleRules = expandHome(c.RoleRules)
	c.LibraryDB = expandHome(c.LibraryDB)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that weight sets sum to 1 and thresholds are in [0, 1]
func (c *Config) Validate() error {
	for name, w := range map[string]Weights{"direct": c.Weights.Direct, "escalated": c.Weights.Escalated} {
		if w.Physical < 0 || w.Semantic < 0 || w.Escalated < 0 {
			return fmt.Errorf("%s weights must not be negative: %+v", name, w)
		}
		if math.Abs(w.Sum()-1) > 1e-9 {
			return fmt.Errorf("%s weights must sum to 1, got %v", name, w.Sum())
		}
	}
	if c.Weights.Direct.Escalated != 0 {
		return fmt.Errorf("direct weights can't weigh the escalator, got %v", c.Weights.Direct.Escalated)
	}

	for name, t := range map[string]float64{
		"escalation-threshold":        c.EscalationThreshold,
		"acceptance-threshold":        c.AcceptanceThreshold,
		"fallback-confidence":         c.FallbackConfidence,
		"genai.escalation-confidence": c.GenAI.EscalationConfidence,
	} {
		if t < 0 || t > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", name, t)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("classifier-timeout must be positive, got %v", c.ClassifierTimeout)
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", c.Precision)
	}
	if c.Pseudocount < 0 {
		return fmt.Errorf("pseudocount must not be negative, got %v", c.Pseudocount)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path == "~" {
		return home()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home(), path[2:])
	}
	return path
}

func home() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}
