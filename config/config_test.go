package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	c, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, 15*time.Second, c.ClassifierTimeout)
	assert.Equal(t, 0.6, c.EscalationThreshold)
	assert.Equal(t, 0.4, c.AcceptanceThreshold)
	assert.Equal(t, 3, c.Precision)
	assert.Equal(t, Weights{Physical: 0.5, Semantic: 0.5}, c.Weights.Direct)
	assert.Equal(t, Weights{Physical: 0.5, Semantic: 0.3, Escalated: 0.2}, c.Weights.Escalated)
	assert.Equal(t, "gemini-embedding-001", c.GenAI.EmbeddingModel)
	assert.Equal(t, "", c.RoleRules)

	assert.False(t, strings.HasPrefix(c.HashRegistry, "~"))
	assert.Equal(t, "registry.tsv", filepath.Base(c.HashRegistry))
}

func TestLoad_settingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\nmotif-dir: /data/motifs\ngenai:\n  model: gemini-pro\n"), 0644))

	c, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, "/data/motifs", c.MotifDir)
	assert.Equal(t, "gemini-pro", c.GenAI.Model)
	assert.Equal(t, "gemini-embedding-001", c.GenAI.EmbeddingModel)
}

func TestLoad_env(t *testing.T) {
	t.Setenv("FELIX_WORKERS", "2")
	t.Setenv("FELIX_ACCEPTANCE_THRESHOLD", "0.5")

	c, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, 0.5, c.AcceptanceThreshold)
}

func TestLoad_invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  direct:\n    physical: 0.7\n"), 0644))

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct weights must sum to 1")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Workers:             1,
			ClassifierTimeout:   time.Second,
			EscalationThreshold: 0.6,
			AcceptanceThreshold: 0.4,
			FallbackConfidence:  0.1,
			Precision:           3,
			Weights: WeightSets{
				Direct:    Weights{Physical: 0.5, Semantic: 0.5},
				Escalated: Weights{Physical: 0.5, Semantic: 0.3, Escalated: 0.2},
			},
			GenAI: GenAIConfig{EscalationConfidence: 0.85},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"negative weight", func(c *Config) { c.Weights.Escalated = Weights{Physical: 1.2, Semantic: -0.2} }, "must not be negative"},
		{"weights don't sum to 1", func(c *Config) { c.Weights.Escalated.Escalated = 0.3 }, "escalated weights must sum to 1"},
		{"direct weighs escalator", func(c *Config) { c.Weights.Direct = Weights{Physical: 0.5, Semantic: 0.3, Escalated: 0.2} }, "can't weigh the escalator"},
		{"threshold above 1", func(c *Config) { c.AcceptanceThreshold = 1.1 }, "acceptance-threshold"},
		{"negative fallback", func(c *Config) { c.FallbackConfidence = -0.1 }, "fallback-confidence"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no timeout", func(c *Config) { c.ClassifierTimeout = 0 }, "classifier-timeout"},
		{"negative precision", func(c *Config) { c.Precision = -1 }, "precision"},
		{"negative pseudocount", func(c *Config) { c.Pseudocount = -1 }, "pseudocount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func Test_expandHome(t *testing.T) {
	dir := home()
	assert.Equal(t, filepath.Join(dir, ".felix", "x"), expandHome("~/.felix/x"))
	assert.Equal(t, dir, expandHome("~"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "", expandHome(""))
}
