package felix

import (
	"context"

	"github.com/jjtimmons/felix/config"
	"go.uber.org/zap"
)

// LoadEngine loads the hash registry, motif library and classifiers named in the config.
// The Gemini classifiers are used when there's an API key, otherwise parts are classified
// by the rule table and never escalated.
func LoadEngine(ctx context.Context, conf *config.Config, logger *zap.Logger) (*Engine, error) {
	registry, err := LoadHashRegistry(conf.HashRegistry)
	if err != nil {
		return nil, err
	}
	for _, skipped := range registry.Skipped() {
		logger.Warn("skipped hash registry row", zap.String("registry", conf.HashRegistry), zap.String("row", skipped))
	}

	motifs, err := LoadMotifLibrary(conf.MotifDir, conf.Pseudocount)
	if err != nil {
		return nil, err
	}

	logger.Debug("loaded libraries",
		zap.Int("registry", registry.Len()),
		zap.Int("motifs", motifs.Len()),
	)

	var semantic Classifier
	var escalator Escalator
	if conf.GenAI.APIKey != "" {
		client, err := NewGenAI(ctx, conf.GenAI.APIKey, conf.GenAI.EmbeddingModel, conf.GenAI.Model)
		if err != nil {
			return nil, err
		}
		semantic = NewEmbeddingClassifier(client)
		escalator = NewLLMEscalator(client, conf.GenAI.EscalationConfidence)
	} else {
		rules, err := LoadRuleTable(conf.RoleRules)
		if err != nil {
			return nil, err
		}
		semantic = rules
	}

	return NewEngine(conf, semantic, escalator, NewPhysicalScorer(registry, motifs), logger), nil
}
