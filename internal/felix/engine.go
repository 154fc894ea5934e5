package felix

import (
	"context"
	"fmt"
	"time"

	"github.com/jjtimmons/felix/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of inferring the role of one placed part
type Report struct {
	// Index is the part's position in its construct's layout
	Index int `json:"index"`

	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Orientation Orientation `json:"orientation"`

	// Length of the part in bp
	Length int `json:"length"`

	// Roles are the accepted roles, [unknown] if rejected
	Roles []Role `json:"roles"`

	// Score is the breakdown of Confidence
	Score Score `json:"score"`

	// SOTerm is the Sequence Ontology id of the primary role
	SOTerm string `json:"soTerm"`

	// Warnings raised during inference
	Warnings []string `json:"warnings,omitempty"`
}

// Primary is the first accepted role
func (r Report) Primary() Role {
	if len(r.Roles) == 0 {
		return Unknown
	}
	return r.Roles[0]
}

// Engine infers part roles by fusing classifier confidence with physical evidence.
// An Engine is safe for concurrent use if its classifiers are.
type Engine struct {
	conf      *config.Config
	semantic  Classifier
	escalator Escalator
	scorer    *PhysicalScorer
	logger    *zap.Logger
}

// NewEngine creates an inference engine. escalator may be nil, in which case no part is escalated
// and the direct weights are always used.
func NewEngine(conf *config.Config, semantic Classifier, escalator Escalator, scorer *PhysicalScorer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		conf:      conf,
		semantic:  semantic,
		escalator: escalator,
		scorer:    scorer,
		logger:    logger,
	}
}

// Infer classifies a placed part, scores its sequence against the role, escalates if the
// classifier isn't confident enough, and fuses the evidence. The part itself isn't modified.
func (e *Engine) Infer(ctx context.Context, pl Placement) Report {
	d := NewDescriptor(pl)
	log := e.logger.With(zap.String("part", pl.Part.Name))

	role, semantic := e.classify(ctx, d, log)
	evidence := e.scorer.Evaluate(d.Sequence, role)
	score := Score{Physical: evidence.Score, Tier: evidence.Tier, Semantic: semantic}
	roles := []Role{role}

	weights := e.conf.Weights.Direct
	if e.escalator != nil && semantic < e.conf.EscalationThreshold {
		escalated, confidence := e.escalate(ctx, d, log)
		roles = escalated
		score.Escalated = confidence
		score.WasEscalated = true
		weights = e.conf.Weights.Escalated

		// the physical evidence has to be for the role being fused
		if escalated[0] != role {
			evidence = e.scorer.Evaluate(d.Sequence, escalated[0])
			score.Physical, score.Tier = evidence.Score, evidence.Tier
		}
	}

	score.PhysicalContrib = weights.Physical * score.Physical
	score.SemanticContrib = weights.Semantic * score.Semantic
	score.EscalatedContrib = weights.Escalated * score.Escalated
	score.Confidence = round(
		clamp(score.PhysicalContrib+score.SemanticContrib+score.EscalatedContrib, 0, 1),
		e.conf.Precision,
	)

	report := Report{
		ID:          pl.Part.ID,
		Name:        pl.Part.Name,
		Orientation: pl.Orientation,
		Length:      d.Length,
		Roles:       roles,
		Score:       score,
	}

	if score.Confidence < e.conf.AcceptanceThreshold {
		report.Roles = []Role{Unknown}
		report.Warnings = append(report.Warnings, LowConfidenceWarning)
		log.Debug("rejected role",
			zap.Stringer("role", roles[0]),
			zap.Float64("confidence", score.Confidence),
		)
	}
	report.SOTerm = report.Primary().SOTerm()

	return report
}

// Annotate infers every part of the construct in parallel, up to the configured number of
// workers, and then writes the roles, scores and warnings back onto the parts. Reports are in
// layout order.
func (e *Engine) Annotate(ctx context.Context, c *Construct) ([]Report, error) {
	reports := make([]Report, len(c.Layout))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.conf.Workers)
	for i, pl := range c.Layout {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = e.Infer(ctx, pl)
			reports[i].Index = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to annotate %s: %w", c.Name, err)
	}

	// a part may be placed more than once, so parts are only written after every worker is done
	for i, r := range reports {
		p := c.Layout[i].Part
		p.Roles = append([]Role(nil), r.Roles...)
		p.Score = r.Score
		p.Meta.SOTerm = r.SOTerm
		for _, w := range r.Warnings {
			if !contains(p.Meta.Warnings, w) {
				p.Meta.Warnings = append(p.Meta.Warnings, w)
			}
		}
	}

	return reports, nil
}

// classify calls the first classifier, falling back to Unknown on error, panic or timeout
func (e *Engine) classify(ctx context.Context, d Descriptor, log *zap.Logger) (Role, float64) {
	role, confidence, err := guard(ctx, e.conf.ClassifierTimeout, func(ctx context.Context) (Role, float64, error) {
		return e.semantic.Classify(ctx, d)
	})
	if err != nil {
		log.Warn("classifier failed", zap.Error(err))
		return Unknown, e.conf.FallbackConfidence
	}
	return role, clamp(confidence, 0, 1)
}

// escalate calls the escalator, falling back to [Unknown] on error, panic or timeout
func (e *Engine) escalate(ctx context.Context, d Descriptor, log *zap.Logger) ([]Role, float64) {
	roles, confidence, err := guard(ctx, e.conf.ClassifierTimeout, func(ctx context.Context) ([]Role, float64, error) {
		return e.escalator.Escalate(ctx, d)
	})
	if err == nil && len(roles) == 0 {
		err = fmt.Errorf("no roles returned")
	}
	if err != nil {
		log.Warn("escalator failed", zap.Error(err))
		return []Role{Unknown}, e.conf.FallbackConfidence
	}
	log.Debug("escalated", zap.Stringers("roles", roles), zap.Float64("confidence", confidence))
	return roles, clamp(confidence, 0, 1)
}

// guard runs a classifier call with a timeout. A panic in the call is returned as an error.
func guard[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, float64, error)) (T, float64, error) {
	type result struct {
		value      T
		confidence float64
		err        error
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- result{err: fmt.Errorf("classifier panicked: %v", r)}
			}
		}()
		v, c, err := call(ctx)
		results <- result{v, c, err}
	}()

	select {
	case r := <-results:
		return r.value, r.confidence, r.err
	case <-ctx.Done():
		var zero T
		return zero, 0, fmt.Errorf("classifier call abandoned: %w", ctx.Err())
	}
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
