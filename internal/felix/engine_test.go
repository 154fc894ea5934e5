package felix

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jjtimmons/felix/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig() *config.Config {
	return &config.Config{
		Workers:             4,
		ClassifierTimeout:   50 * time.Millisecond,
		EscalationThreshold: 0.6,
		AcceptanceThreshold: 0.4,
		FallbackConfidence:  0.1,
		Precision:           3,
		Pseudocount:         0.5,
		Weights: config.WeightSets{
			Direct:    config.Weights{Physical: 0.5, Semantic: 0.5},
			Escalated: config.Weights{Physical: 0.5, Semantic: 0.3, Escalated: 0.2},
		},
	}
}

// labelClassifier returns a fixed role and confidence per part label
type labelClassifier map[string]struct {
	role       Role
	confidence float64
}

func (l labelClassifier) Classify(_ context.Context, d Descriptor) (Role, float64, error) {
	if r, ok := l[d.Label]; ok {
		return r.role, r.confidence, nil
	}
	return Unknown, 0, nil
}

// funcClassifier adapts a function to a Classifier
type funcClassifier func(ctx context.Context, d Descriptor) (Role, float64, error)

func (f funcClassifier) Classify(ctx context.Context, d Descriptor) (Role, float64, error) {
	return f(ctx, d)
}

// fakeEscalator counts its calls and returns a fixed answer
type fakeEscalator struct {
	mu         sync.Mutex
	calls      int
	roles      []Role
	confidence float64
	err        error
}

func (f *fakeEscalator) Escalate(_ context.Context, _ Descriptor) ([]Role, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.roles, f.confidence, f.err
}

func placement(t *testing.T, name, seq string) Placement {
	t.Helper()
	return Placement{Part: mustPart(t, name, seq, "GGAG", "TACT"), Orientation: Forward}
}

const terminatorSeq = "CCCCAATAAAGGGGCCCCTTTT"

func TestEngine_Infer(t *testing.T) {
	registered := "TTGACAGCTAGCTCAGTCCTAGGTATAATGCTAGC"
	reg := NewHashRegistry()
	registeredCDS := "ATG" + strings.Repeat("GCA", 100) + "TAA"
	reg.Set(registered, Promoter)
	reg.Set(registeredCDS, CDS)
	scorer := NewPhysicalScorer(reg, nil)

	semantic := labelClassifier{
		"J23100":  {Promoter, 0.9},
		"lacZ":    {CDS, 0.8},
		"tiny":    {CDS, 0.7},
		"vague":   {Promoter, 0.3},
		"unsure":  {RBS, 0.2},
		"primers": {Verification, 0.8},
	}

	tests := []struct {
		name      string
		pl        Placement
		escalator *fakeEscalator
		want      Report
	}{
		{
			"registry hit",
			placement(t, "J23100", registered),
			nil,
			Report{
				Roles: []Role{Promoter},
				Score: Score{
					Physical: 1, Tier: TierExact, Semantic: 0.9,
					PhysicalContrib: 0.5, SemanticContrib: 0.45, Confidence: 0.95,
				},
				SOTerm: "SO:0000167",
			},
		},
		{
			"registry CDS hit",
			placement(t, "lacZ", registeredCDS),
			nil,
			Report{
				Roles: []Role{CDS},
				Score: Score{
					Physical: 1, Tier: TierExact, Semantic: 0.8,
					PhysicalContrib: 0.5, SemanticContrib: 0.4, Confidence: 0.9,
				},
				SOTerm: "SO:0000316",
			},
		},
		{
			"rejected short CDS",
			placement(t, "tiny", "ATGAAATAA"),
			nil,
			Report{
				Roles: []Role{Unknown},
				Score: Score{
					Physical: 0.01, Tier: TierStructural, Semantic: 0.7,
					PhysicalContrib: 0.005, SemanticContrib: 0.35, Confidence: 0.355,
				},
				SOTerm:   "SO:0000110",
				Warnings: []string{LowConfidenceWarning},
			},
		},
		{
			"escalated to another role",
			placement(t, "vague", terminatorSeq),
			&fakeEscalator{roles: []Role{Terminator, RBS}, confidence: 0.85},
			Report{
				Roles: []Role{Terminator, RBS},
				Score: Score{
					Physical: 1, Tier: TierStructural, Semantic: 0.3, Escalated: 0.85, WasEscalated: true,
					PhysicalContrib: 0.5, SemanticContrib: 0.09, EscalatedContrib: 0.17, Confidence: 0.76,
				},
				SOTerm: "SO:0000141",
			},
		},
		{
			"confident classifier isn't escalated",
			placement(t, "primers", "ACGTACGT"),
			&fakeEscalator{roles: []Role{Terminator}, confidence: 0.85},
			Report{
				Roles: []Role{Verification},
				Score: Score{
					Physical: 0.5, Tier: TierDefault, Semantic: 0.8,
					PhysicalContrib: 0.25, SemanticContrib: 0.4, Confidence: 0.65,
				},
				SOTerm: "SO:0000110",
			},
		},
		{
			"escalator fails",
			placement(t, "unsure", "ACGTACGT"),
			&fakeEscalator{err: errors.New("offline")},
			Report{
				Roles: []Role{Unknown},
				Score: Score{
					Physical: 0.5, Tier: TierDefault, Semantic: 0.2, Escalated: 0.1, WasEscalated: true,
					PhysicalContrib: 0.25, SemanticContrib: 0.06, EscalatedContrib: 0.02, Confidence: 0.33,
				},
				SOTerm:   "SO:0000110",
				Warnings: []string{LowConfidenceWarning},
			},
		},
		{
			"escalator returns no roles",
			placement(t, "unsure", "ACGTACGT"),
			&fakeEscalator{roles: []Role{}, confidence: 0.9},
			Report{
				Roles: []Role{Unknown},
				Score: Score{
					Physical: 0.5, Tier: TierDefault, Semantic: 0.2, Escalated: 0.1, WasEscalated: true,
					PhysicalContrib: 0.25, SemanticContrib: 0.06, EscalatedContrib: 0.02, Confidence: 0.33,
				},
				SOTerm:   "SO:0000110",
				Warnings: []string{LowConfidenceWarning},
			},
		},
		{
			"no escalator",
			placement(t, "unsure", "AGGAGG"),
			nil,
			Report{
				Roles: []Role{Unknown},
				Score: Score{
					Physical: 0.5, Tier: TierMotif, Semantic: 0.2,
					PhysicalContrib: 0.25, SemanticContrib: 0.1, Confidence: 0.35,
				},
				SOTerm:   "SO:0000110",
				Warnings: []string{LowConfidenceWarning},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var escalator Escalator
			if tt.escalator != nil {
				escalator = tt.escalator
			}
			e := NewEngine(testConfig(), semantic, escalator, scorer, nil)

			got := e.Infer(context.Background(), tt.pl)
			tt.want.ID = tt.pl.Part.ID
			tt.want.Name = tt.pl.Part.Name
			tt.want.Length = len(tt.pl.Part.Seq())

			if diff := cmp.Diff(tt.want, got, approxFloats); diff != "" {
				t.Errorf("Engine.Infer() mismatch (-want +got):\n%s", diff)
			}

			if tt.escalator != nil && !got.Score.WasEscalated {
				assert.Zero(t, tt.escalator.calls)
			}

			// inference doesn't change the part
			assert.Equal(t, []Role{Unknown}, tt.pl.Part.Roles)
		})
	}
}

// approxFloats compares contributions that aren't rounded
var approxFloats = cmp.Comparer(func(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
})

func TestEngine_Infer_classifierFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name       string
		classifier funcClassifier
	}{
		{
			"error",
			func(context.Context, Descriptor) (Role, float64, error) {
				return CDS, 0.9, errors.New("bad request")
			},
		},
		{
			"panic",
			func(context.Context, Descriptor) (Role, float64, error) {
				panic("nil map")
			},
		},
		{
			"timeout",
			func(ctx context.Context, _ Descriptor) (Role, float64, error) {
				<-ctx.Done()
				return CDS, 0.9, ctx.Err()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(testConfig(), tt.classifier, nil, NewPhysicalScorer(nil, nil), nil)

			r := e.Infer(context.Background(), placement(t, "part", "ACGTACGT"))
			assert.Equal(t, []Role{Unknown}, r.Roles)
			assert.Equal(t, 0.1, r.Score.Semantic)
			assert.Equal(t, 0.3, r.Score.Confidence)
			assert.Equal(t, []string{LowConfidenceWarning}, r.Warnings)
		})
	}
}

func TestEngine_Infer_escalatorTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	semantic := labelClassifier{"part": {Terminator, 0.5}}
	slow := &blockingEscalator{}
	e := NewEngine(testConfig(), semantic, slow, NewPhysicalScorer(nil, nil), nil)

	r := e.Infer(context.Background(), placement(t, "part", terminatorSeq))
	assert.True(t, r.Score.WasEscalated)
	assert.Equal(t, 0.1, r.Score.Escalated)
	assert.Equal(t, []Role{Unknown}, r.Roles)
}

// blockingEscalator waits until its call is abandoned
type blockingEscalator struct{}

func (blockingEscalator) Escalate(ctx context.Context, _ Descriptor) ([]Role, float64, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}

func TestEngine_Infer_bounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	roles := Roles()
	scorer := NewPhysicalScorer(nil, nil)

	for i := 0; i < 300; i++ {
		role := roles[r.Intn(len(roles))]
		confidence := r.Float64()*1.4 - 0.2 // classifiers may misbehave

		semantic := funcClassifier(func(context.Context, Descriptor) (Role, float64, error) {
			return role, confidence, nil
		})
		escalator := &fakeEscalator{roles: []Role{roles[r.Intn(len(roles))]}, confidence: r.Float64()}

		b := make([]byte, 20+r.Intn(600))
		for j := range b {
			b[j] = "ACGT"[r.Intn(4)]
		}

		e := NewEngine(testConfig(), semantic, escalator, scorer, nil)
		report := e.Infer(context.Background(), placement(t, "random", string(b)))

		c := report.Score.Confidence
		require.GreaterOrEqual(t, c, 0.0)
		require.LessOrEqual(t, c, 1.0)
		if c < 0.4 {
			require.Equal(t, []Role{Unknown}, report.Roles)
			require.Contains(t, report.Warnings, LowConfidenceWarning)
		} else {
			require.Empty(t, report.Warnings)
		}
		require.Equal(t, report.Primary().SOTerm(), report.SOTerm)
	}
}

func TestEngine_Annotate(t *testing.T) {
	defer goleak.VerifyNone(t)

	semantic := labelClassifier{
		"pLac":    {Promoter, 0.9},
		"B0034":   {RBS, 0.95},
		"mystery": {CDS, 0.7},
	}
	e := NewEngine(testConfig(), semantic, nil, NewPhysicalScorer(nil, nil), nil)

	promoter := mustPart(t, "pLac", "TTTACAATTAATCATC", "GGAG", "TACT")
	rbs := mustPart(t, "B0034", "AAAGAGGAGAAA", "TACT", "AATG")
	short := mustPart(t, "mystery", "ATGAAATAA", "AATG", "GGAG")

	c := NewConstruct("pTest", true)
	c.Add(promoter, Forward)
	c.Add(rbs, Forward)
	c.Add(short, Forward)
	c.Add(short, Reverse) // placed twice

	reports, err := e.Annotate(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, reports, 4)

	names := []string{}
	for i, r := range reports {
		assert.Equal(t, i, r.Index)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"pLac", "B0034", "mystery", "mystery"}, names)

	// 0.5 * 0.55 (AT rich and short) + 0.5 * 0.9
	assert.Equal(t, 0.725, promoter.Score.Confidence)
	assert.Equal(t, []Role{Promoter}, promoter.Roles)
	assert.Equal(t, "SO:0000167", promoter.Meta.SOTerm)

	assert.Equal(t, []Role{RBS}, rbs.Roles)
	assert.Empty(t, rbs.Meta.Warnings)

	assert.Equal(t, []Role{Unknown}, short.Roles)
	assert.Equal(t, []string{LowConfidenceWarning}, short.Meta.Warnings)
}

func TestEngine_Annotate_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(testConfig(), labelClassifier{}, nil, NewPhysicalScorer(nil, nil), nil)
	c := NewConstruct("pCancelled", false)
	c.Add(mustPart(t, "a", strings.Repeat("A", 10), "GGAG", "TACT"), Forward)

	_, err := e.Annotate(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}
