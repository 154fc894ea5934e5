package felix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhysicalScorer_Evaluate(t *testing.T) {
	registered := "TTGACAGCTAGCTCAGTCCTAGGTATAATGCTAGC"
	reg := NewHashRegistry()
	cds := "ATG" + strings.Repeat("GCA", 100) + "TAA"
	reg.Set(registered, Promoter)
	reg.Set(cds, CDS)
	scorer := NewPhysicalScorer(reg, nil)

	unregistered := "ATG" + strings.Repeat("GCA", 101) + "TAA"
	cdsWithStop := "ATG" + strings.Repeat("GCA", 9) + "TAA" + strings.Repeat("GCA", 90) + "TAA"
	cdsWithShiftedStop := "ATG" + "GCTAAG" + strings.Repeat("GCA", 100) + "TAA"

	tests := []struct {
		name string
		seq  string
		role Role
		want Evidence
	}{
		{"registry hit", strings.ToLower(registered), Promoter, Evidence{1.0, TierExact}},
		{"registered with another role", registered, Terminator, Evidence{0.15, TierStructural}},
		{"short CDS", "ATGAAATAA", CDS, Evidence{0.01, TierStructural}},
		{"registered CDS", cds, CDS, Evidence{1.0, TierExact}},
		{"long CDS", unregistered, CDS, Evidence{0.7, TierStructural}},
		{"CDS with in-frame stop", cdsWithStop, CDS, Evidence{0.3, TierStructural}},
		{"CDS with out-of-frame stop", cdsWithShiftedStop, CDS, Evidence{0.3, TierStructural}},
		{"long origin", strings.Repeat("A", 600), Origin, Evidence{0.9, TierStructural}},
		{"medium marker", strings.Repeat("A", 200), SelectionMarker, Evidence{0.7, TierStructural}},
		{"short origin", strings.Repeat("A", 50), Origin, Evidence{0.4, TierStructural}},
		{"terminator", "CCCCAATAAAGGGGCCCCTTTT", Terminator, Evidence{1.0, TierStructural}},
		{"poly-A only terminator", strings.Repeat("A", 10), Terminator, Evidence{0.15, TierStructural}},
		{"AT rich promoter", "TTATAATATTAATTAA", Promoter, Evidence{0.55, TierMotif}},
		{"rbs without motifs", "AGGAGG", RBS, Evidence{0.5, TierMotif}},
		{"no tier", "ACGT", Verification, Evidence{0.5, TierDefault}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Evaluate(tt.seq, tt.role))
		})
	}
}

func TestPhysicalScorer_motifs(t *testing.T) {
	dir := writeMotifs(t, t.TempDir(), "promoters", "tata.jaspar", tataJaspar)
	lib, err := LoadMotifLibrary(dir, 0.5)
	assert.NoError(t, err)
	scorer := NewPhysicalScorer(nil, lib)

	// 0.5 * tata + 0.1 for length
	assert.Equal(t, Evidence{0.6, TierMotif}, scorer.Evaluate("GGTATAGG", Promoter))
	// no TATA box, the CAAT and GC boxes fall back to neutral
	assert.Equal(t, Evidence{0.35, TierMotif}, scorer.Evaluate("GGGGGGGG", Promoter))
}

func Test_cdsScore_bounds(t *testing.T) {
	for _, seq := range []string{
		strings.Repeat("TAA", 200),
		strings.Repeat("ATG", 200),
		strings.Repeat("C", 60),
	} {
		score := cdsScore(seq)
		assert.GreaterOrEqual(t, score, 0.01)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestTier_text(t *testing.T) {
	b, err := TierMotif.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "motif", string(b))

	var tier Tier
	assert.NoError(t, tier.UnmarshalText([]byte("exact")))
	assert.Equal(t, TierExact, tier)
	assert.Error(t, tier.UnmarshalText([]byte("psychic")))
}
