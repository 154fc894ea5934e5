package felix

import (
	"fmt"
	"math"
	"strings"
)

// Tier is the physical scoring tier that produced a score
type Tier int

const (
	// TierDefault is the neutral score when no tier applies to the role
	TierDefault Tier = iota

	// TierExact is an exact, role-consistent, hash registry match
	TierExact

	// TierStructural is a length/composition rule
	TierStructural

	// TierMotif is a motif library scan
	TierMotif
)

var tierNames = [...]string{"default", "exact", "structural", "motif"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return tierNames[TierDefault]
	}
	return tierNames[t]
}

// MarshalText writes the tier's name
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier's name
func (t *Tier) UnmarshalText(text []byte) error {
	for i, n := range tierNames {
		if n == string(text) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown scoring tier %q", text)
}

const (
	// defaultPhysicalScore is used when no tier has evidence for a role
	defaultPhysicalScore = 0.5

	// minCDSLength is the length below which a sequence is very unlikely to be a CDS
	minCDSLength = 50
)

var (
	startCodons = []string{"ATG", "GTG", "TTG"}
	stopCodons  = []string{"TAA", "TAG", "TGA"}

	// motifRoles are scored by the best motif under their own name
	motifRoles = map[Role]string{
		RBS:          "rbs",
		Insulator:    "insulator",
		NonCodingRNA: "non_coding_rna",
		Structural:   "structural",
		Enhancer:     "enhancer",
	}
)

// Evidence is a physical score and the tier that produced it
type Evidence struct {
	Score float64 `json:"score"`
	Tier  Tier    `json:"tier"`
}

// PhysicalScorer scores how well a sequence fits a role using only the sequence.
// Both of its libraries are read-only so a scorer is safe to share between goroutines.
type PhysicalScorer struct {
	registry *HashRegistry
	motifs   *MotifLibrary
}

// NewPhysicalScorer returns a scorer on top of the two libraries. nil libraries are empty.
func NewPhysicalScorer(registry *HashRegistry, motifs *MotifLibrary) *PhysicalScorer {
	if registry == nil {
		registry = NewHashRegistry()
	}
	if motifs == nil {
		motifs = NewMotifLibrary()
	}
	return &PhysicalScorer{registry: registry, motifs: motifs}
}

// Evaluate scores a sequence against a role. Tiers are tried in order: exact registry match,
// role specific structural and motif rules, then the default.
func (s *PhysicalScorer) Evaluate(seq string, role Role) Evidence {
	seq = strings.ToUpper(seq)

	if s.registry.Match(seq, role) {
		return Evidence{Score: 1.0, Tier: TierExact}
	}

	switch role {
	case Origin, SelectionMarker:
		return Evidence{Score: lengthBand(len(seq)), Tier: TierStructural}
	case CDS:
		return Evidence{Score: cdsScore(seq), Tier: TierStructural}
	case Promoter:
		return Evidence{Score: s.promoterScore(seq), Tier: TierMotif}
	case Terminator:
		return Evidence{Score: s.terminatorScore(seq), Tier: TierStructural}
	}

	if keyword, ok := motifRoles[role]; ok {
		return Evidence{Score: s.motifs.BestScore(seq, keyword), Tier: TierMotif}
	}

	return Evidence{Score: defaultPhysicalScore, Tier: TierDefault}
}

// lengthBand is used for roles without discriminative motifs, longer is more likely
// to be a whole structural gene
func lengthBand(length int) float64 {
	switch {
	case length > 500:
		return 0.9
	case length > 100:
		return 0.7
	default:
		return 0.4
	}
}

// cdsScore combines length, start and stop codons, with a penalty for a stop codon,
// in any frame, in the first 80% of the sequence
func cdsScore(seq string) float64 {
	if len(seq) < minCDSLength {
		return 0.01
	}

	score := 0.0
	if len(seq) > 300 {
		score += 0.4
	}
	if hasAny(seq[:3], startCodons) {
		score += 0.15
	}
	if hasAny(seq[len(seq)-6:], stopCodons) {
		score += 0.15
	}

	if hasAny(seq[:int(float64(len(seq))*0.8)], stopCodons) {
		score -= 0.4
	}

	return round(clamp(score, 0.01, 1), 3)
}

func (s *PhysicalScorer) promoterScore(seq string) float64 {
	motif := math.Max(
		s.motifs.BestScore(seq, "tata"),
		math.Max(s.motifs.BestScore(seq, "caat"), s.motifs.BestScore(seq, "gc")),
	)

	score := 0.5 * motif
	if atContent(seq) > 0.6 {
		score += 0.2
	}
	if len(seq) < 500 {
		score += 0.1
	}

	return round(clamp(score, 0, 1), 3)
}

func (s *PhysicalScorer) terminatorScore(seq string) float64 {
	score := 0.0
	if strings.Contains(seq, "AATAAA") || strings.Contains(seq, "ATTAAA") {
		score += 0.5
	}

	tail := seq
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}
	if strings.Contains(tail, "TTTT") {
		score += 0.3
	}

	if gcContent(seq) > 0.5 {
		score += 0.1
	}
	score += 0.3 * s.motifs.BestScore(seq, "poly")

	return round(clamp(score, 0, 1), 3)
}

// hasAny returns whether seq contains any of the substrings
func hasAny(seq string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(seq, sub) {
			return true
		}
	}
	return false
}

func clamp(x, low, high float64) float64 {
	return math.Max(low, math.Min(high, x))
}

// round to a number of decimal places
func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}
