package felix

import (
	"fmt"
	"strings"
)

// Orientation of a part within a construct
type Orientation int

const (
	// Forward is the part as it reads on the template strand
	Forward Orientation = iota

	// Reverse is the part flipped onto the complement strand
	Reverse
)

func (o Orientation) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// MarshalText writes "forward" or "reverse"
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses "forward" or "reverse"
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrientation accepts forward/reverse (or their first letter).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "f", "+":
		return Forward, nil
	case "reverse", "r", "-":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("orientation must be 'forward' or 'reverse', got %q", s)
}

// LowConfidenceWarning is appended to a part's metadata when its role is rejected
const LowConfidenceWarning = "INFERENCE_WARNING:low_confidence"

// Metadata is the provenance of a part
type Metadata struct {
	// FeatureType is the GenBank feature key, ex: "CDS"
	FeatureType string `json:"featureType,omitempty"`

	// Location is the location text as written in the record
	Location string `json:"location,omitempty"`

	// Start is the 1-based start of the feature in its source record
	Start int `json:"start,omitempty"`

	// End is the 1-based, inclusive, end of the feature in its source record
	End int `json:"end,omitempty"`

	// Orientation of the feature in the source record
	Orientation Orientation `json:"orientation"`

	// Label is the /label, /note or /gene of the feature
	Label string `json:"label,omitempty"`

	// SOTerm is the Sequence Ontology id of the accepted role
	SOTerm string `json:"soTerm,omitempty"`

	// Warnings are machine readable flags set during inference
	Warnings []string `json:"warnings,omitempty"`
}

// String renders the metadata on a single line
func (m Metadata) String() string {
	fields := []string{fmt.Sprintf("Type: %s, Loc: %s", m.FeatureType, m.Location)}
	if m.SOTerm != "" {
		fields = append(fields, "SO_Term: "+m.SOTerm)
	}
	fields = append(fields, m.Warnings...)
	return strings.Join(fields, " | ")
}

// Score is the breakdown of a part's role confidence
type Score struct {
	// Physical is the sequence-only evidence for the primary role
	Physical float64 `json:"physical"`

	// Tier is the physical scoring tier that produced Physical
	Tier Tier `json:"tier"`

	// Semantic is the first classifier's confidence. Kept even when escalated
	Semantic float64 `json:"semantic"`

	// Escalated is the second classifier's confidence, zero if it wasn't called
	Escalated float64 `json:"escalated"`

	// WasEscalated is true if the second classifier decided the role
	WasEscalated bool `json:"wasEscalated"`

	// PhysicalContrib, SemanticContrib and EscalatedContrib are the weighted terms of Confidence
	PhysicalContrib  float64 `json:"physicalContrib"`
	SemanticContrib  float64 `json:"semanticContrib"`
	EscalatedContrib float64 `json:"escalatedContrib"`

	// Confidence is the fused confidence in [0, 1]
	Confidence float64 `json:"confidence"`
}

// Part is a contiguous functional stretch of DNA with a role and flanking junctions
type Part struct {
	// ID is an identifier-safe id for the part
	ID string `json:"id"`

	// Name is a display name, typically the feature label
	Name string `json:"name"`

	// seq is upper-case and never changes after construction
	seq string

	// Roles are ordered: the first is the primary role
	Roles []Role `json:"roles"`

	// LeftJunction is the overhang 5' of the part
	LeftJunction string `json:"leftJunction"`

	// RightJunction is the overhang 3' of the part
	RightJunction string `json:"rightJunction"`

	// Meta is where the part came from
	Meta Metadata `json:"metadata"`

	// Score is set once, by the Engine
	Score Score `json:"score"`
}

// NewPart validates and canonicalizes a part's sequence and junctions. The part starts
// with the Unknown role.
func NewPart(id, name, seq, left, right string) (*Part, error) {
	cSeq, err := canonicalSeq(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to create part %s: %w", id, err)
	}
	cLeft, err := canonicalJunction(left)
	if err != nil {
		return nil, fmt.Errorf("failed to create part %s, left junction: %w", id, err)
	}
	cRight, err := canonicalJunction(right)
	if err != nil {
		return nil, fmt.Errorf("failed to create part %s, right junction: %w", id, err)
	}

	return &Part{
		ID:            id,
		Name:          name,
		seq:           cSeq,
		Roles:         []Role{Unknown},
		LeftJunction:  cLeft,
		RightJunction: cRight,
	}, nil
}

// Seq returns the part's sequence (upper-case, as read)
func (p *Part) Seq() string {
	return p.seq
}

// Primary is the first role of the part, Unknown if there are none
func (p *Part) Primary() Role {
	if len(p.Roles) == 0 {
		return Unknown
	}
	return p.Roles[0]
}

func (p *Part) String() string {
	secondary := []string{}
	if len(p.Roles) > 1 {
		for _, r := range p.Roles[1:] {
			secondary = append(secondary, r.String())
		}
	}
	return fmt.Sprintf("<%s (%s) | Roles: [%s]>", p.Name, p.Primary(), strings.Join(secondary, ", "))
}

// Placement is a part and the orientation it's assembled in
type Placement struct {
	Part        *Part       `json:"part"`
	Orientation Orientation `json:"orientation"`
}

// Junctions returns the effective left and right junctions of the placement.
// Flipping a part swaps and reverse complements its junctions.
func (pl Placement) Junctions() (left, right string) {
	if pl.Orientation == Reverse {
		return RevComp(pl.Part.RightJunction), RevComp(pl.Part.LeftJunction)
	}
	return strings.ToUpper(pl.Part.LeftJunction), strings.ToUpper(pl.Part.RightJunction)
}

// Seq returns the part's sequence as it reads in the placement
func (pl Placement) Seq() string {
	if pl.Orientation == Reverse {
		return RevComp(pl.Part.seq)
	}
	return pl.Part.seq
}
