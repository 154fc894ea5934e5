package felix

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is what a classifier knows about a part
type Descriptor struct {
	// Label is the part's name, ex: "CMV promoter"
	Label string

	// FeatureType is the GenBank feature key, ex: "CDS"
	FeatureType string

	// Length of the part in bp
	Length int

	// Sequence of the part as placed
	Sequence string
}

// NewDescriptor describes a placed part
func NewDescriptor(pl Placement) Descriptor {
	seq := pl.Seq()
	return Descriptor{
		Label:       pl.Part.Name,
		FeatureType: pl.Part.Meta.FeatureType,
		Length:      len(seq),
		Sequence:    seq,
	}
}

// Text is the free text description of the part that's sent to a classifier
func (d Descriptor) Text() string {
	if d.FeatureType == "" || strings.EqualFold(d.FeatureType, d.Label) {
		return d.Label
	}
	return fmt.Sprintf("%s (%s)", d.Label, d.FeatureType)
}

// Classifier guesses the role of a part from its description
type Classifier interface {
	Classify(ctx context.Context, d Descriptor) (Role, float64, error)
}

// Escalator is a slower, second opinion, classifier that may return several roles
type Escalator interface {
	Escalate(ctx context.Context, d Descriptor) ([]Role, float64, error)
}

//go:embed rules.yaml
var defaultRules []byte

// Rule assigns a role to parts matching all of its conditions
type Rule struct {
	// Role is the name of the role assigned on a match
	Role string `yaml:"role"`

	// Confidence returned on a match
	Confidence float64 `yaml:"confidence"`

	// Types are GenBank feature keys, one of which must equal the part's
	Types []string `yaml:"types,omitempty"`

	// Keywords, one of which must be in the part's label
	Keywords []string `yaml:"keywords,omitempty"`

	// MinLength is the shortest part the rule matches
	MinLength int `yaml:"min-length,omitempty"`

	role Role
}

// tier orders rules: type rules, then keyword rules, then structural rules
func (r Rule) tier() int {
	switch {
	case len(r.Types) > 0:
		return 0
	case len(r.Keywords) > 0:
		return 1
	default:
		return 2
	}
}

func (r Rule) matches(d Descriptor, label string) bool {
	if len(r.Types) > 0 {
		typed := false
		for _, t := range r.Types {
			if strings.EqualFold(t, d.FeatureType) {
				typed = true
				break
			}
		}
		if !typed {
			return false
		}
	}

	if len(r.Keywords) > 0 {
		found := false
		for _, k := range r.Keywords {
			if strings.Contains(label, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return d.Length >= r.MinLength
}

// RuleClassifier is a Classifier driven by an ordered table of rules
type RuleClassifier struct {
	rules []Rule
}

// DefaultRuleClassifier returns a classifier with the built-in rule table
func DefaultRuleClassifier() *RuleClassifier {
	rc, err := ReadRuleTable(strings.NewReader(string(defaultRules)))
	if err != nil {
		panic(fmt.Sprintf("built-in role rules are invalid: %v", err))
	}
	return rc
}

// LoadRuleTable reads a rule table from a YAML file. An empty path is the built-in table.
func LoadRuleTable(path string) (*RuleClassifier, error) {
	if path == "" {
		return DefaultRuleClassifier(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open role rules: %w", err)
	}
	defer f.Close()

	rc, err := ReadRuleTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read role rules %s: %w", path, err)
	}
	return rc, nil
}

// ReadRuleTable parses a YAML rule table and orders it by tier
func ReadRuleTable(r io.Reader) (*RuleClassifier, error) {
	var table struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, err
	}

	for i := range table.Rules {
		rule := &table.Rules[i]
		role, err := ParseRole(rule.Role)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("rule %d: confidence %v is outside [0, 1]", i+1, rule.Confidence)
		}
		if len(rule.Types) == 0 && len(rule.Keywords) == 0 && rule.MinLength == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no conditions", i+1, rule.Role)
		}
		for k, keyword := range rule.Keywords {
			rule.Keywords[k] = strings.ToLower(keyword)
		}
		rule.role = role
	}

	sort.SliceStable(table.Rules, func(i, j int) bool {
		return table.Rules[i].tier() < table.Rules[j].tier()
	})

	return &RuleClassifier{rules: table.Rules}, nil
}

// Rules returns the ordered rule table
func (c *RuleClassifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the role and confidence of the first matching rule, Unknown with
// no confidence if none match.
func (c *RuleClassifier) Classify(_ context.Context, d Descriptor) (Role, float64, error) {
	label := strings.ToLower(d.Label)
	for _, rule := range c.rules {
		if rule.matches(d, label) {
			return rule.role, rule.Confidence, nil
		}
	}
	return Unknown, 0, nil
}
