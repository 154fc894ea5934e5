package felix

import (
	"fmt"
	"strings"
)

// Role is the biological function assigned to a Part. The set of roles is closed.
type Role int

const (
	// Unknown is the sentinel for a role assignment that isn't trusted (yet)
	Unknown Role = iota
	Promoter
	RBS
	CDS
	Terminator
	Origin
	SelectionMarker
	Insulator
	NonCodingRNA
	Structural
	Enhancer
	RecombinaseSite
	Verification
	ProteinTag
)

// roleNames is indexed by Role
var roleNames = [...]string{
	"unknown",
	"promoter",
	"rbs",
	"cds",
	"terminator",
	"origin",
	"selection_marker",
	"insulator",
	"non_coding_rna",
	"structural",
	"enhancer",
	"recombinase_site",
	"verification",
	"protein_tag",
}

// soTerms maps an accepted role to its Sequence Ontology identifier
var soTerms = map[Role]string{
	Promoter:        "SO:0000167",
	CDS:             "SO:0000316",
	RBS:             "SO:0000139",
	Terminator:      "SO:0000141",
	RecombinaseSite: "SO:0000298",
	Origin:          "SO:0000296",
	Enhancer:        "SO:0000165",
	Insulator:       "SO:0000627",
	NonCodingRNA:    "SO:0000655",
}

// defaultSOTerm is misc_feature
const defaultSOTerm = "SO:0000110"

// Roles returns every role, sentinel first.
func Roles() []Role {
	roles := make([]Role, len(roleNames))
	for i := range roleNames {
		roles[i] = Role(i)
	}
	return roles
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return roleNames[Unknown]
	}
	return roleNames[r]
}

// SOTerm returns the Sequence Ontology id of the role, misc_feature if unmapped.
func (r Role) SOTerm() string {
	if term, ok := soTerms[r]; ok {
		return term
	}
	return defaultSOTerm
}

// MarshalText writes the role's name
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a role's name
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole returns the role with the name passed. Names are case-insensitive and
// surrounding whitespace is ignored. If there is no such role, the error names the closest one.
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}

	closest, dist := "", -1
	for _, n := range roleNames {
		if d := ld(name, n, true); dist < 0 || d < dist {
			closest, dist = n, d
		}
	}
	if dist <= len(name)/2 {
		return Unknown, fmt.Errorf("unknown role %q, did you mean %q?", name, closest)
	}
	return Unknown, fmt.Errorf("unknown role %q", name)
}

// ld compares two strings and returns the levenshtein distance between them.
// This was copied verbatim from https://github.com/spf13/cobra
func ld(s, t string, ignoreCase bool) int {
	if ignoreCase {
		s = strings.ToUpper(s)
		t = strings.ToUpper(t)
	}
	d := make([][]int, len(s)+1)
	for i := range d {
		d[i] = make([]int, len(t)+1)
	}
	for i := range d {
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for j := 1; j <= len(t); j++ {
		for i := 1; i <= len(s); i++ {
			if s[i-1] == t[j-1] {
				d[i][j] = d[i-1][j-1]
			} else {
				min := d[i-1][j]
				if d[i][j-1] < min {
					min = d[i][j-1]
				}
				if d[i-1][j-1] < min {
					min = d[i-1][j-1]
				}
				d[i][j] = min + 1
			}
		}
	}
	return d[len(s)][len(t)]
}
