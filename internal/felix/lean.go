package felix

import (
	"fmt"
	"strings"
)

// LeanDefinition renders a finalized construct as a Lean 4 Plasmid definition for formal
// verification. Each element carries the part's sequence, roles, overhangs, metadata and orientation.
func LeanDefinition(c *Construct) string {
	elements := make([]string, len(c.Layout))
	for i, pl := range c.Layout {
		p := pl.Part

		roles := make([]string, len(p.Roles))
		for j, r := range p.Roles {
			roles[j] = "Role." + r.String()
		}

		elements[i] = fmt.Sprintf(
			"{ part := { sequence := %s, roles := [%s], leftOverhang := %s, rightOverhang := %s, metadata := %s }, orientation := Orientation.%s }",
			leanString(p.Seq()),
			strings.Join(roles, ", "),
			leanString(p.LeftJunction),
			leanString(p.RightJunction),
			leanString(p.Meta.String()),
			pl.Orientation,
		)
	}

	return fmt.Sprintf("def %s : Plasmid := {\n  elements := [\n    %s\n  ],\n  is_valid := by simp; exact Nat.zero_lt_succ _\n}\n",
		leanIdent(c.Name),
		strings.Join(elements, ",\n    "),
	)
}

// leanString quotes a string literal
func leanString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// leanIdent makes a name usable as a Lean identifier
func leanIdent(name string) string {
	name = canonicalName(strings.ReplaceAll(name, " ", "_"))
	if name == "" {
		return "construct"
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "c_" + name
	}
	return name
}
