package felix

import (
	"fmt"
	"strings"
)

// Construct is an ordered, possibly circular, assembly of parts
type Construct struct {
	// Name is identifier-safe, ex: "pMOCK_01"
	Name string `json:"name"`

	// Circular if the last part is joined back to the first
	Circular bool `json:"circular"`

	// Layout is the parts in insertion order
	Layout []Placement `json:"layout"`
}

// NewConstruct returns an empty construct
func NewConstruct(name string, circular bool) *Construct {
	return &Construct{Name: name, Circular: circular}
}

// Add appends a part to the end of the layout
func (c *Construct) Add(p *Part, o Orientation) {
	c.Layout = append(c.Layout, Placement{Part: p, Orientation: o})
}

// Insert adds a part at index i of the layout, shifting the parts after it
func (c *Construct) Insert(i int, p *Part, o Orientation) error {
	if i < 0 || i > len(c.Layout) {
		return fmt.Errorf("failed to insert %s at %d: construct %s has %d parts", p.Name, i, c.Name, len(c.Layout))
	}

	c.Layout = append(c.Layout, Placement{})
	copy(c.Layout[i+1:], c.Layout[i:])
	c.Layout[i] = Placement{Part: p, Orientation: o}
	return nil
}

// Parts returns the parts of the layout in order
func (c *Construct) Parts() []*Part {
	parts := make([]*Part, len(c.Layout))
	for i, pl := range c.Layout {
		parts[i] = pl.Part
	}
	return parts
}

// Sequence is the concatenation of each part's sequence, reverse complemented if flipped
func (c *Construct) Sequence() string {
	var sb strings.Builder
	for _, pl := range c.Layout {
		sb.WriteString(pl.Seq())
	}
	return sb.String()
}

func (c *Construct) String() string {
	layout := make([]string, len(c.Layout))
	for i, pl := range c.Layout {
		layout[i] = fmt.Sprintf("%s(%s)", pl.Part.Name, strings.ToUpper(pl.Orientation.String()[:1]))
	}
	return fmt.Sprintf("Construct: %s | Layout: [%s]", c.Name, strings.Join(layout, " -> "))
}

// Gap is a junction between neighboring parts whose overhangs don't match
type Gap struct {
	// Left and Right are the layout indexes of the two parts
	Left  int `json:"left"`
	Right int `json:"right"`

	// Expected is the effective right junction of the left part
	Expected string `json:"expected"`

	// Actual is the effective left junction of the right part
	Actual string `json:"actual"`

	LeftName  string `json:"leftName"`
	RightName string `json:"rightName"`
}

// Patch describes the part that would close the gap
func (g Gap) Patch() string {
	return fmt.Sprintf(
		"gap between %d and %d (%s to %s): junction %s | %s, requires a part with left [%s] and right [%s]",
		g.Left, g.Right, g.LeftName, g.RightName, g.Expected, g.Actual, g.Expected, g.Actual,
	)
}

// Gaps returns every junction in the layout where the right overhang of a part doesn't
// match the left overhang of the next. The junction between the last and first part is only
// checked if the construct is circular. An empty slice means the construct is MoClo valid.
func (c *Construct) Gaps() []Gap {
	gaps := []Gap{}
	n := len(c.Layout)
	if n < 2 {
		return gaps
	}

	pairs := n - 1
	if c.Circular {
		pairs = n
	}

	for i := 0; i < pairs; i++ {
		j := (i + 1) % n
		a, b := c.Layout[i], c.Layout[j]

		_, rightA := a.Junctions()
		leftB, _ := b.Junctions()
		if rightA != leftB {
			gaps = append(gaps, Gap{
				Left:      i,
				Right:     j,
				Expected:  rightA,
				Actual:    leftB,
				LeftName:  a.Part.Name,
				RightName: b.Part.Name,
			})
		}
	}

	return gaps
}
