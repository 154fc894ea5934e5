package felix

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPart(t *testing.T, name, seq, left, right string) *Part {
	t.Helper()
	p, err := NewPart("ID_"+name, name, seq, left, right)
	require.NoError(t, err)
	return p
}

func TestConstruct_Gaps(t *testing.T) {
	a := mustPart(t, "a", "AAAA", "GGAG", "TACT")
	b := mustPart(t, "b", "CCCC", "TACT", "AATG")
	c := mustPart(t, "c", "GGGG", "AATG", "GGAG")

	// bFlipped is stored on the other strand, placed in reverse it reads TACT..AATG
	bFlipped := mustPart(t, "bFlipped", "CCCC", "CATT", "AGTA")

	tests := []struct {
		name     string
		circular bool
		layout   []Placement
		want     []Gap
	}{
		{
			"empty",
			true,
			nil,
			[]Gap{},
		},
		{
			"single part",
			true,
			[]Placement{{a, Forward}},
			[]Gap{},
		},
		{
			"circular, consistent",
			true,
			[]Placement{{a, Forward}, {b, Forward}, {c, Forward}},
			[]Gap{},
		},
		{
			"linear, no wrap check",
			false,
			[]Placement{{a, Forward}, {b, Forward}},
			[]Gap{},
		},
		{
			"circular, wrap gap",
			true,
			[]Placement{{a, Forward}, {b, Forward}},
			[]Gap{{Left: 1, Right: 0, Expected: "AATG", Actual: "GGAG", LeftName: "b", RightName: "a"}},
		},
		{
			"reversed part fits",
			true,
			[]Placement{{a, Forward}, {bFlipped, Reverse}, {c, Forward}},
			[]Gap{},
		},
		{
			"reversed part doesn't fit",
			false,
			[]Placement{{a, Forward}, {b, Reverse}},
			[]Gap{{Left: 0, Right: 1, Expected: "TACT", Actual: "CATT", LeftName: "a", RightName: "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			construct := &Construct{Name: tt.name, Circular: tt.circular, Layout: tt.layout}
			if diff := cmp.Diff(tt.want, construct.Gaps()); diff != "" {
				t.Errorf("Construct.Gaps() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConstruct_Insert(t *testing.T) {
	a := mustPart(t, "a", "AAAA", "GGAG", "TACT")
	b := mustPart(t, "b", "CCCC", "TACT", "AATG")
	c := mustPart(t, "c", "GGGG", "AATG", "GGAG")

	construct := NewConstruct("pIns", true)
	construct.Add(a, Forward)
	construct.Add(c, Forward)
	require.NoError(t, construct.Insert(1, b, Reverse))

	assert.Equal(t, []*Part{a, b, c}, construct.Parts())
	assert.Equal(t, Reverse, construct.Layout[1].Orientation)
	assert.Equal(t, "AAAAGGGGGGGG", construct.Sequence())
	assert.Equal(t, "Construct: pIns | Layout: [a(F) -> b(R) -> c(F)]", construct.String())

	assert.Error(t, construct.Insert(5, a, Forward))
	assert.Error(t, construct.Insert(-1, a, Forward))
	require.NoError(t, construct.Insert(3, a, Forward))
	assert.Len(t, construct.Layout, 4)
}

func TestGap_Patch(t *testing.T) {
	g := Gap{Left: 1, Right: 2, Expected: "TACT", Actual: "AATG", LeftName: "rbs", RightName: "cds"}
	assert.Equal(t,
		"gap between 1 and 2 (rbs to cds): junction TACT | AATG, requires a part with left [TACT] and right [AATG]",
		g.Patch(),
	)
}
