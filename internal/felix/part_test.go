package felix

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPart(t *testing.T) {
	tests := []struct {
		name    string
		seq     string
		left    string
		right   string
		wantErr error
	}{
		{"valid", "atgaaa", "ggag", "TACT", nil},
		{"bad sequence", "ATGNNN", "GGAG", "TACT", ErrInvalidSequence},
		{"short junction", "ATG", "GGA", "TACT", ErrJunctionLength},
		{"long junction", "ATG", "GGAG", "TACTA", ErrJunctionLength},
		{"bad junction", "ATG", "GGAG", "TAC-", ErrInvalidSequence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPart("id", tt.name, tt.seq, tt.left, tt.right)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewPart() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			assert.Equal(t, strings.ToUpper(tt.seq), p.Seq())
			assert.Equal(t, "GGAG", p.LeftJunction)
			assert.Equal(t, Unknown, p.Primary())
		})
	}
}

func TestPlacement_Junctions(t *testing.T) {
	p, err := NewPart("p", "p", "ATGCCC", "GGAG", "TACT")
	require.NoError(t, err)

	left, right := Placement{Part: p, Orientation: Forward}.Junctions()
	assert.Equal(t, "GGAG", left)
	assert.Equal(t, "TACT", right)

	left, right = Placement{Part: p, Orientation: Reverse}.Junctions()
	assert.Equal(t, "AGTA", left)
	assert.Equal(t, "CTCC", right)

	assert.Equal(t, "GGGCAT", Placement{Part: p, Orientation: Reverse}.Seq())
}

func TestPlacement_Junctions_doubleReversal(t *testing.T) {
	for _, junctions := range [][2]string{{"GGAG", "TACT"}, {"AAAA", "CGCG"}, {"ACGT", "TGCA"}} {
		p, err := NewPart("p", "p", "ATG", junctions[0], junctions[1])
		require.NoError(t, err)

		left, right := Placement{Part: p, Orientation: Reverse}.Junctions()
		flipped, err := NewPart("f", "f", "CAT", left, right)
		require.NoError(t, err)

		left, right = Placement{Part: flipped, Orientation: Reverse}.Junctions()
		assert.Equal(t, junctions[0], left)
		assert.Equal(t, junctions[1], right)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		want    Role
		wantErr string
	}{
		{"promoter", Promoter, ""},
		{" Selection_Marker ", SelectionMarker, ""},
		{"non_coding_rna", NonCodingRNA, ""},
		{"promotor", Unknown, `did you mean "promoter"`},
		{"xyzzy", Unknown, `unknown role "xyzzy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.name)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_SOTerm(t *testing.T) {
	assert.Equal(t, "SO:0000167", Promoter.SOTerm())
	assert.Equal(t, "SO:0000316", CDS.SOTerm())
	assert.Equal(t, "SO:0000110", Unknown.SOTerm())
	assert.Equal(t, "SO:0000110", ProteinTag.SOTerm())
}

func TestRole_text(t *testing.T) {
	b, err := json.Marshal([]Role{Promoter, SelectionMarker})
	require.NoError(t, err)
	assert.JSONEq(t, `["promoter", "selection_marker"]`, string(b))

	var roles []Role
	require.NoError(t, json.Unmarshal(b, &roles))
	assert.Equal(t, []Role{Promoter, SelectionMarker}, roles)

	assert.Error(t, json.Unmarshal([]byte(`["not_a_role"]`), &roles))
}

func TestParseOrientation(t *testing.T) {
	for _, s := range []string{"forward", "F", "+"} {
		o, err := ParseOrientation(s)
		require.NoError(t, err)
		assert.Equal(t, Forward, o)
	}
	for _, s := range []string{"reverse", "r", "-"} {
		o, err := ParseOrientation(s)
		require.NoError(t, err)
		assert.Equal(t, Reverse, o)
	}
	_, err := ParseOrientation("sideways")
	assert.Error(t, err)
}

func TestMetadata_String(t *testing.T) {
	m := Metadata{FeatureType: "CDS", Location: "1..30", SOTerm: "SO:0000316", Warnings: []string{LowConfidenceWarning}}
	assert.Equal(t, "Type: CDS, Loc: 1..30 | SO_Term: SO:0000316 | INFERENCE_WARNING:low_confidence", m.String())
}
