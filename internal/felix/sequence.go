package felix

import (
	"errors"
	"fmt"
	"strings"
)

// JunctionLength is the length of a MoClo overhang between neighboring parts
const JunctionLength = 4

var (
	// ErrInvalidSequence is returned when a sequence has symbols other than A, C, G, T
	ErrInvalidSequence = errors.New("invalid DNA sequence")

	// ErrJunctionLength is returned when a junction isn't JunctionLength long
	ErrJunctionLength = errors.New("junction must be 4bp")
)

// complement maps a base, in either case, to its upper-case pairing partner
var complement [256]byte

func init() {
	for _, pair := range []string{"AT", "TA", "CG", "GC"} {
		complement[pair[0]] = pair[1]
		complement[pair[0]+'a'-'A'] = pair[1]
	}
}

// RevComp returns the upper-case reverse complement of a sequence.
// Symbols outside ACGT (either case) become N.
func RevComp(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

// canonicalSeq upper-cases a sequence and checks that it's only A, C, G, T
func canonicalSeq(seq string) (string, error) {
	seq = strings.ToUpper(seq)
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return "", fmt.Errorf("%w: %q at index %d", ErrInvalidSequence, seq[i], i)
		}
	}
	return seq, nil
}

// canonicalJunction validates and upper-cases a junction
func canonicalJunction(junction string) (string, error) {
	if len(junction) != JunctionLength {
		return "", fmt.Errorf("%w: %q", ErrJunctionLength, junction)
	}
	return canonicalSeq(junction)
}

// gcContent is the fraction of the sequence that's G or C
func gcContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

// atContent is the fraction of the sequence that's A or T
func atContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	at := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'T', 'a', 't':
			at++
		}
	}
	return float64(at) / float64(len(seq))
}

// circularSlice returns length bp starting at index start (0-based, may be negative or past
// the end) of a circular sequence
func circularSlice(seq string, start, length int) string {
	n := len(seq)
	if n == 0 {
		return ""
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = seq[((start+i)%n+n)%n]
	}
	return string(out)
}
