package felix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"
)

// HashRegistry maps known, exact, sequences to their roles. It's read-only once loaded
// and safe to share between goroutines.
type HashRegistry struct {
	// entries is a map from a canonical sequence to its role
	entries map[string]Role

	// skipped are the rows that couldn't be read, ex: "line 3: unknown role"
	skipped []string
}

// NewHashRegistry returns an empty registry
func NewHashRegistry() *HashRegistry {
	return &HashRegistry{entries: make(map[string]Role)}
}

// LoadHashRegistry reads a registry from a TSV file of sequence and role columns.
// A missing file is an empty registry.
func LoadHashRegistry(path string) (*HashRegistry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewHashRegistry(), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to open hash registry: %w", err)
	}
	defer f.Close()

	r, err := ReadHashRegistry(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read hash registry %s: %w", path, err)
	}
	return r, nil
}

// ReadHashRegistry parses tab-separated (sequence, role) rows. Blank lines, rows without a
// role column and a header row (a first row whose role column isn't a role) are skipped.
// Rows with an unknown role are skipped and kept in Skipped.
func ReadHashRegistry(r io.Reader) (*HashRegistry, error) {
	reg := NewHashRegistry()

	// https://golang.org/pkg/bufio/#example_Scanner_lines
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNumber := 0
	firstRow := true
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		columns := strings.Split(line, "\t")
		if len(columns) < 2 {
			continue
		}

		header := firstRow
		firstRow = false

		role, err := ParseRole(columns[1])
		if err != nil {
			if !header {
				reg.skipped = append(reg.skipped, fmt.Sprintf("line %d: %v", lineNumber, err))
			}
			continue
		}
		reg.entries[canonicalHash(columns[0])] = role
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Skipped describes the rows that were dropped for having an unknown role
func (h *HashRegistry) Skipped() []string {
	return h.skipped
}

// Len is the number of sequences in the registry
func (h *HashRegistry) Len() int {
	return len(h.entries)
}

// Lookup returns the role of the sequence if it's in the registry
func (h *HashRegistry) Lookup(seq string) (Role, bool) {
	role, ok := h.entries[canonicalHash(seq)]
	return role, ok
}

// Match is true if the sequence is registered with the same role. A registered sequence
// with another role is not evidence either way.
func (h *HashRegistry) Match(seq string, role Role) bool {
	registered, ok := h.Lookup(seq)
	return ok && registered == role
}

// Set adds or updates a sequence's role. Only for building a registry before it's shared.
func (h *HashRegistry) Set(seq string, role Role) {
	h.entries[canonicalHash(seq)] = role
}

// Save writes the registry, with a header row, as a TSV sorted by sequence
func (h *HashRegistry) Save(path string) error {
	seqs := make([]string, 0, len(h.entries))
	for seq := range h.entries {
		seqs = append(seqs, seq)
	}
	sort.Strings(seqs)

	var output strings.Builder
	output.WriteString("sequence\trole\n")
	for _, seq := range seqs {
		output.WriteString(fmt.Sprintf("%s\t%s\n", seq, h.entries[seq]))
	}

	if err := os.WriteFile(path, []byte(output.String()), 0644); err != nil {
		return fmt.Errorf("failed to write hash registry: %w", err)
	}
	return nil
}

// canonicalHash lower-cases a sequence and removes all whitespace
func canonicalHash(seq string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, seq)
}
