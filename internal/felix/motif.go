package felix

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// neutralMotifScore is returned when there's no motif to score against
const neutralMotifScore = 0.5

// PSSM is a log2-odds position specific scoring matrix against a uniform background
type PSSM struct {
	// Name of the motif, ex: "TBP"
	Name string

	// scores has one row per position, columns in ACGT order
	scores [][4]float64

	// min and max are the lowest and highest achievable window scores
	min, max float64
}

// NewPSSM normalizes position frequency counts (ACGT rows) into a PSSM. pseudocount is added
// to every count so that unseen bases score finitely.
func NewPSSM(name string, counts [4][]float64, pseudocount float64) (*PSSM, error) {
	length := len(counts[0])
	if length == 0 {
		return nil, fmt.Errorf("motif %s has no positions", name)
	}
	for b := 1; b < 4; b++ {
		if len(counts[b]) != length {
			return nil, fmt.Errorf("motif %s has rows of different lengths", name)
		}
	}

	m := &PSSM{Name: name, scores: make([][4]float64, length)}
	for i := 0; i < length; i++ {
		total := 0.0
		for b := 0; b < 4; b++ {
			total += counts[b][i] + pseudocount
		}
		if total <= 0 {
			return nil, fmt.Errorf("motif %s has no counts at position %d", name, i+1)
		}

		low, high := math.Inf(1), math.Inf(-1)
		for b := 0; b < 4; b++ {
			score := math.Log2(((counts[b][i] + pseudocount) / total) / 0.25)
			m.scores[i][b] = score
			low = math.Min(low, score)
			high = math.Max(high, score)
		}
		m.min += low
		m.max += high
	}

	return m, nil
}

// Len is the width of the motif
func (m *PSSM) Len() int {
	return len(m.scores)
}

// best slides the matrix along the sequence and returns the highest window score.
// ok is false if the sequence is shorter than the motif or has no scorable window.
func (m *PSSM) best(seq string) (score float64, ok bool) {
	score = math.Inf(-1)
windows:
	for start := 0; start+len(m.scores) <= len(seq); start++ {
		window := 0.0
		for i, row := range m.scores {
			b := baseIndex(seq[start+i])
			if b < 0 {
				continue windows
			}
			window += row[b]
		}
		if window > score {
			score, ok = window, true
		}
	}
	return score, ok
}

// normalize maps a window score onto [0, 1] using the matrix's achievable range
func (m *PSSM) normalize(score float64) float64 {
	denom := m.max - m.min
	if denom == 0 {
		if score >= m.min {
			return 1
		}
		return 0
	}
	return math.Max(0, math.Min(1, (score-m.min)/denom))
}

// baseIndex is the column of a base in a PSSM row, -1 if it isn't a base
func baseIndex(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return -1
}

// MotifLibrary is a read-only collection of PSSMs keyed by "<folder>_<motif name>"
type MotifLibrary struct {
	matrices map[string]*PSSM

	// keys is sorted so keyword scans are deterministic
	keys []string
}

// NewMotifLibrary returns an empty library
func NewMotifLibrary() *MotifLibrary {
	return &MotifLibrary{matrices: make(map[string]*PSSM)}
}

// LoadMotifLibrary walks dir and loads every .jaspar and .pfm file in it.
// A missing directory is an empty library.
func LoadMotifLibrary(dir string, pseudocount float64) (*MotifLibrary, error) {
	lib := NewMotifLibrary()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return lib, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".jaspar" && ext != ".pfm") {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		motifs, err := readMotifs(f, stem)
		if err != nil {
			return fmt.Errorf("failed to parse motifs in %s: %w", path, err)
		}

		folder := strings.ToLower(filepath.Base(filepath.Dir(path)))
		for _, raw := range motifs {
			m, err := NewPSSM(raw.name, raw.counts, pseudocount)
			if err != nil {
				return fmt.Errorf("failed to parse motifs in %s: %w", path, err)
			}
			lib.Add(folder+"_"+strings.ToLower(raw.name), m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load motif library from %s: %w", dir, err)
	}

	return lib, nil
}

// Add puts a matrix in the library, replacing any with the same key
func (l *MotifLibrary) Add(key string, m *PSSM) {
	if _, exists := l.matrices[key]; !exists {
		l.keys = append(l.keys, key)
		sort.Strings(l.keys)
	}
	l.matrices[key] = m
}

// Keys returns the sorted keys of the library
func (l *MotifLibrary) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Len is the number of matrices in the library
func (l *MotifLibrary) Len() int {
	return len(l.keys)
}

// BestScore scores the sequence against every matrix whose key contains the keyword and
// returns the best normalized window score. Returns 0.5 if no matrix can score the sequence.
func (l *MotifLibrary) BestScore(seq, keyword string) float64 {
	keyword = strings.ToLower(keyword)
	best, found := 0.0, false
	for _, key := range l.keys {
		if !strings.Contains(key, keyword) {
			continue
		}
		m := l.matrices[key]
		raw, ok := m.best(seq)
		if !ok {
			continue
		}
		if n := m.normalize(raw); !found || n > best {
			best, found = n, true
		}
	}

	if !found {
		return neutralMotifScore
	}
	return round(best, 3)
}

// rawMotif is a count matrix as read from a file
type rawMotif struct {
	name   string
	counts [4][]float64
}

// readMotifs parses JASPAR formatted matrices:
//
//	>MA0108.2 TBP
//	A  [ 61  16 352   3 ]
//	C  [145  46   0  10 ]
//	G  [152  18   2   2 ]
//	T  [ 31 309  35 374 ]
//
// and bare .pfm matrices, rows in ACGT order without labels or brackets. A matrix
// without a header is named after the file.
func readMotifs(r io.Reader, fileName string) ([]rawMotif, error) {
	motifs := []rawMotif{}
	var current *rawMotif
	rows := 0

	finish := func() error {
		if current == nil {
			return nil
		}
		if rows != 4 {
			return fmt.Errorf("motif %s has %d rows, expected 4", current.name, rows)
		}
		motifs = append(motifs, *current)
		current, rows = nil, 0
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if err := finish(); err != nil {
				return nil, err
			}
			fields := strings.Fields(line[1:])
			name := fileName
			if len(fields) > 1 {
				name = fields[1]
			} else if len(fields) == 1 {
				name = fields[0]
			}
			current = &rawMotif{name: name}
			continue
		}

		if current == nil {
			current = &rawMotif{name: fileName}
		}

		row := rows
		if b := baseIndex(line[0]); b >= 0 && len(line) > 1 && (line[1] == ' ' || line[1] == '\t' || line[1] == '[') {
			row = b
			line = line[1:]
		}
		if rows >= 4 {
			return nil, fmt.Errorf("motif %s has more than 4 rows", current.name)
		}

		line = strings.NewReplacer("[", " ", "]", " ").Replace(line)
		for _, field := range strings.Fields(line) {
			count, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("motif %s: bad count %q", current.name, field)
			}
			current.counts[row] = append(current.counts[row], count)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}

	return motifs, nil
}
