package felix

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoSequence is returned for a record without an ORIGIN section
var ErrNoSequence = errors.New("no ORIGIN sequence section")

var (
	locusRegex    = regexp.MustCompile(`(?m)^LOCUS[ \t]+(\S+)(.*)$`)
	featuresRegex = regexp.MustCompile(`(?m)^FEATURES\b.*$`)
	originRegex   = regexp.MustCompile(`(?m)^ORIGIN\b.*$`)
	recordEnd     = regexp.MustCompile(`(?m)^//[ \t]*$`)

	// a feature key is indented 5 spaces, its qualifiers 21
	featureRegex = regexp.MustCompile(`(?m)^ {5}(\S+)[ \t]+(\S.*)$`)

	nonBpRegex   = regexp.MustCompile(`(?i)[^acgt]`)
	nonWordRegex = regexp.MustCompile(`\W+`)
	digitRegex   = regexp.MustCompile(`\d+`)

	// label qualifiers in priority order
	labelRegexes = []*regexp.Regexp{
		regexp.MustCompile(`/label=(?:"([^"]*)"|(\S+))`),
		regexp.MustCompile(`/note=(?:"([^"]*)"|(\S+))`),
		regexp.MustCompile(`/gene=(?:"([^"]*)"|(\S+))`),
	}
)

// featureKey identifies a feature for de-duplication
type featureKey struct {
	start, end  int
	orientation Orientation
}

// Record is the result of parsing a single record of a GenBank file
type Record struct {
	Construct *Construct
	Err       error
}

// ParseGenbankRecords splits a flat file on its "//" terminators and parses each record.
// A failure in one record doesn't stop the others.
func ParseGenbankRecords(name, contents string) []Record {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")

	chunks := []string{}
	for _, chunk := range recordEnd.Split(contents, -1) {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk+"\n//\n")
		}
	}

	records := make([]Record, 0, len(chunks))
	for i, chunk := range chunks {
		recordName := name
		if len(chunks) > 1 {
			recordName = fmt.Sprintf("%s_%d", name, i+1)
		}
		c, err := ParseGenbank(recordName, chunk)
		records = append(records, Record{Construct: c, Err: err})
	}
	return records
}

// ParseGenbank turns a single GenBank record into a Construct with one Part per feature.
//
// name is used if the record has no LOCUS line. The "source" feature and features repeated with
// the same start, end and strand are skipped, as are features without coordinates that fit
// the sequence. Junctions are the 4bp before and after each feature, wrapping around the origin.
func ParseGenbank(name, contents string) (*Construct, error) {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")

	originIndex := originRegex.FindStringIndex(contents)
	if originIndex == nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, ErrNoSequence)
	}
	header := contents[:originIndex[0]]
	seqSection := contents[originIndex[1]:]
	if end := recordEnd.FindStringIndex(seqSection); end != nil {
		seqSection = seqSection[:end[0]]
	}
	fullSeq := strings.ToUpper(nonBpRegex.ReplaceAllString(seqSection, ""))

	circular := true
	if locus := locusRegex.FindStringSubmatch(header); locus != nil {
		name = locus[1]
		for _, field := range strings.Fields(strings.ToLower(locus[2])) {
			if field == "linear" {
				circular = false
			}
		}
	}
	construct := NewConstruct(canonicalName(name), circular)

	featuresIndex := featuresRegex.FindStringIndex(header)
	if featuresIndex == nil {
		return construct, nil
	}
	table := header[featuresIndex[1]:]

	seen := make(map[featureKey]bool)
	matches := featureRegex.FindAllStringSubmatchIndex(table, -1)
	for i, m := range matches {
		featureType := table[m[2]:m[3]]
		if featureType == "source" {
			continue
		}

		blockEnd := len(table)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		location, qualifiers := splitFeatureBlock(table[m[4]:m[5]], table[m[1]:blockEnd])

		start, end, ok := locationSpan(location, len(fullSeq))
		if !ok {
			continue
		}

		orientation := Forward
		if strings.Contains(location, "complement(") {
			orientation = Reverse
		}

		key := featureKey{start: start, end: end, orientation: orientation}
		if seen[key] {
			continue
		}
		seen[key] = true

		label := featureLabel(qualifiers)
		if label == "" {
			label = featureType
		}

		var seq string
		if start <= end {
			seq = fullSeq[start-1 : end]
		} else {
			seq = fullSeq[start-1:] + fullSeq[:end] // crosses the origin
		}

		part, err := NewPart(
			partID(label),
			label,
			seq,
			circularSlice(fullSeq, start-1-JunctionLength, JunctionLength),
			circularSlice(fullSeq, end, JunctionLength),
		)
		if err != nil {
			continue
		}
		part.Meta = Metadata{
			FeatureType: featureType,
			Location:    location,
			Start:       start,
			End:         end,
			Orientation: orientation,
			Label:       label,
		}

		construct.Add(part, orientation)
	}

	return construct, nil
}

// splitFeatureBlock separates a feature's location, which may be continued over several
// lines, from its qualifiers
func splitFeatureBlock(firstLine, rest string) (location, qualifiers string) {
	var loc strings.Builder
	loc.WriteString(strings.TrimSpace(firstLine))

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "/") {
			return loc.String(), strings.Join(lines[i:], "\n")
		}
		loc.WriteString(trimmed)
	}
	return loc.String(), ""
}

// locationSpan returns the first and last coordinate of a location. ok is false if there are
// none or they fall outside a sequence of length seqLength
func locationSpan(location string, seqLength int) (start, end int, ok bool) {
	coords := digitRegex.FindAllString(location, -1)
	if len(coords) == 0 {
		return 0, 0, false
	}

	start, err := strconv.Atoi(coords[0])
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.Atoi(coords[len(coords)-1])
	if err != nil {
		return 0, 0, false
	}

	if start < 1 || end < 1 || start > seqLength || end > seqLength {
		return 0, 0, false
	}
	return start, end, true
}

// featureLabel returns the first of /label, /note or /gene with whitespace collapsed
func featureLabel(qualifiers string) string {
	for _, re := range labelRegexes {
		m := re.FindStringSubmatch(qualifiers)
		if m == nil {
			continue
		}
		value := m[1]
		if value == "" {
			value = m[2]
		}
		if label := strings.Join(strings.Fields(value), " "); label != "" {
			return label
		}
	}
	return ""
}

// partID makes an id from the first 8 characters of a label
func partID(label string) string {
	if len(label) > 8 {
		label = label[:8]
	}
	return "ID_" + canonicalName(label)
}

// canonicalName replaces runs of non-word characters with underscores
func canonicalName(name string) string {
	return strings.Trim(nonWordRegex.ReplaceAllString(name, "_"), "_")
}
