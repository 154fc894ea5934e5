package felix

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Output is the annotation of a single construct
type Output struct {
	// RunID is shared by every construct annotated in one run
	RunID string `json:"runId"`

	// Construct's name, from its LOCUS line or file name
	Construct string `json:"construct"`

	// Time, ex: "2018/01/01 20:41:00"
	Time string `json:"time"`

	// Execution is the number of seconds it took to annotate the construct
	Execution float64 `json:"execution"`

	// Circular if the construct's topology is circular
	Circular bool `json:"circular"`

	// Length of the assembled construct in bp
	Length int `json:"length"`

	// Parts are the reports for each part, in layout order
	Parts []Report `json:"parts"`

	// Gaps are mismatched junctions, empty if the construct is junction-consistent
	Gaps []Gap `json:"gaps"`
}

// NewOutput gathers the annotation of a construct
func NewOutput(runID string, c *Construct, reports []Report, gaps []Gap, seconds float64) Output {
	// store save time, using same format as log.Println https://golang.org/pkg/log/#Println
	t := time.Now()
	if reports == nil {
		reports = []Report{}
	}
	if gaps == nil {
		gaps = []Gap{}
	}

	return Output{
		RunID:     runID,
		Construct: c.Name,
		Time: fmt.Sprintf(
			"%d/%02d/%02d %02d:%02d:%02d",
			t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		),
		Execution: roundSeconds(seconds),
		Circular:  c.Circular,
		Length:    len(c.Sequence()),
		Parts:     reports,
		Gaps:      gaps,
	}
}

// WriteJSON serializes the outputs and, if filename isn't empty, writes them to it
func WriteJSON(filename string, outputs []Output) ([]byte, error) {
	output, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize output: %w", err)
	}

	if filename != "" {
		if err = os.WriteFile(filename, output, 0644); err != nil {
			return output, fmt.Errorf("failed to write the output: %w", err)
		}
	}

	return output, nil
}

// WriteTable writes the parts and gaps of an output as aligned columns
func WriteTable(w io.Writer, out Output) error {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)

	fmt.Fprintf(tw, "%s (%d parts)\trole\tconfidence\tphysical\tsemantic\tescalated\ttier\tdirection\tSO\t\n", out.Construct, len(out.Parts))
	for _, r := range out.Parts {
		dir := "FWD"
		if r.Orientation == Reverse {
			dir = "REV"
		}

		escalated := "-"
		if r.Score.WasEscalated {
			escalated = strconv.FormatFloat(r.Score.Escalated, 'f', -1, 64)
		}

		roles := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			roles[i] = role.String()
		}

		name := r.Name
		if len(r.Warnings) > 0 {
			name += " *"
		}

		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%v\t%s\t%s\t%s\t%s\t\n",
			name,
			strings.Join(roles, ","),
			r.Score.Confidence,
			r.Score.Physical,
			r.Score.Semantic,
			escalated,
			r.Score.Tier,
			dir,
			r.SOTerm,
		)
	}

	if len(out.Gaps) > 0 {
		fmt.Fprintf(tw, "\ngaps (%d)\t\n", len(out.Gaps))
		for _, g := range out.Gaps {
			fmt.Fprintf(tw, "%s\t\n", g.Patch())
		}
	}

	return tw.Flush()
}

// WriteGenbank writes the construct's assembled sequence with a feature for each part.
// Each feature has the part's label and a note with its role and confidence.
func WriteGenbank(w io.Writer, c *Construct) error {
	seq := c.Sequence()
	topology := "linear"
	if c.Circular {
		topology = "circular"
	}

	// header row
	d := time.Now().Local()
	h1 := fmt.Sprintf("LOCUS       %s", c.Name)
	h2 := fmt.Sprintf("%d bp DNA      %s      %s\n", len(seq), topology, strings.ToUpper(d.Format("02-Jan-2006")))
	space := " "
	if pad := 81 - len(h1+h2); pad > 0 {
		space = strings.Repeat(" ", pad)
	}
	header := h1 + space + h2

	// feature rows
	var fsb strings.Builder
	fsb.WriteString("DEFINITION  .\nACCESSION   .\nFEATURES             Location/Qualifiers\n")
	start := 1
	for _, pl := range c.Layout {
		p := pl.Part
		end := start + len(p.Seq()) - 1

		cS, cE := "", ""
		if pl.Orientation == Reverse {
			cS, cE = "complement(", ")"
		}

		featureType := p.Meta.FeatureType
		if featureType == "" {
			featureType = "misc_feature"
		}

		note := fmt.Sprintf("role=%s confidence=%v", p.Primary(), p.Score.Confidence)
		if p.Meta.SOTerm != "" {
			note += " so=" + p.Meta.SOTerm
		}
		for _, warning := range p.Meta.Warnings {
			note += " " + warning
		}

		fsb.WriteString(
			fmt.Sprintf("     %-15s %s%d..%d%s\n", featureType, cS, start, end, cE) +
				fmt.Sprintf("                     /label=\"%s\"\n", strings.ReplaceAll(p.Name, "\"", "'")) +
				fmt.Sprintf("                     /note=\"%s\"\n", note),
		)
		start = end + 1
	}

	// origin row
	var ori strings.Builder
	ori.WriteString("ORIGIN\n")
	lower := strings.ToLower(seq)
	for i := 0; i < len(lower); i += 60 {
		n := strconv.Itoa(i + 1)
		ori.WriteString(strings.Repeat(" ", 9-len(n)) + n)
		for s := i; s < i+60 && s < len(lower); s += 10 {
			e := s + 10
			if e > len(lower) {
				e = len(lower)
			}
			ori.WriteString(fmt.Sprintf(" %s", lower[s:e]))
		}
		ori.WriteString("\n")
	}
	ori.WriteString("//\n")

	_, err := io.WriteString(w, header+fsb.String()+ori.String())
	return err
}

func roundSeconds(seconds float64) float64 {
	return round(seconds, 3)
}
