// Package export persists the terminal artifact of a resolution run: the
// resolved section list and its diagnostics, as JSON or YAML files in the
// document's output directory.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/gamebook-tools/sectioneer/internal/api"
	"github.com/gamebook-tools/sectioneer/internal/home"
	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/resolve"
)

// Section is the exported form of one partition entry.
type Section struct {
	ID         string   `json:"id" yaml:"id"`
	Start      int      `json:"start" yaml:"start"`
	End        int      `json:"end" yaml:"end"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Provenance []string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Filled     bool     `json:"filled" yaml:"filled"`

	// References lists the sections this section's text sends the reader
	// to, when reference extraction ran.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// SectionList is the exported partition for one document.
type SectionList struct {
	DocID       string    `json:"doc_id" yaml:"doc_id"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	RangeStart  int       `json:"range_start" yaml:"range_start"`
	RangeEnd    int       `json:"range_end" yaml:"range_end"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// DropExample is one dropped-record example in the exported diagnostics.
type DropExample struct {
	RawID  string `json:"raw_id,omitempty" yaml:"raw_id,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// SubsumedSection is one span dropped during overlap resolution.
type SubsumedSection struct {
	ID         string  `json:"id" yaml:"id"`
	Start      int     `json:"start" yaml:"start"`
	End        int     `json:"end" yaml:"end"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	WinnerID   string  `json:"winner_id" yaml:"winner_id"`
}

// MergedSibling is one suffix sibling collapsed during deduplication.
type MergedSibling struct {
	KeptID      string `json:"kept_id" yaml:"kept_id"`
	DiscardedID string `json:"discarded_id" yaml:"discarded_id"`
}

// Diagnostics is the exported audit trail of a run.
type Diagnostics struct {
	DroppedCount     int               `json:"dropped_count" yaml:"dropped_count"`
	DroppedExamples  []DropExample     `json:"dropped_examples,omitempty" yaml:"dropped_examples,omitempty"`
	SubsumedSections []SubsumedSection `json:"subsumed_sections,omitempty" yaml:"subsumed_sections,omitempty"`
	MergedSiblings   []MergedSibling   `json:"merged_siblings,omitempty" yaml:"merged_siblings,omitempty"`
	UnparsableIDs    []string          `json:"unparsable_ids,omitempty" yaml:"unparsable_ids,omitempty"`
	GapsFilled       int               `json:"gaps_filled" yaml:"gaps_filled"`
	MergedDuplicates int               `json:"merged_duplicates" yaml:"merged_duplicates"`
	FilledElements   int               `json:"filled_elements" yaml:"filled_elements"`
	TotalElements    int               `json:"total_elements" yaml:"total_elements"`
	FillerFraction   float64           `json:"filler_fraction" yaml:"filler_fraction"`
}

// BuildSectionList converts an engine result into its exported form.
// outgoing maps a section's display identifier to the references extracted
// from its text; nil when reference extraction did not run.
func BuildSectionList(docID, title string, doc hypothesis.Span, res *resolve.Result, outgoing map[string][]string) SectionList {
	list := SectionList{
		DocID:       docID,
		Title:       title,
		RangeStart:  doc.Start,
		RangeEnd:    doc.End,
		GeneratedAt: time.Now().UTC(),
		Sections:    make([]Section, 0, len(res.Sections)),
	}
	for _, s := range res.Sections {
		sec := Section{
			ID:         s.DisplayID,
			Start:      s.Span.Start,
			End:        s.Span.End,
			Confidence: s.Confidence,
			Filled:     s.Filled,
			References: outgoing[s.DisplayID],
		}
		for _, src := range s.Provenance {
			sec.Provenance = append(sec.Provenance, src.String())
		}
		list.Sections = append(list.Sections, sec)
	}
	return list
}

// BuildDiagnostics converts engine diagnostics into their exported form.
func BuildDiagnostics(d resolve.Diagnostics) Diagnostics {
	out := Diagnostics{
		DroppedCount:     d.DroppedHypotheses.Count,
		UnparsableIDs:    d.UnparsableIDs,
		GapsFilled:       d.GapsFilled,
		MergedDuplicates: d.MergedDuplicates,
		FilledElements:   d.FilledElements,
		TotalElements:    d.TotalElements,
		FillerFraction:   d.FillerFraction(),
	}
	for _, ex := range d.DroppedHypotheses.Examples {
		out.DroppedExamples = append(out.DroppedExamples, DropExample{
			RawID:  ex.RawID,
			Source: ex.Source.String(),
			Reason: ex.Reason,
		})
	}
	for _, s := range d.SubsumedEntries {
		out.SubsumedSections = append(out.SubsumedSections, SubsumedSection{
			ID:         s.ID,
			Start:      s.Span.Start,
			End:        s.Span.End,
			Confidence: s.Confidence,
			WinnerID:   s.WinnerID,
		})
	}
	for _, m := range d.MergedSiblings {
		out.MergedSiblings = append(out.MergedSiblings, MergedSibling{
			KeptID:      m.KeptID,
			DiscardedID: m.DiscardedID,
		})
	}
	return out
}

// WriteSections writes the section list into the document's output
// directory and returns the written path.
func WriteSections(h *home.Dir, format api.OutputFormat, list SectionList) (string, error) {
	path := h.SectionsPath(list.DocID, string(format))
	if err := writeFile(path, format, list); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDiagnostics writes the run diagnostics next to the section list and
// returns the written path.
func WriteDiagnostics(h *home.Dir, docID string, format api.OutputFormat, diag Diagnostics) (string, error) {
	path := h.DiagnosticsPath(docID, string(format))
	if err := writeFile(path, format, diag); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, format api.OutputFormat, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := api.OutputTo(f, format, data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
