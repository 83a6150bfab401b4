package resolve

import (
	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
)

// SubsumedEntry records a span that was dropped entirely because a
// higher-confidence span claimed its whole range during overlap
// resolution.
type SubsumedEntry struct {
	ID         string          `json:"id"`
	Span       hypothesis.Span `json:"span"`
	Confidence float64         `json:"confidence"`
	WinnerID   string          `json:"winner_id"`
}

// MergedEntry records a suffix sibling collapsed into a higher-confidence
// entry during deduplication (OCR noise such as "63a" landing on top of
// "63").
type MergedEntry struct {
	KeptID      string `json:"kept_id"`
	DiscardedID string `json:"discarded_id"`
}

// Diagnostics is the audit trail of a resolution run. It is always
// returned, success or not, so operators can see how much of the output is
// real detection versus repair. It replaces run-wide mutable counters: the
// engine threads one value through and hands it back.
type Diagnostics struct {
	DroppedHypotheses hypothesis.DropReport `json:"dropped_hypotheses"`
	SubsumedEntries   []SubsumedEntry       `json:"subsumed_entries,omitempty"`
	MergedSiblings    []MergedEntry         `json:"merged_siblings,omitempty"`
	UnparsableIDs     []string              `json:"unparsable_ids,omitempty"`

	GapsFilled       int `json:"gaps_filled"`
	MergedDuplicates int `json:"merged_duplicates"`

	// FilledElements and TotalElements measure how much of the final
	// partition is synthesized filler. A high ratio is an upstream quality
	// signal, not an engine error.
	FilledElements int `json:"filled_elements"`
	TotalElements  int `json:"total_elements"`
}

// FillerFraction returns the share of the document covered by synthesized
// filler rather than detected sections.
func (d *Diagnostics) FillerFraction() float64 {
	if d.TotalElements == 0 {
		return 0
	}
	return float64(d.FilledElements) / float64(d.TotalElements)
}
