// Package hypothesis defines the uniform in-memory representation of
// upstream section-span proposals and the collector that validates raw
// records into it. The collector performs schema validation only; all
// judgment about which spans win lives in the resolve package.
package hypothesis

import (
	"encoding/json"
	"fmt"

	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// PageRange is the inclusive physical page range of a document, fixed at
// ingest time.
type PageRange struct {
	FirstPage int `json:"first_page" yaml:"first_page"`
	LastPage  int `json:"last_page" yaml:"last_page"`
}

// Valid reports whether the range is well formed.
func (r PageRange) Valid() bool {
	return r.FirstPage <= r.LastPage
}

// Span converts the page range to an element span. Documents here are
// pre-linearized, so offsets are page-granular.
func (r PageRange) Span() Span {
	return Span{Start: r.FirstPage, End: r.LastPage}
}

// Span is a contiguous range over the document's linear element order,
// inclusive on both ends.
type Span struct {
	Start int `json:"start_offset"`
	End   int `json:"end_offset"`
}

// Valid reports whether Start <= End.
func (s Span) Valid() bool {
	return s.Start <= s.End
}

// Len returns the number of elements the span covers.
func (s Span) Len() int {
	if !s.Valid() {
		return 0
	}
	return s.End - s.Start + 1
}

// Overlap returns the number of elements shared by s and o.
func (s Span) Overlap(o Span) int {
	lo := max(s.Start, o.Start)
	hi := min(s.End, o.End)
	if lo > hi {
		return 0
	}
	return hi - lo + 1
}

// Overlaps reports whether s and o share any element.
func (s Span) Overlaps(o Span) bool {
	return s.Overlap(o) > 0
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// OverlapRatio returns the mutual overlap ratio of two spans: shared
// elements divided by the length of the longer span. 1.0 means the spans
// coincide up to containment of the shorter in the longer.
func (s Span) OverlapRatio(o Span) float64 {
	longer := max(s.Len(), o.Len())
	if longer == 0 {
		return 0
	}
	return float64(s.Overlap(o)) / float64(longer)
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}

// SourceTag identifies where a hypothesis came from: which engine, which
// batch window, which model pass. Tags never change resolution semantics;
// they only break ties deterministically and feed diagnostics.
type SourceTag struct {
	Engine string `json:"engine"`
	Batch  int    `json:"batch"`
	Pass   int    `json:"pass"`
}

// Compare orders tags by (batch, pass, engine). The smallest tag is the
// "earliest" source for tie-breaking.
func (s SourceTag) Compare(o SourceTag) int {
	if s.Batch != o.Batch {
		if s.Batch < o.Batch {
			return -1
		}
		return 1
	}
	if s.Pass != o.Pass {
		if s.Pass < o.Pass {
			return -1
		}
		return 1
	}
	if s.Engine != o.Engine {
		if s.Engine < o.Engine {
			return -1
		}
		return 1
	}
	return 0
}

func (s SourceTag) String() string {
	return fmt.Sprintf("%s/b%d/p%d", s.Engine, s.Batch, s.Pass)
}

// Hypothesis is one validated upstream proposal that a given identifier
// spans a given range. Immutable once collected.
type Hypothesis struct {
	RawID      string            `json:"raw_id"`
	ID         ident.CanonicalID `json:"canonical_id"`
	Span       Span              `json:"span"`
	Confidence float64           `json:"confidence"`
	Source     SourceTag         `json:"source"`
	Evidence   string            `json:"evidence,omitempty"`

	// Extra carries unrecognized upstream record fields verbatim. The
	// engine never reads it; it exists so diagnostics round-trip whatever
	// the producing engine attached.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// RawRecord is the upstream wire contract for one proposal, before
// validation. Unknown fields are preserved in Extra.
type RawRecord struct {
	RawID       string    `json:"raw_id"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Confidence  float64   `json:"confidence"`
	Source      SourceTag `json:"source"`
	Evidence    string    `json:"evidence,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// rawRecordKnown mirrors RawRecord for two-phase decoding.
type rawRecordKnown RawRecord

// knownRecordFields are stripped from the Extra bag during decode.
var knownRecordFields = map[string]struct{}{
	"raw_id": {}, "start_offset": {}, "end_offset": {},
	"confidence": {}, "source": {}, "evidence": {},
}

// UnmarshalJSON decodes the known contract fields and stashes everything
// else, uninterpreted, in Extra.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var known rawRecordKnown
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range knownRecordFields {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}

	*r = RawRecord(known)
	r.Extra = all
	return nil
}

// MarshalJSON emits the known fields; Extra is intentionally not
// re-serialized into the record body to keep the contract closed.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawRecordKnown(r))
}
