// Package refs extracts outgoing section references from gamebook text.
// Choice-graph consumers need, for each resolved section, the list of
// sections its text sends the reader to ("Turn to 63", "go to 12", or a
// bare number ending a choice line).
package refs

import (
	"regexp"
	"strings"

	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// Reference is one outgoing cross-reference found in section text.
type Reference struct {
	RawText string            `json:"raw_text"` // matched phrase as it appears
	RawID   string            `json:"raw_id"`   // identifier token inside the phrase
	ID      ident.CanonicalID `json:"-"`
	Display string            `json:"id"`
}

// phrasePattern matches the explicit instruction forms gamebooks use.
// The identifier token allows a single alpha suffix (63a) to match the
// canonical form the normalizer produces.
var phrasePattern = regexp.MustCompile(
	`(?i)\b(?:turn|go|proceed|return|flip)(?:\s+back)?\s+(?:(?:straight|directly|immediately)\s+)?to\s+(?:section\s+|paragraph\s+|page\s+)?(\d+[A-Za-z]?)\b`)

// trailingPattern matches a bare number closing a choice line, with
// optional punctuation ("... your sword, 278.").
var trailingPattern = regexp.MustCompile(`(?:^|[\s,:(])(\d+[A-Za-z]?)[).]?\s*$`)

// Extractor finds outgoing references and normalizes their targets.
type Extractor struct {
	norm *ident.Normalizer
}

// NewExtractor returns an extractor normalizing targets with norm.
// A nil normalizer uses the default prefix tokens.
func NewExtractor(norm *ident.Normalizer) *Extractor {
	if norm == nil {
		norm = ident.New()
	}
	return &Extractor{norm: norm}
}

// Extract scans text for outgoing references. Each distinct target
// appears once, in first-occurrence order. Explicit phrases are matched
// anywhere; a bare number only counts when it ends a line, since inline
// numbers are usually dice results or item counts.
func (e *Extractor) Extract(text string) []Reference {
	var refs []Reference
	seen := map[ident.CanonicalID]bool{}

	add := func(raw, phrase string) {
		id := e.norm.Normalize(raw)
		if seen[id] {
			return
		}
		seen[id] = true
		refs = append(refs, Reference{
			RawText: strings.TrimSpace(phrase),
			RawID:   raw,
			ID:      id,
			Display: id.String(),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		matches := phrasePattern.FindAllStringSubmatch(line, -1)
		for _, m := range matches {
			add(m[1], m[0])
		}
		if len(matches) > 0 {
			continue
		}
		if m := trailingPattern.FindStringSubmatch(line); m != nil {
			add(m[1], m[1])
		}
	}
	return refs
}

// Partition splits references into those whose target is a known section
// and those pointing outside the resolved set. Unknown targets are the
// caller's signal of OCR damage or a broken book, so they are returned
// rather than dropped.
func Partition(refs []Reference, known func(ident.CanonicalID) bool) (valid, unknown []Reference) {
	for _, r := range refs {
		if known(r.ID) {
			valid = append(valid, r)
		} else {
			unknown = append(unknown, r)
		}
	}
	return valid, unknown
}
