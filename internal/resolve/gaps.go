package resolve

import "github.com/gamebook-tools/sectioneer/internal/hypothesis"

// fillGaps walks the resolved, ordered, non-overlapping entries against
// the document range and synthesizes filler entries over every hole.
// Fillers attach to the identifier of the preceding real section (trailing
// continuation content), or to the following one when there is nothing
// before the gap (leading content); they never introduce a new canonical
// identifier. Fillers carry confidence 0, no provenance, and Filled=true.
//
// With no entries at all there is nothing to attach a filler to, so the
// slice passes through and the validator reports the uncovered range.
func fillGaps(entries []ResolvedSection, doc hypothesis.Span, diag *Diagnostics) []ResolvedSection {
	if len(entries) == 0 {
		return entries
	}

	out := make([]ResolvedSection, 0, len(entries)+2)

	if first := entries[0]; doc.Start < first.Span.Start {
		out = append(out, filler(first, hypothesis.Span{Start: doc.Start, End: first.Span.Start - 1}, diag))
	}

	for i, entry := range entries {
		out = append(out, entry)
		if i+1 < len(entries) {
			next := entries[i+1]
			if entry.Span.End+1 < next.Span.Start {
				out = append(out, filler(entry, hypothesis.Span{Start: entry.Span.End + 1, End: next.Span.Start - 1}, diag))
			}
		}
	}

	if last := entries[len(entries)-1]; last.Span.End < doc.End {
		out = append(out, filler(last, hypothesis.Span{Start: last.Span.End + 1, End: doc.End}, diag))
	}

	return out
}

// filler synthesizes a gap-filler entry carrying the identifier of the
// section it extends.
func filler(owner ResolvedSection, span hypothesis.Span, diag *Diagnostics) ResolvedSection {
	diag.GapsFilled++
	diag.FilledElements += span.Len()
	return ResolvedSection{
		ID:        owner.ID,
		DisplayID: owner.DisplayID,
		Span:      span,
		Filled:    true,
	}
}
