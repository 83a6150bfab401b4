package resolve

import "sort"

// resolveOverlaps arbitrates residual overlaps between entries with
// different canonical identifiers (boundary disagreement between genuinely
// distinct sections). Entries are sorted by span start and swept left to
// right: in any overlapping pair the higher-confidence entry keeps its
// full span and the other is truncated at the contested boundary. An entry
// whose span would become empty after truncation contributed no surviving
// content and is dropped as subsumed. Truncating a previously accepted
// entry can re-expose an earlier overlap, so accepted entries live on a
// stack; total work stays linear after the sort.
func resolveOverlaps(entries []ResolvedSection, diag *Diagnostics) []ResolvedSection {
	sorted := append([]ResolvedSection(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.ID.Less(b.ID)
	})

	var stack []ResolvedSection
	for _, entry := range sorted {
		original := entry.Span
		dropped := false
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if !top.Span.Overlaps(entry.Span) {
				break
			}

			if preferEntry(*top, entry) {
				// Accepted entry wins: push the newcomer's start past it.
				entry.Span.Start = top.Span.End + 1
				if !entry.Span.Valid() {
					entry.Span = original
					subsume(diag, entry, *top)
					dropped = true
				}
				break
			}

			// Newcomer wins the contested region: truncate the accepted
			// entry, dropping it if nothing remains, then re-check the
			// entry below it.
			top.Span.End = entry.Span.Start - 1
			if top.Span.Valid() {
				break
			}
			subsume(diag, *top, entry)
			stack = stack[:len(stack)-1]
		}
		if !dropped {
			stack = append(stack, entry)
		}
	}

	return stack
}

func subsume(diag *Diagnostics, loser, winner ResolvedSection) {
	diag.SubsumedEntries = append(diag.SubsumedEntries, SubsumedEntry{
		ID:         loser.DisplayID,
		Span:       loser.Span,
		Confidence: loser.Confidence,
		WinnerID:   winner.DisplayID,
	})
}
