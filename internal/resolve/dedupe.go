package resolve

import (
	"sort"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// familyKey identifies one suffix-sibling family: entries sharing a
// numeric key and kind. A page label with the same number as a section is
// a different family, not a sibling.
type familyKey struct {
	key  int
	kind ident.Kind
}

// dedupe resolves entries that share a numeric key but differ in suffix.
// Entries with identical canonical identifiers were already merged by
// grouping; what remains is the "63" vs "63a" question. Genuine suffix
// siblings are physically adjacent sub-sections with disjoint (or barely
// touching) spans, so they are kept distinct only while their spans stay
// below the overlap tolerance. A sibling pair overlapping at or beyond
// tolerance is OCR noise: the lower-confidence entry is folded into the
// higher-confidence one, which keeps its own span and absorbs the loser's
// provenance.
func dedupe(entries []ResolvedSection, opts Options, diag *Diagnostics) []ResolvedSection {
	families := make(map[familyKey][]ResolvedSection)
	var order []familyKey
	for _, e := range entries {
		k := familyKey{key: e.ID.NumericKey, kind: e.ID.Kind}
		if _, ok := families[k]; !ok {
			order = append(order, k)
		}
		families[k] = append(families[k], e)
	}

	out := make([]ResolvedSection, 0, len(entries))
	for _, k := range order {
		out = append(out, dedupeFamily(families[k], opts, diag)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// dedupeFamily collapses noisy siblings within one numeric-key family.
// Families are tiny (a base entry plus a few lettered variants), so the
// pairwise scan is not a concern.
func dedupeFamily(family []ResolvedSection, opts Options, diag *Diagnostics) []ResolvedSection {
	if len(family) == 1 {
		return family
	}

	kept := append([]ResolvedSection(nil), family...)

	for {
		i, j, found := findNoisyPair(kept, opts.SpanOverlapTolerance)
		if !found {
			return kept
		}

		winner, loser := i, j
		if preferEntry(kept[j], kept[i]) {
			winner, loser = j, i
		}

		kept[winner].Provenance = mergeProvenance(kept[winner].Provenance, kept[loser].Provenance)
		diag.MergedSiblings = append(diag.MergedSiblings, MergedEntry{
			KeptID:      kept[winner].DisplayID,
			DiscardedID: kept[loser].DisplayID,
		})
		diag.MergedDuplicates++
		kept = append(kept[:loser], kept[loser+1:]...)
	}
}

// findNoisyPair returns the first sibling pair overlapping at or beyond
// tolerance, in identifier order so merge order is deterministic.
func findNoisyPair(entries []ResolvedSection, tolerance float64) (int, int, bool) {
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Span.OverlapRatio(entries[j].Span) >= tolerance {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// preferEntry reports whether a should win over b when one must absorb the
// other: higher confidence, then earlier first provenance tag, then
// earlier span start.
func preferEntry(a, b ResolvedSection) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if c := firstSource(a).Compare(firstSource(b)); c != 0 {
		return c < 0
	}
	return a.Span.Start < b.Span.Start
}

func mergeProvenance(into, from []hypothesis.SourceTag) []hypothesis.SourceTag {
	for _, t := range from {
		into = appendSource(into, t)
	}
	sortSources(into)
	return into
}

// firstSource returns the earliest provenance tag of an entry, or the zero
// tag for synthesized entries with no provenance.
func firstSource(s ResolvedSection) hypothesis.SourceTag {
	if len(s.Provenance) == 0 {
		return hypothesis.SourceTag{}
	}
	return s.Provenance[0]
}
