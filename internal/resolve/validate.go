package resolve

import (
	"fmt"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// ViolationKind names the class of partition invariant that failed.
type ViolationKind string

const (
	ViolationOverlap     ViolationKind = "overlap"
	ViolationGap         ViolationKind = "gap"
	ViolationDuplicateID ViolationKind = "duplicate_id"
	ViolationOutOfRange  ViolationKind = "out_of_range"
)

// CoverageViolation is the fatal error of this engine: the final partition
// would be unsound. The engine never emits a partial result on violation;
// it surfaces the specific conflicting pair or gap and the diagnostics
// gathered so far, and the caller must halt the pipeline.
type CoverageViolation struct {
	Kind   ViolationKind
	Detail string

	// A and B are the violating entries (B is nil for single-entry
	// violations); Gap is set for gap violations.
	A, B *ResolvedSection
	Gap  *hypothesis.Span

	Diagnostics *Diagnostics
}

func (e *CoverageViolation) Error() string {
	return fmt.Sprintf("coverage violation (%s): %s", e.Kind, e.Detail)
}

// validate asserts the three partition invariants over the final entries:
// pairwise non-overlap, exact coverage of the document range, and
// canonical-identifier uniqueness. Filler entries share their owning
// section's identifier by construction, so uniqueness is checked over real
// entries and every filler must point at one of them.
func validate(entries []ResolvedSection, doc hypothesis.Span, diag *Diagnostics) error {
	if len(entries) == 0 {
		g := doc
		return &CoverageViolation{
			Kind:        ViolationGap,
			Detail:      fmt.Sprintf("no sections resolved; entire range %s uncovered", doc),
			Gap:         &g,
			Diagnostics: diag,
		}
	}

	for i := range entries {
		e := entries[i]
		if e.Span.Start < doc.Start || e.Span.End > doc.End {
			return &CoverageViolation{
				Kind:        ViolationOutOfRange,
				Detail:      fmt.Sprintf("section %s span %s exceeds document range %s", e.DisplayID, e.Span, doc),
				A:           &entries[i],
				Diagnostics: diag,
			}
		}
	}

	if first := entries[0]; first.Span.Start != doc.Start {
		g := hypothesis.Span{Start: doc.Start, End: first.Span.Start - 1}
		return &CoverageViolation{
			Kind:        ViolationGap,
			Detail:      fmt.Sprintf("range %s before first section %s is uncovered", g, first.DisplayID),
			A:           &entries[0],
			Gap:         &g,
			Diagnostics: diag,
		}
	}

	for i := 0; i+1 < len(entries); i++ {
		prev, next := entries[i], entries[i+1]
		if prev.Span.Overlaps(next.Span) {
			return &CoverageViolation{
				Kind:        ViolationOverlap,
				Detail:      fmt.Sprintf("section %s %s overlaps section %s %s", prev.DisplayID, prev.Span, next.DisplayID, next.Span),
				A:           &entries[i],
				B:           &entries[i+1],
				Diagnostics: diag,
			}
		}
		if prev.Span.End+1 != next.Span.Start {
			g := hypothesis.Span{Start: prev.Span.End + 1, End: next.Span.Start - 1}
			return &CoverageViolation{
				Kind:        ViolationGap,
				Detail:      fmt.Sprintf("range %s between %s and %s is uncovered", g, prev.DisplayID, next.DisplayID),
				A:           &entries[i],
				B:           &entries[i+1],
				Gap:         &g,
				Diagnostics: diag,
			}
		}
	}

	if last := entries[len(entries)-1]; last.Span.End != doc.End {
		g := hypothesis.Span{Start: last.Span.End + 1, End: doc.End}
		return &CoverageViolation{
			Kind:        ViolationGap,
			Detail:      fmt.Sprintf("range %s after last section %s is uncovered", g, last.DisplayID),
			A:           &entries[len(entries)-1],
			Gap:         &g,
			Diagnostics: diag,
		}
	}

	return validateIdentifiers(entries, diag)
}

// validateIdentifiers checks uniqueness over real entries and that every
// filler extends an identifier that actually exists.
func validateIdentifiers(entries []ResolvedSection, diag *Diagnostics) error {
	seen := make(map[ident.CanonicalID]int, len(entries))
	for i := range entries {
		e := entries[i]
		if e.Filled {
			continue
		}
		if j, dup := seen[e.ID]; dup {
			return &CoverageViolation{
				Kind:        ViolationDuplicateID,
				Detail:      fmt.Sprintf("identifier %s appears at %s and %s", e.DisplayID, entries[j].Span, e.Span),
				A:           &entries[j],
				B:           &entries[i],
				Diagnostics: diag,
			}
		}
		seen[e.ID] = i
	}

	for i := range entries {
		e := entries[i]
		if !e.Filled {
			continue
		}
		if _, ok := seen[e.ID]; !ok {
			return &CoverageViolation{
				Kind:        ViolationDuplicateID,
				Detail:      fmt.Sprintf("filler %s %s extends an identifier with no real section", e.DisplayID, e.Span),
				A:           &entries[i],
				Diagnostics: diag,
			}
		}
	}

	return nil
}
