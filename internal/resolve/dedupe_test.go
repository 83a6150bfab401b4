package resolve

import (
	"testing"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
)

func section(rawID string, start, end int, conf float64, srcs ...hypothesis.SourceTag) ResolvedSection {
	id := testNorm.Normalize(rawID)
	return ResolvedSection{
		ID:         id,
		DisplayID:  id.String(),
		Span:       hypothesis.Span{Start: start, End: end},
		Confidence: conf,
		Provenance: srcs,
	}
}

func TestDedupeKeepsDisjointSiblings(t *testing.T) {
	entries := []ResolvedSection{
		section("63", 100, 140, 0.9, srcA()),
		section("63a", 141, 160, 0.9, srcA()),
	}

	var diag Diagnostics
	got := dedupe(entries, Options{}.withDefaults(), &diag)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	if diag.MergedDuplicates != 0 {
		t.Fatal("disjoint siblings must not merge")
	}
}

func TestDedupeMergesNoisySiblingIntoHigherConfidence(t *testing.T) {
	// "63a" lands almost exactly on "63": OCR noise, not a real
	// sub-section.
	entries := []ResolvedSection{
		section("63", 100, 140, 0.9, srcA()),
		section("63a", 101, 140, 0.5, srcB()),
	}

	var diag Diagnostics
	got := dedupe(entries, Options{}.withDefaults(), &diag)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.DisplayID != "63" {
		t.Fatalf("kept %s, want higher-confidence 63", s.DisplayID)
	}
	if s.Span != (hypothesis.Span{Start: 100, End: 140}) {
		t.Fatalf("winner span = %s, want its own [100,140]", s.Span)
	}
	if len(s.Provenance) != 2 {
		t.Fatalf("provenance = %v, want loser's source absorbed", s.Provenance)
	}
	if diag.MergedDuplicates != 1 {
		t.Fatalf("merged_duplicates = %d, want 1", diag.MergedDuplicates)
	}
	if len(diag.MergedSiblings) != 1 || diag.MergedSiblings[0].DiscardedID != "63a" {
		t.Fatalf("merge record = %+v", diag.MergedSiblings)
	}
}

func TestDedupeMergesSiblingsAcrossPageLabelWithSameNumber(t *testing.T) {
	// A page label "P63" shares the numeric key with section "63" and sorts
	// between "63" and "63a" (entries below are in canonical order). It
	// belongs to a different family and must not stop the noisy sibling
	// from merging.
	entries := []ResolvedSection{
		section("63", 100, 140, 0.9, srcA()),
		section("P63", 150, 160, 0.7, srcB()),
		section("63a", 101, 140, 0.4, srcC()),
	}

	var diag Diagnostics
	got := dedupe(entries, Options{}.withDefaults(), &diag)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	byID := map[string]bool{}
	for _, e := range got {
		byID[e.DisplayID] = true
	}
	if !byID["63"] || !byID["P63"] || byID["63a"] {
		t.Fatalf("kept %v, want 63 and P63 with 63a merged away", byID)
	}
	if diag.MergedDuplicates != 1 {
		t.Fatalf("merged_duplicates = %d, want 1", diag.MergedDuplicates)
	}
	if len(diag.MergedSiblings) != 1 || diag.MergedSiblings[0].DiscardedID != "63a" {
		t.Fatalf("merge record = %+v", diag.MergedSiblings)
	}
}

func TestDedupeLeavesDifferentNumericKeysAlone(t *testing.T) {
	entries := []ResolvedSection{
		section("63", 100, 140, 0.9, srcA()),
		section("64", 100, 140, 0.9, srcA()), // same span, different key: overlap resolver's problem
	}

	var diag Diagnostics
	got := dedupe(entries, Options{}.withDefaults(), &diag)
	if len(got) != 2 || diag.MergedDuplicates != 0 {
		t.Fatalf("cross-key entries must pass through: %+v", got)
	}
}

func TestDedupeHandlesThreeWayFamily(t *testing.T) {
	// "63" and "63b" are genuine siblings; "63a" is noise on "63".
	entries := []ResolvedSection{
		section("63", 100, 140, 0.9, srcA()),
		section("63a", 100, 139, 0.4, srcB()),
		section("63b", 141, 170, 0.8, srcA()),
	}

	var diag Diagnostics
	got := dedupe(entries, Options{}.withDefaults(), &diag)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	if got[0].DisplayID != "63" || got[1].DisplayID != "63b" {
		t.Fatalf("kept %s, %s; want 63 and 63b", got[0].DisplayID, got[1].DisplayID)
	}
	if diag.MergedDuplicates != 1 {
		t.Fatalf("merged_duplicates = %d, want 1", diag.MergedDuplicates)
	}
}
