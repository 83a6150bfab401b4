package ident

import (
	"sort"
	"testing"
)

func TestNormalizeCanonicalForms(t *testing.T) {
	n := New()

	tests := []struct {
		raw    string
		key    int
		suffix string
		kind   Kind
	}{
		{"63", 63, "", KindSection},
		{"S063", 63, "", KindSection},
		{"s63", 63, "", KindSection},
		{" 063 ", 63, "", KindSection},
		{"63a", 63, "a", KindSection},
		{"63A", 63, "a", KindSection},
		{" p12 ", 12, "", KindPage},
		{"P012", 12, "", KindPage},
		{"000", 0, "", KindSection},
	}

	for _, tc := range tests {
		got := n.Normalize(tc.raw)
		if got.NumericKey != tc.key || got.Suffix != tc.suffix || got.Kind != tc.kind {
			t.Fatalf("Normalize(%q) = %+v, want key=%d suffix=%q kind=%v",
				tc.raw, got, tc.key, tc.suffix, tc.kind)
		}
	}
}

func TestNormalizeEquivalentRawsCollapse(t *testing.T) {
	n := New()

	variants := []string{"63", "S063", " 063 ", "s63"}
	first := n.Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := n.Normalize(v); got != first {
			t.Fatalf("Normalize(%q) = %+v, want same as Normalize(%q) = %+v", v, got, variants[0], first)
		}
	}

	// A genuine suffix is a distinct identity.
	if n.Normalize("63") == n.Normalize("63a") {
		t.Fatal("suffix variant collapsed with base identifier")
	}
}

func TestNormalizeUnparsableIsStable(t *testing.T) {
	n := New()

	a := n.Normalize("???")
	b := n.Normalize(" ??? ")
	if a.Kind != KindOther {
		t.Fatalf("unparsable input kind = %v, want KindOther", a.Kind)
	}
	if a != b {
		t.Fatalf("unparsable normalization not stable: %+v vs %+v", a, b)
	}
	if a.String() == "" {
		t.Fatal("Other-kind identifier must render a synthetic display id")
	}

	// Different garbage gets different identities.
	if a == n.Normalize("!!!") {
		t.Fatal("distinct unparsable inputs collided")
	}
}

func TestNormalizeMixedRunsFallBackToHash(t *testing.T) {
	n := New()

	for _, raw := range []string{"12b3", "a12", "", "6-3"} {
		if got := n.Normalize(raw); got.Kind != KindOther {
			t.Fatalf("Normalize(%q).Kind = %v, want KindOther", raw, got.Kind)
		}
	}
}

func TestCanonicalIDString(t *testing.T) {
	tests := []struct {
		id   CanonicalID
		want string
	}{
		{CanonicalID{NumericKey: 63}, "63"},
		{CanonicalID{NumericKey: 63, Suffix: "a"}, "63a"},
		{CanonicalID{NumericKey: 12, Kind: KindPage}, "P12"},
	}
	for _, tc := range tests {
		if got := tc.id.String(); got != tc.want {
			t.Fatalf("String(%+v) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestCanonicalIDOrdering(t *testing.T) {
	ids := []CanonicalID{
		{NumericKey: 63, Suffix: "a"},
		{NumericKey: 100},
		{NumericKey: 63},
		{NumericKey: 2},
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	want := []string{"2", "63", "63a", "100"}
	for i, w := range want {
		if ids[i].String() != w {
			t.Fatalf("sorted[%d] = %s, want %s (full: %v)", i, ids[i], w, ids)
		}
	}
}

func TestCustomPrefixTokens(t *testing.T) {
	n := New("S")

	// With only S configured, "p12" has no recognized prefix and the
	// letter-first form is unparsable.
	if got := n.Normalize("p12"); got.Kind != KindOther {
		t.Fatalf("Normalize(p12) with S-only prefixes = %+v, want KindOther", got)
	}
	if got := n.Normalize("S12"); got.Kind != KindSection || got.NumericKey != 12 {
		t.Fatalf("Normalize(S12) = %+v, want section 12", got)
	}
}
