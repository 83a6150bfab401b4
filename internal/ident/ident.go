// Package ident canonicalizes raw section identifiers produced by upstream
// OCR and AI boundary-detection passes. Raw labels arrive in many shapes
// ("63", "S063", " 63a ", "p12") and the rest of the pipeline needs a single
// stable, comparable form per logical section.
package ident

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Kind classifies what a canonical identifier refers to.
type Kind int

const (
	// KindSection is a numbered gamebook section.
	KindSection Kind = iota

	// KindPage is a physical page label.
	KindPage

	// KindOther marks identifiers that could not be parsed. Their numeric
	// key is a stable hash of the raw text, so they stay unique and
	// deterministic without crashing the pipeline.
	KindOther
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindPage:
		return "page"
	default:
		return "other"
	}
}

// CanonicalID is the normalized, comparable form of a raw identifier.
// Two raw identifiers denote the same logical entity iff they normalize to
// the same CanonicalID.
type CanonicalID struct {
	NumericKey int
	Suffix     string
	Kind       Kind
}

// String renders the identifier back to a display string: "63", "63a",
// "P12". Unparsable identifiers render a synthetic hex id so they remain
// visible (and greppable) in output rather than disappearing.
func (c CanonicalID) String() string {
	switch c.Kind {
	case KindPage:
		return fmt.Sprintf("P%d%s", c.NumericKey, c.Suffix)
	case KindOther:
		return fmt.Sprintf("x%08x", uint32(c.NumericKey))
	default:
		return strconv.Itoa(c.NumericKey) + c.Suffix
	}
}

// Compare orders identifiers by (numeric key, suffix, kind). An absent
// suffix sorts before any present suffix, so "63" precedes "63a".
func (c CanonicalID) Compare(o CanonicalID) int {
	if c.NumericKey != o.NumericKey {
		if c.NumericKey < o.NumericKey {
			return -1
		}
		return 1
	}
	if c.Suffix != o.Suffix {
		if c.Suffix < o.Suffix {
			return -1
		}
		return 1
	}
	if c.Kind != o.Kind {
		if c.Kind < o.Kind {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether c orders before o.
func (c CanonicalID) Less(o CanonicalID) bool {
	return c.Compare(o) < 0
}

// Normalizer turns raw identifier strings into CanonicalIDs.
// The zero value is not usable; construct with New.
type Normalizer struct {
	prefixes map[byte]Kind
}

// New returns a Normalizer recognizing the given single-letter type
// prefixes. "S"/"s" maps to KindSection, "P"/"p" to KindPage; any other
// configured token is treated as a section prefix. With no tokens the
// defaults {"S", "P"} apply.
func New(prefixTokens ...string) *Normalizer {
	if len(prefixTokens) == 0 {
		prefixTokens = []string{"S", "P"}
	}
	prefixes := make(map[byte]Kind, len(prefixTokens))
	for _, tok := range prefixTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len(tok) != 1 {
			continue
		}
		kind := KindSection
		if tok[0] == 'p' {
			kind = KindPage
		}
		prefixes[tok[0]] = kind
	}
	return &Normalizer{prefixes: prefixes}
}

// Normalize canonicalizes a raw identifier. It is total: any input yields a
// deterministic CanonicalID. Rules, in order: trim whitespace; strip one
// recognized type-prefix letter (case-insensitive), recording the kind;
// strip leading zeros from the numeric run; keep a trailing alphabetic run
// as the suffix only when it directly follows the digits. Anything that
// does not fit digits-plus-optional-suffix falls back to a stable hash id
// of kind Other.
func (n *Normalizer) Normalize(raw string) CanonicalID {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return hashID(trimmed)
	}

	body := strings.ToLower(trimmed)
	kind := KindSection
	if k, ok := n.prefixes[body[0]]; ok && len(body) > 1 && isDigit(body[1]) {
		kind = k
		body = body[1:]
	}

	// Split into a digit run and an optional trailing letter run.
	i := 0
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	digits, suffix := body[:i], body[i:]
	if digits == "" || !isAlpha(suffix) {
		return hashID(body)
	}

	key, err := strconv.Atoi(strings.TrimLeft(digits, "0"))
	if err != nil {
		// All zeros trims to the empty string.
		key = 0
	}

	return CanonicalID{NumericKey: key, Suffix: suffix, Kind: kind}
}

// hashID maps unparsable input to a stable Other-kind identifier. FNV-1a
// over the folded text keeps re-runs byte-identical.
func hashID(folded string) CanonicalID {
	h := fnv.New32a()
	h.Write([]byte(folded))
	return CanonicalID{NumericKey: int(h.Sum32()), Kind: KindOther}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isAlpha reports whether s is empty or all ASCII letters.
func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 'a' || b > 'z' {
			return false
		}
	}
	return true
}
