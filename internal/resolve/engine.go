// Package resolve implements the boundary consensus engine: it turns a
// noisy, overlapping set of section-span hypotheses into a single gap-free,
// non-overlapping partition of the document with one entry per canonical
// identifier.
//
// The pass is strictly staged: vote -> dedupe -> resolve overlaps -> fill
// gaps -> validate. Every stage is deterministic and order-invariant over
// the input hypothesis set; input order never changes the result, only
// explicitly defined SourceTag tie-breaks do.
package resolve

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// Default thresholds. Callers override via Options; these exist so a zero
// Options value behaves sensibly.
const (
	DefaultMinConfidence        = 0.5
	DefaultSpanOverlapTolerance = 0.8
)

// Options carries the engine's tunable thresholds. All heuristics are
// explicit here so behavior is reproducible across runs and testable
// across values.
type Options struct {
	// MinConfidence is the voting confidence floor. A group always keeps
	// at least its best hypothesis, so no detected identifier is erased
	// purely for being low-confidence. Zero selects the default floor; a
	// negative value disables the floor so every hypothesis votes.
	MinConfidence float64

	// SpanOverlapTolerance is the mutual overlap ratio at or above which
	// two spans are considered the same detection (voting clusters,
	// suffix-sibling dedup).
	SpanOverlapTolerance float64

	// Logger receives stage-level progress. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MinConfidence == 0 {
		o.MinConfidence = DefaultMinConfidence
	} else if o.MinConfidence < 0 {
		o.MinConfidence = 0
	}
	if o.SpanOverlapTolerance <= 0 {
		o.SpanOverlapTolerance = DefaultSpanOverlapTolerance
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ResolvedSection is one entry of the final partition. Filled entries are
// synthesized gap fillers: they reuse a neighboring section's identifier
// (continuation content) and carry no supporting hypothesis.
type ResolvedSection struct {
	ID         ident.CanonicalID      `json:"-"`
	DisplayID  string                 `json:"id"`
	Span       hypothesis.Span        `json:"span"`
	Confidence float64                `json:"confidence"`
	Provenance []hypothesis.SourceTag `json:"provenance,omitempty"`
	Filled     bool                   `json:"filled"`
}

// Result is the terminal artifact of a resolution run: the ordered
// partition plus the full audit trail.
type Result struct {
	Sections    []ResolvedSection `json:"sections"`
	Diagnostics Diagnostics       `json:"diagnostics"`
}

// Run executes the full pipeline over an already-collected hypothesis set.
// It is pure and idempotent: same hypotheses, same document range, same
// options give a byte-identical Result. On a coverage violation it returns
// the diagnostics gathered so far inside a *CoverageViolation error;
// callers must treat that as pipeline-halting.
func Run(hyps []hypothesis.Hypothesis, doc hypothesis.Span, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if !doc.Valid() {
		return nil, fmt.Errorf("invalid document range %s", doc)
	}

	var diag Diagnostics
	diag.TotalElements = doc.Len()
	diag.UnparsableIDs = unparsableIDs(hyps)

	groups := groupByID(hyps)
	log.Debug("grouped hypotheses", "hypotheses", len(hyps), "groups", len(groups))

	entries := make([]ResolvedSection, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, g.selectSpan(opts))
	}

	entries = dedupe(entries, opts, &diag)
	entries = resolveOverlaps(entries, &diag)
	entries = fillGaps(entries, doc, &diag)

	if err := validate(entries, doc, &diag); err != nil {
		log.Error("coverage validation failed", "error", err)
		return nil, err
	}

	log.Info("resolution complete",
		"sections", len(entries),
		"gaps_filled", diag.GapsFilled,
		"subsumed", len(diag.SubsumedEntries),
		"dropped", diag.DroppedHypotheses.Count,
		"filler_fraction", diag.FillerFraction())

	return &Result{Sections: entries, Diagnostics: diag}, nil
}

// unparsableIDs collects the distinct raw identifiers that normalized to
// Other-kind (hash fallback) so operators can see upstream garbage.
func unparsableIDs(hyps []hypothesis.Hypothesis) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range hyps {
		if h.ID.Kind != ident.KindOther {
			continue
		}
		if _, ok := seen[h.RawID]; ok {
			continue
		}
		seen[h.RawID] = struct{}{}
		out = append(out, h.RawID)
	}
	sort.Strings(out)
	return out
}
