package resolve

import (
	"sort"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// sectionGroup holds every hypothesis sharing one canonical identifier.
// Ephemeral: built here, consumed by selectSpan.
type sectionGroup struct {
	id   ident.CanonicalID
	hyps []hypothesis.Hypothesis
}

// groupByID buckets hypotheses by canonical identifier and returns the
// groups in canonical order. Within a group, hypotheses are sorted into
// the deterministic voting order, so the caller's input order is
// irrelevant from here on.
func groupByID(hyps []hypothesis.Hypothesis) []sectionGroup {
	byID := make(map[ident.CanonicalID][]hypothesis.Hypothesis)
	for _, h := range hyps {
		byID[h.ID] = append(byID[h.ID], h)
	}

	groups := make([]sectionGroup, 0, len(byID))
	for id, members := range byID {
		sortHypotheses(members)
		groups = append(groups, sectionGroup{id: id, hyps: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].id.Less(groups[j].id)
	})
	return groups
}

// sortHypotheses orders a group deterministically: confidence descending,
// then earliest source tag, then span start, then span end. Two
// hypotheses equal under all four keys are interchangeable.
func sortHypotheses(hyps []hypothesis.Hypothesis) {
	sort.Slice(hyps, func(i, j int) bool {
		a, b := hyps[i], hyps[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if c := a.Source.Compare(b.Source); c != 0 {
			return c < 0
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Span.End < b.Span.End
	})
}

// spanCluster is a set of hypotheses agreeing on roughly the same span.
type spanCluster struct {
	rep     hypothesis.Span // span of the first (best-ranked) member
	union   hypothesis.Span
	mass    float64 // total confidence
	count   int
	maxConf float64
	best    hypothesis.SourceTag // earliest tag among members
	sources []hypothesis.SourceTag
}

// selectSpan picks the best-supported span for the group. Hypotheses below
// the confidence floor are discarded unless that would empty the group; the
// single best hypothesis always survives. Survivors are clustered by
// mutual span overlap, and the cluster with the highest total confidence
// mass wins (ties: member count, then earliest source tag, then earliest
// span start). The winning span is the union of the cluster's members, so
// small boundary jitter between agreeing sources is absorbed without
// adopting outlier extremes.
func (g sectionGroup) selectSpan(opts Options) ResolvedSection {
	survivors := g.hyps
	if filtered := aboveFloor(g.hyps, opts.MinConfidence); len(filtered) > 0 {
		survivors = filtered
	} else {
		// Retain only the single best hypothesis; hyps are pre-sorted.
		survivors = g.hyps[:1]
	}

	clusters := clusterSpans(survivors, opts.SpanOverlapTolerance)
	winner := clusters[0]
	for _, c := range clusters[1:] {
		if betterCluster(c, winner) {
			winner = c
		}
	}

	// Losing clusters of the same identifier that still touch the winning
	// span are boundary jitter around the same section: absorb their
	// extent and provenance. Disjoint losing clusters are outliers and are
	// discarded.
	span := winner.union
	sources := winner.sources
	absorbed := map[int]bool{}
	for changed := true; changed; {
		changed = false
		for i, c := range clusters {
			if absorbed[i] || c.rep == winner.rep {
				continue
			}
			if c.union.Overlaps(span) {
				span = span.Union(c.union)
				sources = mergeProvenance(sources, c.sources)
				absorbed[i] = true
				changed = true
			}
		}
	}

	return ResolvedSection{
		ID:         g.id,
		DisplayID:  g.id.String(),
		Span:       span,
		Confidence: winner.maxConf,
		Provenance: sources,
	}
}

func aboveFloor(hyps []hypothesis.Hypothesis, floor float64) []hypothesis.Hypothesis {
	var out []hypothesis.Hypothesis
	for _, h := range hyps {
		if h.Confidence >= floor {
			out = append(out, h)
		}
	}
	return out
}

// clusterSpans greedily assigns each hypothesis (in voting order) to the
// first cluster whose representative span it mutually overlaps at or above
// the tolerance, creating a new cluster otherwise. The representative is
// the cluster's best-ranked member, which keeps assignment deterministic.
func clusterSpans(hyps []hypothesis.Hypothesis, tolerance float64) []spanCluster {
	var clusters []spanCluster

next:
	for _, h := range hyps {
		for i := range clusters {
			if h.Span.OverlapRatio(clusters[i].rep) >= tolerance {
				clusters[i].absorb(h)
				continue next
			}
		}
		clusters = append(clusters, spanCluster{
			rep:     h.Span,
			union:   h.Span,
			mass:    h.Confidence,
			count:   1,
			maxConf: h.Confidence,
			best:    h.Source,
			sources: []hypothesis.SourceTag{h.Source},
		})
	}

	for i := range clusters {
		sortSources(clusters[i].sources)
	}
	return clusters
}

func (c *spanCluster) absorb(h hypothesis.Hypothesis) {
	c.union = c.union.Union(h.Span)
	c.mass += h.Confidence
	c.count++
	if h.Confidence > c.maxConf {
		c.maxConf = h.Confidence
	}
	if h.Source.Compare(c.best) < 0 {
		c.best = h.Source
	}
	c.sources = appendSource(c.sources, h.Source)
}

// betterCluster reports whether a beats b: higher confidence mass, then
// more members, then earlier source tag, then earlier span start.
func betterCluster(a, b spanCluster) bool {
	if a.mass != b.mass {
		return a.mass > b.mass
	}
	if a.count != b.count {
		return a.count > b.count
	}
	if c := a.best.Compare(b.best); c != 0 {
		return c < 0
	}
	return a.union.Start < b.union.Start
}

// appendSource adds a tag unless already present. Provenance lists stay
// small (one entry per engine pass), so linear scan is fine.
func appendSource(tags []hypothesis.SourceTag, t hypothesis.SourceTag) []hypothesis.SourceTag {
	for _, existing := range tags {
		if existing == t {
			return tags
		}
	}
	return append(tags, t)
}

func sortSources(tags []hypothesis.SourceTag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Compare(tags[j]) < 0
	})
}
