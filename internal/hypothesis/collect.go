package hypothesis

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gamebook-tools/sectioneer/internal/ident"
)

// maxDropExamples bounds how many dropped records are carried verbatim in
// diagnostics; beyond this only the count grows.
const maxDropExamples = 20

// Dropped describes one record that failed validation. Drops are reported,
// never silent: the count plus up to maxDropExamples examples survive into
// the run diagnostics.
type Dropped struct {
	RawID  string    `json:"raw_id"`
	Source SourceTag `json:"source"`
	Reason string    `json:"reason"`
}

// DropReport aggregates validation drops across a collection pass.
type DropReport struct {
	Count    int       `json:"count"`
	Examples []Dropped `json:"examples,omitempty"`
}

// add records one drop, keeping at most maxDropExamples examples.
func (d *DropReport) add(rec Dropped) {
	d.Count++
	if len(d.Examples) < maxDropExamples {
		d.Examples = append(d.Examples, rec)
	}
}

// Merge folds another report into d. Used when per-batch reports are
// concatenated after concurrent collection.
func (d *DropReport) Merge(o DropReport) {
	d.Count += o.Count
	for _, ex := range o.Examples {
		if len(d.Examples) >= maxDropExamples {
			break
		}
		d.Examples = append(d.Examples, ex)
	}
}

// Collector validates raw upstream records and normalizes their
// identifiers into Hypotheses. It holds no mutable state, so one Collector
// is safe to share across concurrent batch workers.
type Collector struct {
	norm   *ident.Normalizer
	logger *slog.Logger
}

// NewCollector returns a Collector using the given identifier normalizer.
func NewCollector(norm *ident.Normalizer, logger *slog.Logger) *Collector {
	if norm == nil {
		norm = ident.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{norm: norm, logger: logger}
}

// Collect validates each decoded record and converts survivors into
// Hypotheses. Output order preserves input order; later stages rely on
// that only for deterministic tie-breaking, never for correctness.
func (c *Collector) Collect(records []RawRecord) ([]Hypothesis, DropReport) {
	hyps := make([]Hypothesis, 0, len(records))
	var drops DropReport

	for _, rec := range records {
		if reason := validateRecord(rec); reason != "" {
			drops.add(Dropped{RawID: rec.RawID, Source: rec.Source, Reason: reason})
			c.logger.Debug("dropped malformed hypothesis",
				"raw_id", rec.RawID, "source", rec.Source.String(), "reason", reason)
			continue
		}
		hyps = append(hyps, Hypothesis{
			RawID:      rec.RawID,
			ID:         c.norm.Normalize(rec.RawID),
			Span:       Span{Start: rec.StartOffset, End: rec.EndOffset},
			Confidence: rec.Confidence,
			Source:     rec.Source,
			Evidence:   rec.Evidence,
			Extra:      rec.Extra,
		})
	}

	if drops.Count > 0 {
		c.logger.Info("collection dropped malformed records",
			"dropped", drops.Count, "kept", len(hyps))
	}
	return hyps, drops
}

// CollectJSON decodes a batch of raw JSON records, schema-validates each,
// and collects the survivors. A record that fails either JSON decoding or
// schema validation is dropped with a reason; it never aborts the batch.
func (c *Collector) CollectJSON(raw []json.RawMessage) ([]Hypothesis, DropReport, error) {
	schema, err := RecordSchema()
	if err != nil {
		return nil, DropReport{}, err
	}

	records := make([]RawRecord, 0, len(raw))
	var drops DropReport

	for i, msg := range raw {
		var doc any
		if err := json.Unmarshal(msg, &doc); err != nil {
			drops.add(Dropped{Reason: fmt.Sprintf("record %d: invalid JSON: %v", i, err)})
			continue
		}
		if err := schema.Validate(doc); err != nil {
			drops.add(Dropped{
				RawID:  stringField(doc, "raw_id"),
				Reason: fmt.Sprintf("record %d: schema violation: %v", i, err),
			})
			continue
		}
		var rec RawRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			drops.add(Dropped{Reason: fmt.Sprintf("record %d: decode failed: %v", i, err)})
			continue
		}
		records = append(records, rec)
	}

	hyps, collectDrops := c.Collect(records)
	drops.Merge(collectDrops)
	return hyps, drops, nil
}

// validateRecord applies the cross-field rules the schema cannot express.
// Returns an empty string for a valid record.
func validateRecord(rec RawRecord) string {
	switch {
	case rec.RawID == "":
		return "empty raw_id"
	case rec.StartOffset > rec.EndOffset:
		return fmt.Sprintf("invalid span: start %d > end %d", rec.StartOffset, rec.EndOffset)
	case rec.Confidence < 0 || rec.Confidence > 1:
		return fmt.Sprintf("confidence %v outside [0,1]", rec.Confidence)
	case rec.Source.Engine == "":
		return "missing source engine"
	}
	return ""
}

// stringField pulls a string property out of decoded generic JSON for drop
// diagnostics. Best effort only.
func stringField(doc any, key string) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
