package hypothesis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gamebook-tools/sectioneer/internal/ident"
)

func testRecord(rawID string, start, end int, conf float64) RawRecord {
	return RawRecord{
		RawID:       rawID,
		StartOffset: start,
		EndOffset:   end,
		Confidence:  conf,
		Source:      SourceTag{Engine: "mistral", Batch: 0},
	}
}

func TestCollectKeepsValidRecordsInOrder(t *testing.T) {
	c := NewCollector(ident.New(), nil)

	records := []RawRecord{
		testRecord("63", 100, 140, 0.9),
		testRecord("S064", 141, 160, 0.8),
		testRecord("63a", 161, 180, 0.7),
	}

	hyps, drops := c.Collect(records)
	if drops.Count != 0 {
		t.Fatalf("unexpected drops: %+v", drops)
	}
	if len(hyps) != 3 {
		t.Fatalf("got %d hypotheses, want 3", len(hyps))
	}
	want := []string{"63", "64", "63a"}
	for i, w := range want {
		if hyps[i].ID.String() != w {
			t.Fatalf("hyps[%d].ID = %s, want %s", i, hyps[i].ID, w)
		}
	}
}

func TestCollectDropsMalformedWithReason(t *testing.T) {
	c := NewCollector(ident.New(), nil)

	records := []RawRecord{
		testRecord("63", 100, 140, 0.9),
		testRecord("64", 150, 140, 0.9),  // inverted span
		testRecord("65", 100, 140, 1.5),  // confidence out of range
		testRecord("", 100, 140, 0.5),    // empty id
		{RawID: "66", StartOffset: 1, EndOffset: 2, Confidence: 0.5}, // no engine
	}

	hyps, drops := c.Collect(records)
	if len(hyps) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(hyps))
	}
	if drops.Count != 4 {
		t.Fatalf("drops.Count = %d, want 4", drops.Count)
	}
	if len(drops.Examples) != 4 {
		t.Fatalf("drop examples = %d, want 4", len(drops.Examples))
	}
	for _, d := range drops.Examples {
		if d.Reason == "" {
			t.Fatalf("drop without reason: %+v", d)
		}
	}
}

func TestCollectJSONSchemaValidation(t *testing.T) {
	c := NewCollector(ident.New(), nil)

	raw := []json.RawMessage{
		json.RawMessage(`{"raw_id":"63","start_offset":100,"end_offset":140,"confidence":0.9,"source":{"engine":"mistral","batch":0}}`),
		json.RawMessage(`{"raw_id":"","start_offset":1,"end_offset":2,"confidence":0.5,"source":{"engine":"mistral","batch":0}}`),
		json.RawMessage(`{"raw_id":"64","start_offset":1,"end_offset":2,"confidence":0.5}`),
		json.RawMessage(`{not json`),
	}

	hyps, drops, err := c.CollectJSON(raw)
	if err != nil {
		t.Fatalf("CollectJSON failed: %v", err)
	}
	if len(hyps) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(hyps))
	}
	if drops.Count != 3 {
		t.Fatalf("drops.Count = %d, want 3", drops.Count)
	}
	foundSchema := false
	for _, d := range drops.Examples {
		if strings.Contains(d.Reason, "schema violation") {
			foundSchema = true
		}
	}
	if !foundSchema {
		t.Fatalf("expected a schema violation drop, got %+v", drops.Examples)
	}
}

func TestDropReportCapsExamples(t *testing.T) {
	c := NewCollector(ident.New(), nil)

	records := make([]RawRecord, 0, maxDropExamples+10)
	for i := 0; i < maxDropExamples+10; i++ {
		records = append(records, testRecord("bad", 10, 5, 0.5))
	}

	_, drops := c.Collect(records)
	if drops.Count != maxDropExamples+10 {
		t.Fatalf("drops.Count = %d, want %d", drops.Count, maxDropExamples+10)
	}
	if len(drops.Examples) != maxDropExamples {
		t.Fatalf("examples = %d, want cap %d", len(drops.Examples), maxDropExamples)
	}
}
