package hypothesis

import (
	"encoding/json"
	"testing"
)

func TestSpanOverlap(t *testing.T) {
	tests := []struct {
		a, b    Span
		overlap int
		ratio   float64
	}{
		{Span{100, 140}, Span{138, 142}, 3, 3.0 / 41.0},
		{Span{0, 50}, Span{80, 120}, 0, 0},
		{Span{0, 60}, Span{40, 100}, 21, 21.0 / 61.0},
		{Span{10, 20}, Span{10, 20}, 11, 1.0},
		{Span{10, 20}, Span{20, 30}, 1, 1.0 / 11.0},
	}

	for _, tc := range tests {
		if got := tc.a.Overlap(tc.b); got != tc.overlap {
			t.Fatalf("Overlap(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.overlap)
		}
		if got := tc.b.Overlap(tc.a); got != tc.overlap {
			t.Fatalf("Overlap not symmetric for %v, %v", tc.a, tc.b)
		}
		if got := tc.a.OverlapRatio(tc.b); got != tc.ratio {
			t.Fatalf("OverlapRatio(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.ratio)
		}
	}
}

func TestSpanUnion(t *testing.T) {
	got := (Span{100, 140}).Union(Span{138, 142})
	if got != (Span{100, 142}) {
		t.Fatalf("Union = %v, want [100,142]", got)
	}
}

func TestSourceTagOrdering(t *testing.T) {
	a := SourceTag{Engine: "mistral", Batch: 0, Pass: 0}
	b := SourceTag{Engine: "mistral", Batch: 1, Pass: 0}
	c := SourceTag{Engine: "openrouter", Batch: 0, Pass: 0}

	if a.Compare(b) >= 0 {
		t.Fatal("earlier batch must order first")
	}
	if a.Compare(c) >= 0 {
		t.Fatal("same batch/pass orders by engine name")
	}
	if a.Compare(a) != 0 {
		t.Fatal("tag must compare equal to itself")
	}
}

func TestRawRecordPreservesUnknownFields(t *testing.T) {
	payload := []byte(`{
		"raw_id": "63",
		"start_offset": 100,
		"end_offset": 140,
		"confidence": 0.9,
		"source": {"engine": "mistral", "batch": 2, "pass": 1},
		"evidence": "63\nYou enter the cavern...",
		"window_debug": {"tokens": 512},
		"model": "x-large"
	}`)

	var rec RawRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rec.RawID != "63" || rec.StartOffset != 100 || rec.EndOffset != 140 {
		t.Fatalf("known fields mismatch: %+v", rec)
	}
	if rec.Source.Engine != "mistral" || rec.Source.Batch != 2 {
		t.Fatalf("source mismatch: %+v", rec.Source)
	}
	if len(rec.Extra) != 2 {
		t.Fatalf("extra fields = %v, want window_debug and model", rec.Extra)
	}
	if _, ok := rec.Extra["window_debug"]; !ok {
		t.Fatalf("window_debug not preserved: %v", rec.Extra)
	}

	// Re-marshaling emits only the closed contract.
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var round map[string]any
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("round-trip decode failed: %v", err)
	}
	if _, ok := round["model"]; ok {
		t.Fatal("unknown field leaked back into the record body")
	}
}

func TestPageRangeSpan(t *testing.T) {
	r := PageRange{FirstPage: 1, LastPage: 320}
	if !r.Valid() {
		t.Fatal("range should be valid")
	}
	if r.Span() != (Span{1, 320}) {
		t.Fatalf("Span = %v", r.Span())
	}
	if (PageRange{FirstPage: 5, LastPage: 4}).Valid() {
		t.Fatal("inverted range should be invalid")
	}
}
