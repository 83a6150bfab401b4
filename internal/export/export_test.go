package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/gamebook-tools/sectioneer/internal/api"
	"github.com/gamebook-tools/sectioneer/internal/home"
	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/resolve"
)

func sampleResult() *resolve.Result {
	return &resolve.Result{
		Sections: []resolve.ResolvedSection{
			{
				DisplayID:  "1",
				Span:       hypothesis.Span{Start: 0, End: 40},
				Confidence: 0.9,
				Provenance: []hypothesis.SourceTag{{Engine: "mistral", Batch: 0}},
			},
			{
				DisplayID: "1",
				Span:      hypothesis.Span{Start: 41, End: 60},
				Filled:    true,
			},
			{
				DisplayID:  "2",
				Span:       hypothesis.Span{Start: 61, End: 100},
				Confidence: 0.8,
			},
		},
		Diagnostics: resolve.Diagnostics{
			GapsFilled:     1,
			FilledElements: 20,
			TotalElements:  101,
			UnparsableIDs:  []string{"??"},
			SubsumedEntries: []resolve.SubsumedEntry{
				{ID: "3", Span: hypothesis.Span{Start: 10, End: 20}, Confidence: 0.4, WinnerID: "1"},
			},
		},
	}
}

func TestBuildSectionList(t *testing.T) {
	res := sampleResult()
	doc := hypothesis.Span{Start: 0, End: 100}
	outgoing := map[string][]string{"2": {"14", "63"}}

	list := BuildSectionList("doc-1", "Deathtrap Dungeon", doc, res, outgoing)

	if list.DocID != "doc-1" || list.RangeStart != 0 || list.RangeEnd != 100 {
		t.Fatalf("list header = %+v", list)
	}
	if len(list.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(list.Sections))
	}
	if got := list.Sections[0].Provenance; len(got) != 1 || !strings.HasPrefix(got[0], "mistral") {
		t.Fatalf("provenance = %v", got)
	}
	if !list.Sections[1].Filled || list.Sections[1].Confidence != 0 {
		t.Fatalf("filler = %+v", list.Sections[1])
	}
	if got := list.Sections[2].References; len(got) != 2 || got[0] != "14" {
		t.Fatalf("references = %v", got)
	}
}

func TestBuildDiagnostics(t *testing.T) {
	d := BuildDiagnostics(sampleResult().Diagnostics)

	if d.GapsFilled != 1 || d.FilledElements != 20 || d.TotalElements != 101 {
		t.Fatalf("diagnostics = %+v", d)
	}
	if len(d.SubsumedSections) != 1 || d.SubsumedSections[0].WinnerID != "1" {
		t.Fatalf("subsumed = %+v", d.SubsumedSections)
	}
	want := float64(20) / float64(101)
	if d.FillerFraction != want {
		t.Fatalf("filler fraction = %v, want %v", d.FillerFraction, want)
	}
}

func TestWriteSectionsJSON(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New failed: %v", err)
	}
	if err := h.EnsureOutputDir("doc-1"); err != nil {
		t.Fatalf("EnsureOutputDir failed: %v", err)
	}

	res := sampleResult()
	doc := hypothesis.Span{Start: 0, End: 100}
	list := BuildSectionList("doc-1", "", doc, res, nil)

	path, err := WriteSections(h, api.OutputFormatJSON, list)
	if err != nil {
		t.Fatalf("WriteSections failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	var back SectionList
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(back.Sections) != 3 || back.Sections[0].ID != "1" {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestWriteDiagnosticsYAML(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New failed: %v", err)
	}
	if err := h.EnsureOutputDir("doc-1"); err != nil {
		t.Fatalf("EnsureOutputDir failed: %v", err)
	}

	diag := BuildDiagnostics(sampleResult().Diagnostics)
	path, err := WriteDiagnostics(h, "doc-1", api.OutputFormatYAML, diag)
	if err != nil {
		t.Fatalf("WriteDiagnostics failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if !strings.Contains(string(data), "gaps_filled: 1") {
		t.Fatalf("unexpected YAML:\n%s", data)
	}
}

func TestWriteSectionsMissingDir(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New failed: %v", err)
	}

	list := SectionList{DocID: "ghost"}
	if _, err := WriteSections(h, api.OutputFormatJSON, list); err == nil {
		t.Fatal("expected error when output directory is missing")
	}
}
