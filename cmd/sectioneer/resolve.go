package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamebook-tools/sectioneer/internal/api"
	"github.com/gamebook-tools/sectioneer/internal/config"
	"github.com/gamebook-tools/sectioneer/internal/export"
	"github.com/gamebook-tools/sectioneer/internal/home"
	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
	"github.com/gamebook-tools/sectioneer/internal/ident"
	"github.com/gamebook-tools/sectioneer/internal/ingest"
	"github.com/gamebook-tools/sectioneer/internal/refs"
	"github.com/gamebook-tools/sectioneer/internal/resolve"
	"github.com/gamebook-tools/sectioneer/internal/source"
)

var (
	resolveRange  string
	resolveNoSave bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <doc-id>",
	Short: "Resolve hypothesis batches into a section partition",
	Long: `Resolve loads every hypothesis batch for the document, runs consensus
voting, deduplication, overlap resolution, and gap filling, and validates
that the result partitions the document's page range exactly. The section
list and run diagnostics are written to the document's output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID := args[0]

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		h, err := home.New(homeDirFlag)
		if err != nil {
			return err
		}

		docSpan, title, err := documentRange(h, docID)
		if err != nil {
			return err
		}

		sources, err := source.Discover(h.BatchesDir(docID))
		if err != nil {
			return err
		}
		for i, url := range cfg.ResolvedEndpoints() {
			sources = append(sources, source.NewHTTPSource(fmt.Sprintf("endpoint-%d", i), url, nil))
		}

		norm := ident.New(cfg.Engine.IDPrefixTokens...)
		loader := source.NewLoader(source.LoaderConfig{
			Collector: hypothesis.NewCollector(norm, slog.Default()),
			Workers:   cfg.Loader.Workers,
		})
		hyps, drops, err := loader.Load(cmd.Context(), sources)
		if err != nil {
			return err
		}

		res, err := resolve.Run(hyps, docSpan, cfg.EngineOptions())
		if err != nil {
			if diag, ok := violationDiagnostics(err, drops); ok {
				// Show the audit trail gathered before the halt.
				_ = api.Output(diag)
			}
			return err
		}
		res.Diagnostics.DroppedHypotheses.Merge(drops)

		outgoing := extractReferences(norm, hyps, res.Sections)

		list := export.BuildSectionList(docID, title, docSpan, res, outgoing)
		if !resolveNoSave {
			if err := h.EnsureOutputDir(docID); err != nil {
				return err
			}
			format := api.GetOutputFormat()
			if _, err := export.WriteSections(h, format, list); err != nil {
				return err
			}
			if _, err := export.WriteDiagnostics(h, docID, format, export.BuildDiagnostics(res.Diagnostics)); err != nil {
				return err
			}
		}

		return api.Output(list)
	},
}

func init() {
	resolveCmd.Flags().StringVar(
		&resolveRange, "range", "", "page range override as first-last (default: from ingest manifest)")
	resolveCmd.Flags().BoolVar(
		&resolveNoSave, "no-save", false, "print the result without writing output files")
}

// violationDiagnostics extracts the audit trail from a coverage violation,
// folding in the collection drop report so the halt output shows dropped
// records alongside the engine's own diagnostics.
func violationDiagnostics(err error, drops hypothesis.DropReport) (export.Diagnostics, bool) {
	var violation *resolve.CoverageViolation
	if !errors.As(err, &violation) || violation.Diagnostics == nil {
		return export.Diagnostics{}, false
	}
	diag := *violation.Diagnostics
	diag.DroppedHypotheses.Merge(drops)
	return export.BuildDiagnostics(diag), true
}

// documentRange determines the span the partition must cover: an explicit
// --range flag, else the range recorded at ingest.
func documentRange(h *home.Dir, docID string) (hypothesis.Span, string, error) {
	if resolveRange != "" {
		var first, last int
		if _, err := fmt.Sscanf(resolveRange, "%d-%d", &first, &last); err != nil {
			return hypothesis.Span{}, "", fmt.Errorf("invalid --range %q, want first-last: %w", resolveRange, err)
		}
		return hypothesis.Span{Start: first, End: last}, "", nil
	}

	manifest, err := ingest.Load(h, docID)
	if err != nil {
		return hypothesis.Span{}, "", err
	}
	return manifest.PageRange.Span(), manifest.Title, nil
}

// extractReferences scans each resolved section's supporting evidence text
// for outgoing cross-references. Targets outside the resolved set are kept
// and logged; a dangling reference is an upstream quality signal the
// downstream graph consumer needs to see.
func extractReferences(norm *ident.Normalizer, hyps []hypothesis.Hypothesis, sections []resolve.ResolvedSection) map[string][]string {
	evidence := make(map[string][]string)
	for _, hyp := range hyps {
		if hyp.Evidence == "" {
			continue
		}
		display := hyp.ID.String()
		evidence[display] = append(evidence[display], hyp.Evidence)
	}
	if len(evidence) == 0 {
		return nil
	}

	known := make(map[ident.CanonicalID]bool, len(sections))
	for _, s := range sections {
		known[s.ID] = true
	}

	extractor := refs.NewExtractor(norm)
	outgoing := make(map[string][]string)
	dangling := 0
	for _, s := range sections {
		if s.Filled {
			continue
		}
		texts := evidence[s.DisplayID]
		if len(texts) == 0 {
			continue
		}
		found := extractor.Extract(strings.Join(texts, "\n"))
		_, unknown := refs.Partition(found, func(id ident.CanonicalID) bool { return known[id] })
		dangling += len(unknown)
		for _, r := range found {
			outgoing[s.DisplayID] = append(outgoing[s.DisplayID], r.Display)
		}
	}
	if dangling > 0 {
		slog.Warn("references point outside the resolved section set", "count", dangling)
	}
	return outgoing
}
