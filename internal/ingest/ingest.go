// Package ingest registers scanned gamebook documents from PDF files and
// establishes the page range that boundary resolution partitions.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/gamebook-tools/sectioneer/internal/home"
	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
)

// Request contains the parameters for registering a scanned document.
type Request struct {
	PDFPaths []string     // PDF file paths (will be sorted by numeric suffix)
	Title    string       // Document title (optional, derived from filename if empty)
	Logger   *slog.Logger // Optional logger for progress updates
}

// Result contains the result of a successful ingest operation.
type Result struct {
	DocID     string               `json:"doc_id" yaml:"doc_id"`
	Title     string               `json:"title" yaml:"title"`
	PageRange hypothesis.PageRange `json:"page_range" yaml:"page_range"`
}

// Ingest counts pages across the scan PDFs, copies them into the home
// layout, and prepares the batch and output directories for the document.
// The returned PageRange is the fixed document range every later
// resolution run partitions.
func Ingest(ctx context.Context, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.PDFPaths) == 0 {
		return nil, fmt.Errorf("no PDF paths provided")
	}
	for _, p := range req.PDFPaths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("PDF not found: %s", p)
		}
	}

	// Sort PDFs by numeric suffix (e.g., book-1.pdf, book-2.pdf)
	sortedPaths := sortPDFsByNumber(req.PDFPaths)
	log.Info("starting ingest", "pdfs", len(sortedPaths), "title", req.Title)

	title := req.Title
	if title == "" {
		title = deriveTitle(sortedPaths[0])
	}

	docID := uuid.New().String()
	if err := homeDir.EnsureOriginalsDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create originals directory: %w", err)
	}

	pageCount := 0
	for i, pdfPath := range sortedPaths {
		if err := ctx.Err(); err != nil {
			os.RemoveAll(homeDir.OriginalsDir(docID))
			return nil, err
		}

		count, err := countPages(pdfPath)
		if err != nil {
			os.RemoveAll(homeDir.OriginalsDir(docID))
			return nil, fmt.Errorf("failed to count pages in %s: %w", pdfPath, err)
		}
		if err := copyOriginal(pdfPath, homeDir.OriginalsDir(docID), i); err != nil {
			os.RemoveAll(homeDir.OriginalsDir(docID))
			return nil, err
		}
		log.Debug("counted PDF pages", "file", filepath.Base(pdfPath), "pages", count, "total", pageCount+count)
		pageCount += count
	}

	if pageCount == 0 {
		os.RemoveAll(homeDir.OriginalsDir(docID))
		return nil, fmt.Errorf("no pages found in PDFs")
	}

	if err := homeDir.EnsureBatchesDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create batches directory: %w", err)
	}
	if err := homeDir.EnsureOutputDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{
		DocID:     docID,
		Title:     title,
		PageRange: hypothesis.PageRange{FirstPage: 1, LastPage: pageCount},
	}
	if err := writeManifest(homeDir, res); err != nil {
		return nil, err
	}

	log.Info("ingest complete", "doc_id", docID, "title", title, "pages", pageCount)
	return res, nil
}

// writeManifest records the document's identity and page range so later
// resolve runs know the range to partition.
func writeManifest(homeDir *home.Dir, res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := homeDir.ManifestPath(res.DocID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a document's ingest manifest back.
func Load(homeDir *home.Dir, docID string) (*Result, error) {
	data, err := os.ReadFile(homeDir.ManifestPath(docID))
	if err != nil {
		return nil, fmt.Errorf("document %s is not ingested: %w", docID, err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("corrupt manifest for %s: %w", docID, err)
	}
	return &res, nil
}

// countPages returns the page count of a PDF.
func countPages(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return api.PageCount(f, nil)
}

// copyOriginal copies a scan PDF into the document's originals directory,
// numbered by its position in the sorted part order.
func copyOriginal(pdfPath, dir string, part int) error {
	src, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", pdfPath, err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, fmt.Sprintf("part_%02d.pdf", part+1))
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %s: %w", pdfPath, err)
	}
	return nil
}

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["book-2.pdf", "book-1.pdf", "book-10.pdf"] -> ["book-1.pdf", "book-2.pdf", "book-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	re := regexp.MustCompile(`-(\d+)\.pdf$`)

	sort.Slice(sorted, func(i, j int) bool {
		mi := re.FindStringSubmatch(sorted[i])
		mj := re.FindStringSubmatch(sorted[j])

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		// Both without numbers: alphabetical
		return sorted[i] < sorted[j]
	})

	return sorted
}

// deriveTitle derives a document title from a PDF filename: strips the
// extension and part suffix, replaces separators with spaces.
func deriveTitle(pdfPath string) string {
	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	name = regexp.MustCompile(`-\d+$`).ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.TrimSpace(name)
}
