package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSource reads one batch from a JSON envelope file on disk.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading the given batch file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the batch file name.
func (s *FileSource) Name() string {
	return filepath.Base(s.path)
}

// Fetch reads and decodes the batch envelope.
func (s *FileSource) Fetch(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", s.path, err)
	}
	b, err := DecodeBatch(data)
	if err != nil {
		return nil, fmt.Errorf("batch file %s: %w", s.path, err)
	}
	return b, nil
}

// LinesSource reads one batch from a JSONL file: one record per line, each
// carrying its own source tag. Engines that stream detections as they scan
// produce this shape.
type LinesSource struct {
	path string
}

// NewLinesSource returns a source reading the given JSONL file.
func NewLinesSource(path string) *LinesSource {
	return &LinesSource{path: path}
}

// Name returns the batch file name.
func (s *LinesSource) Name() string {
	return filepath.Base(s.path)
}

// Fetch reads the file and splits it into records. Blank lines are
// skipped; a malformed line is passed through so collection reports it as
// a drop rather than aborting the batch.
func (s *LinesSource) Fetch(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", s.path, err)
	}

	b := &Batch{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.Records = append(b.Records, json.RawMessage(line))
	}
	return b, nil
}

// Discover scans a batches directory and returns one source per batch
// file, ordered by file name so batch order (and therefore tie-breaking
// input order) is stable across runs. Recognized extensions: .json
// envelopes and .jsonl record streams.
func Discover(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batches directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".jsonl":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if filepath.Ext(name) == ".jsonl" {
			sources = append(sources, NewLinesSource(path))
		} else {
			sources = append(sources, NewFileSource(path))
		}
	}
	return sources, nil
}
