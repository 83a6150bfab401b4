// Package home manages the sectioneer home directory layout: where scan
// PDFs, hypothesis batches, and resolved outputs live for each document.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the sectioneer home directory.
	DefaultDirName = ".sectioneer"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the sectioneer home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.sectioneer).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// EnsureExists creates the home directory tree if it does not exist.
func (d *Dir) EnsureExists() error {
	for _, p := range []string{d.BatchesRoot(), d.OutputRoot(), d.OriginalsRoot()} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
	}
	return nil
}

// BatchesRoot returns the directory holding hypothesis batches for all
// documents.
func (d *Dir) BatchesRoot() string {
	return filepath.Join(d.path, "batches")
}

// BatchesDir returns the hypothesis batch directory for a document.
// Upstream detection passes drop one batch file per page window here.
func (d *Dir) BatchesDir(docID string) string {
	return filepath.Join(d.BatchesRoot(), docID)
}

// EnsureBatchesDir creates the batch directory for a document.
func (d *Dir) EnsureBatchesDir(docID string) error {
	return os.MkdirAll(d.BatchesDir(docID), 0o755)
}

// OutputRoot returns the directory holding resolved outputs for all
// documents.
func (d *Dir) OutputRoot() string {
	return filepath.Join(d.path, "output")
}

// OutputDir returns the resolved-output directory for a document.
func (d *Dir) OutputDir(docID string) string {
	return filepath.Join(d.OutputRoot(), docID)
}

// SectionsPath returns the path of the resolved section list for a
// document in the given format ("json" or "yaml").
func (d *Dir) SectionsPath(docID, format string) string {
	return filepath.Join(d.OutputDir(docID), fmt.Sprintf("sections.%s", format))
}

// DiagnosticsPath returns the path of the run diagnostics for a document.
func (d *Dir) DiagnosticsPath(docID, format string) string {
	return filepath.Join(d.OutputDir(docID), fmt.Sprintf("diagnostics.%s", format))
}

// EnsureOutputDir creates the output directory for a document.
func (d *Dir) EnsureOutputDir(docID string) error {
	return os.MkdirAll(d.OutputDir(docID), 0o755)
}

// OriginalsRoot returns the directory holding original scan PDFs.
func (d *Dir) OriginalsRoot() string {
	return filepath.Join(d.path, "originals")
}

// OriginalsDir returns the directory for a document's original scan PDFs.
func (d *Dir) OriginalsDir(docID string) string {
	return filepath.Join(d.OriginalsRoot(), docID)
}

// ManifestPath returns the path of a document's ingest manifest, the
// record of its title and physical page range.
func (d *Dir) ManifestPath(docID string) string {
	return filepath.Join(d.OriginalsDir(docID), "manifest.json")
}

// EnsureOriginalsDir creates the originals directory for a document.
func (d *Dir) EnsureOriginalsDir(docID string) error {
	return os.MkdirAll(d.OriginalsDir(docID), 0o755)
}
