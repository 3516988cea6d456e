package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the pipeline file system paths.
// This is the single source of truth for file locations: raw source files
// are read from RawDir, processed artifacts are written to ProcessedDir.
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	LogsDir      string

	// ClassifiersFile is the externally maintained country classification CSV
	ClassifiersFile string

	// Well-known output artifacts
	NexusParquet string
	PefaParquet  string
	TaxWBParquet string
}

// NewPaths derives the full path set from the configured directories.
// RawDir and ProcessedDir default to raw/ and processed/ under BaseDir.
func NewPaths(cfg PathsConfig) *Paths {
	base := cfg.BaseDir
	if base == "" {
		base = "data"
	}

	raw := cfg.RawDir
	if raw == "" {
		raw = filepath.Join(base, "raw")
	}
	processed := cfg.ProcessedDir
	if processed == "" {
		processed = filepath.Join(base, "processed")
	}
	logs := cfg.LogsDir
	if logs == "" {
		logs = "logs"
	}

	classifiers := cfg.ClassifiersFile
	if !filepath.IsAbs(classifiers) {
		classifiers = filepath.Join(raw, classifiers)
	}

	return &Paths{
		BaseDir:         base,
		RawDir:          raw,
		ProcessedDir:    processed,
		LogsDir:         logs,
		ClassifiersFile: classifiers,
		NexusParquet:    filepath.Join(processed, "nexus.parquet"),
		PefaParquet:     filepath.Join(processed, "pefa.parquet"),
		TaxWBParquet:    filepath.Join(processed, "taxwb.parquet"),
	}
}

// EnsureDirectories creates the output directories if they do not exist.
// The raw data directory is never created: its absence means the caller
// pointed the pipeline at the wrong place.
func (p *Paths) EnsureDirectories() error {
	if _, err := os.Stat(p.RawDir); err != nil {
		return fmt.Errorf("raw data directory not accessible: %w", err)
	}
	for _, dir := range []string{p.ProcessedDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RawFile returns the path of a raw source file
func (p *Paths) RawFile(name string) string {
	return filepath.Join(p.RawDir, name)
}

// GetLogPath returns the path for a log file in the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
