// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the flat-directory record store of per-order JSON files.
//
// Each executive order owns two files named by its number: EO-<n>.json holds
// the normalized summary and EO-<n>-claude.json the raw model answer. The
// existence of the summary file is the only "already processed" signal.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/propagate/pkg/types"
)

const (
	// AggregateFile is the consolidated document written next to the records.
	AggregateFile = "eo.json"

	// rawMarker identifies raw model answer files by name substring.
	rawMarker = "-claude"
)

// Store reads and writes records under one directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// SummaryPath returns the normalized summary path for an order number.
func (s *Store) SummaryPath(number int) string {
	return filepath.Join(s.dir, fmt.Sprintf("EO-%d.json", number))
}

// RawPath returns the raw model answer path for an order number.
func (s *Store) RawPath(number int) string {
	return filepath.Join(s.dir, fmt.Sprintf("EO-%d%s.json", number, rawMarker))
}

// AggregatePath returns the consolidated document path.
func (s *Store) AggregatePath() string {
	return filepath.Join(s.dir, AggregateFile)
}

// HasSummary reports whether a normalized summary exists for number.
func (s *Store) HasSummary(number int) bool {
	_, err := os.Stat(s.SummaryPath(number))
	return err == nil
}

// WriteRaw stores the model answer verbatim, or pretty-printed when it is a
// JSON value.
func (s *Store) WriteRaw(number int, text string) (string, error) {
	data := []byte(text)
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			data = pretty
		}
	}
	path := s.RawPath(number)
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSummary stores a normalized summary.
func (s *Store) WriteSummary(summary *types.Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary %d: %w", summary.EONumber, err)
	}
	path := s.SummaryPath(summary.EONumber)
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAggregate stores the consolidated document.
func (s *Store) WriteAggregate(agg *types.Aggregate) (string, error) {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling aggregate: %w", err)
	}
	path := s.AggregatePath()
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ReadSummary decodes one summary file. Date fields come back as raw
// variants; callers re-normalize them.
func ReadSummary(path string) (*types.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var summary types.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &summary, nil
}

// SummaryFiles lists normalized summary files in lexical order, skipping the
// aggregate and raw model answers.
func (s *Store) SummaryFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory %s: %w", s.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsSummaryFile(name) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsSummaryFile reports whether a file name denotes a normalized summary.
func IsSummaryFile(name string) bool {
	if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
		return false
	}
	if name == AggregateFile || strings.Contains(name, rawMarker) {
		return false
	}
	return true
}

func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
