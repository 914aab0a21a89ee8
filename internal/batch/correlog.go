// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const batchHeaderPrefix = "# Batch ID:"

// LogPath returns the correlation log for a president key under dir.
func LogPath(dir, presidentKey string) string {
	return filepath.Join(dir, "request_ids_"+presidentKey+".txt")
}

// AppendCorrelationLog appends a batch header and one id per line.
func AppendCorrelationLog(path, batchID string, ids []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", batchHeaderPrefix, batchID)
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadCorrelationLog parses a correlation log into ids per batch id. Lines
// before the first header are ignored. A header without ids maps to an
// empty, non-nil slice.
func ReadCorrelationLog(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	batches := make(map[string][]string)
	current := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, batchHeaderPrefix):
			current = strings.TrimSpace(strings.TrimPrefix(line, batchHeaderPrefix))
			if _, ok := batches[current]; !ok {
				batches[current] = []string{}
			}
		case current != "":
			batches[current] = append(batches[current], line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return batches, nil
}

// FindBatch looks a batch id up in every request_ids_*.txt log under dir.
func FindBatch(dir, batchID string) (ids []string, found bool, err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "request_ids_*.txt"))
	if err != nil {
		return nil, false, err
	}
	for _, path := range paths {
		batches, err := ReadCorrelationLog(path)
		if err != nil {
			return nil, false, err
		}
		if ids, ok := batches[batchID]; ok {
			return ids, true, nil
		}
	}
	return nil, false, nil
}
