// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch submits analysis requests as message batches, tracks their
// remote status, and reconciles downloaded results back to executive orders
// through correlation ids.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/analysis"
	"github.com/pdiddy/propagate/pkg/types"
)

// DefaultListLimit is the number of batches listed when no limit is given.
const DefaultListLimit = 20

var (
	// ErrNotReady reports a batch that has not ended.
	ErrNotReady = errors.New("batch has not ended")

	// ErrNoResults reports an ended batch without a results location.
	ErrNoResults = errors.New("batch has no results url")
)

// Tracker drives the batch lifecycle against a Client.
type Tracker struct {
	Client Client
	Log    *zap.Logger
}

func (t *Tracker) log() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}

// Submit creates the batch and appends its correlation ids to logPath
// before returning. A log failure is returned together with the created
// batch.
func (t *Tracker) Submit(ctx context.Context, items []analysis.BatchItem, logPath string) (types.BatchInfo, []string, error) {
	if len(items) == 0 {
		return types.BatchInfo{}, nil, fmt.Errorf("no requests to submit")
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CustomID)
	}

	info, err := t.Client.Create(ctx, items)
	if err != nil {
		return types.BatchInfo{}, nil, err
	}
	t.log().Info("batch created", zap.String("batch_id", info.ID), zap.Int("requests", len(ids)))

	if err := AppendCorrelationLog(logPath, info.ID, ids); err != nil {
		return info, ids, fmt.Errorf("batch %s created but correlation ids not saved: %w", info.ID, err)
	}
	return info, ids, nil
}

// Status retrieves the current state of a batch.
func (t *Tracker) Status(ctx context.Context, id string) (types.BatchInfo, error) {
	return t.Client.Get(ctx, id)
}

// List prints and returns recent batches.
func (t *Tracker) List(ctx context.Context, limit int, w io.Writer) ([]types.BatchInfo, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	infos, err := t.Client.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Recent batches (showing up to %d):\n\n", limit)
	for _, info := range infos {
		WriteStatus(w, info)
		fmt.Fprintln(w)
	}
	return infos, nil
}

// WriteStatus prints a batch with its per-outcome counts. Errored, canceled
// and expired counts appear only when non-zero.
func WriteStatus(w io.Writer, info types.BatchInfo) {
	fmt.Fprintf(w, "Batch ID: %s\n", info.ID)
	fmt.Fprintf(w, "  Status: %s\n", info.Status)
	if !info.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created: %s\n", info.CreatedAt.UTC().Format(time.RFC3339))
	}
	c := info.Counts
	fmt.Fprintf(w, "  Total requests: %d\n", c.Total())
	fmt.Fprintf(w, "    Processing: %d\n", c.Processing)
	fmt.Fprintf(w, "    Succeeded: %d\n", c.Succeeded)
	if c.Errored > 0 {
		fmt.Fprintf(w, "    Errored: %d\n", c.Errored)
	}
	if c.Canceled > 0 {
		fmt.Fprintf(w, "    Canceled: %d\n", c.Canceled)
	}
	if c.Expired > 0 {
		fmt.Fprintf(w, "    Expired: %d\n", c.Expired)
	}
	if info.ResultsURL != "" {
		fmt.Fprintf(w, "  Results URL: %s\n", info.ResultsURL)
	}
}

// ResultsPath returns where the results of batch id are stored under dir.
func ResultsPath(dir, id string) string {
	return filepath.Join(dir, "batch_"+id+".jsonl")
}

// Fetch downloads the results of an ended batch into dir and returns the
// file path. A batch that has not ended, or has no results location, is
// reported on w and returns ErrNotReady or ErrNoResults without touching
// dir.
func (t *Tracker) Fetch(ctx context.Context, id, dir string, w io.Writer) (string, error) {
	info, err := t.Client.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !info.Status.Terminal() {
		fmt.Fprintf(w, "Batch is not complete. Status: %s\n", info.Status)
		return "", ErrNotReady
	}
	if info.ResultsURL == "" {
		fmt.Fprintln(w, "No results URL available for this batch")
		return "", ErrNoResults
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := ResultsPath(dir, id)
	fmt.Fprintln(w, "Downloading batch results...")
	if err := t.Client.DownloadResults(ctx, info, path); err != nil {
		return "", err
	}
	fmt.Fprintf(w, "Downloaded to %s\n", path)
	return path, nil
}

// IsNoop reports whether err is one of the "nothing to fetch yet" results
// of Fetch.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrNoResults)
}
