// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/analysis"
	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/pkg/types"
)

// RecordLookup finds the registry record of an order number.
type RecordLookup interface {
	Lookup(number int) (*types.ExecutiveOrder, error)
}

// ReconcileSummary holds counts from one reconciliation pass.
type ReconcileSummary struct {
	Recorded int
	Skipped  int
	Failed   int
}

// Total returns the number of result lines considered.
func (s ReconcileSummary) Total() int {
	return s.Recorded + s.Skipped + s.Failed
}

// HasFailures reports whether any line failed.
func (s ReconcileSummary) HasFailures() bool {
	return s.Failed > 0
}

// Reconciler maps result lines back to orders and records their answers.
type Reconciler struct {
	Records  RecordLookup
	Recorder *normalize.Recorder
	Log      *zap.Logger
}

// Process reconciles the results file at path. Lines are independent: an
// unknown id, a missing record, a non-success outcome or a malformed answer
// fails that line and processing continues. Orders that already have a
// summary are skipped unless force is set. When expected is non-nil it holds
// the ids logged at submission, possibly none, and ids missing on either
// side are warned about.
func (r *Reconciler) Process(ctx context.Context, path string, force bool, expected []string, w io.Writer) (ReconcileSummary, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()

	lines, err := ReadResults(f)
	if err != nil {
		return ReconcileSummary{}, err
	}

	if expected != nil {
		warnMismatch(log, expected, lines)
	}

	var sum ReconcileSummary
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		switch r.processLine(line, force, log, w) {
		case lineRecorded:
			sum.Recorded++
		case lineSkipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}

	fmt.Fprintf(w, "\nReconcile: %d recorded, %d skipped, %d failed (total: %d)\n",
		sum.Recorded, sum.Skipped, sum.Failed, sum.Total())
	return sum, nil
}

type lineOutcome int

const (
	lineFailed lineOutcome = iota
	lineRecorded
	lineSkipped
)

func (r *Reconciler) processLine(line ResultLine, force bool, log *zap.Logger, w io.Writer) lineOutcome {
	if line.Err != nil {
		fmt.Fprintf(w, "failed:  %v\n", line.Err)
		log.Warn("undecodable result line", zap.Int("line", line.Line), zap.Error(line.Err))
		return lineFailed
	}

	number, _, err := analysis.ParseCorrelationID(line.CustomID)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", line.CustomID, err)
		return lineFailed
	}

	if line.Type != types.ResultSucceeded {
		fmt.Fprintf(w, "failed:  %s (%s)\n", line.CustomID, line.Type)
		log.Warn("request did not succeed", zap.String("custom_id", line.CustomID),
			zap.String("type", string(line.Type)), zap.String("error", line.Error))
		return lineFailed
	}

	if !force && r.Recorder.Store.HasSummary(number) {
		fmt.Fprintf(w, "skipped: EO-%d (summary exists)\n", number)
		return lineSkipped
	}

	order, err := r.Records.Lookup(number)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (no record for EO-%d: %v)\n", line.CustomID, number, err)
		return lineFailed
	}

	if _, err := r.Recorder.Record(order, line.Text); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", line.CustomID, err)
		log.Error("recording answer", zap.String("custom_id", line.CustomID),
			zap.String("raw_path", r.Recorder.Store.RawPath(number)), zap.Error(err))
		return lineFailed
	}
	fmt.Fprintf(w, "recorded: EO-%d\n", number)
	return lineRecorded
}

// warnMismatch logs ids present in only one of the correlation log and the
// results.
func warnMismatch(log *zap.Logger, expected []string, lines []ResultLine) {
	want := make(map[string]bool, len(expected))
	for _, id := range expected {
		want[id] = true
	}
	got := make(map[string]bool, len(lines))
	var unexpected []string
	for _, line := range lines {
		if line.CustomID == "" {
			continue
		}
		got[line.CustomID] = true
		if !want[line.CustomID] {
			unexpected = append(unexpected, line.CustomID)
		}
	}
	var missing []string
	for id := range want {
		if !got[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	if len(unexpected) > 0 {
		log.Warn("results not in correlation log", zap.Strings("custom_ids", unexpected))
	}
	if len(missing) > 0 {
		log.Warn("logged requests without a result", zap.Strings("custom_ids", missing))
	}
}
