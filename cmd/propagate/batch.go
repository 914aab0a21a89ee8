// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/batch"
	"github.com/pdiddy/propagate/internal/registry"
	"github.com/pdiddy/propagate/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Track and collect message batches",
	Long: `Batch manages message batches submitted by "summarize --batch". Use
subcommands to list batches, check one batch, or download and record its
results.`,
}

// --- list subcommand ---

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent batches",
	Args:  cobra.NoArgs,
	RunE:  runBatchList,
}

func runBatchList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	_, err = tracker.List(cmd.Context(), limit, os.Stdout)
	return err
}

// --- status subcommand ---

var batchStatusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Show the status and request counts of a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchStatus,
}

func runBatchStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}
	info, err := tracker.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	batch.WriteStatus(os.Stdout, info)
	return nil
}

// --- process subcommand ---

var batchProcessCmd = &cobra.Command{
	Use:   "process <batch-id>",
	Short: "Download the results of an ended batch and record them",
	Long: `Process downloads the results of an ended batch to
<results_dir>/batch_<id>.jsonl and records one summary per successful
request. A batch that is still running is reported and left alone.

Result lines are matched to orders through their correlation id and the
metadata sidecars written by fetch. Orders that already have a summary are
skipped unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchProcess,
}

func runBatchProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}
	id := args[0]

	path, err := tracker.Fetch(cmd.Context(), id, cfg.Batch.ResultsDir, os.Stdout)
	if batch.IsNoop(err) {
		return nil
	}
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	return reconcile(cmd, cfg, path, id, force)
}

// --- reconcile subcommand ---

var batchReconcileCmd = &cobra.Command{
	Use:   "reconcile <results-file>",
	Short: "Record summaries from a results file already on disk",
	Long: `Reconcile records the summaries of a previously downloaded results
file without contacting the API. With --batch-id the file is checked
against the correlation ids logged at submission.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchReconcile,
}

func runBatchReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	id, _ := cmd.Flags().GetString("batch-id")
	if id == "" {
		id = batchIDFromPath(args[0])
	}
	return reconcile(cmd, cfg, args[0], id, force)
}

// batchIDFromPath recovers the batch id from a batch_<id>.jsonl name.
func batchIDFromPath(path string) string {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "batch_") || !strings.HasSuffix(name, ".jsonl") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, "batch_"), ".jsonl")
}

// --- shared helpers ---

// expectedIDs returns the correlation ids logged for batchID, or nil when
// the batch was not logged. A logged batch always yields a non-nil slice.
func expectedIDs(dir, batchID string) []string {
	if batchID == "" {
		return nil
	}
	ids, found, err := batch.FindBatch(dir, batchID)
	if err != nil {
		logger.Warn("reading correlation logs", zap.Error(err))
	}
	if !found {
		logger.Debug("batch not found in correlation logs", zap.String("batch_id", batchID))
		return nil
	}
	return append([]string{}, ids...)
}

func reconcile(cmd *cobra.Command, cfg types.Config, path, batchID string, force bool) error {
	expected := expectedIDs(cfg.Batch.RequestLogDir, batchID)

	r := &batch.Reconciler{
		Records:  registry.NewMetadataStore(cfg.Registry.PDFDir),
		Recorder: newRecorder(cfg),
		Log:      logger,
	}
	summary, err := r.Process(cmd.Context(), path, force, expected, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d result(s) failed to record", summary.Failed)
	}
	return nil
}

func init() {
	batchListCmd.Flags().Int("limit", batch.DefaultListLimit, "maximum number of batches to list")

	batchProcessCmd.Flags().Bool("force", false, "overwrite existing summaries")

	batchReconcileCmd.Flags().Bool("force", false, "overwrite existing summaries")
	batchReconcileCmd.Flags().String("batch-id", "", "batch id used to look up the logged correlation ids")

	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchStatusCmd)
	batchCmd.AddCommand(batchProcessCmd)
	batchCmd.AddCommand(batchReconcileCmd)

	rootCmd.AddCommand(batchCmd)
}
