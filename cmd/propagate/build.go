// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/propagate/internal/aggregate"
	"github.com/pdiddy/propagate/internal/store"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build eo.json from every summary",
	Long: `Build reads every EO-<number>.json summary, re-normalizes its dates,
drops duplicate order numbers, and writes the sorted collection to eo.json
in the summaries directory. Unreadable summaries are logged and skipped.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result, err := aggregate.Run(store.New(cfg.Batch.SummariesDir), time.Now(), logger, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d summary file(s) could not be read", result.Failed)
	}
	return nil
}
