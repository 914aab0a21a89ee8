// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/propagate/internal/analysis"
	"github.com/pdiddy/propagate/internal/batch"
	"github.com/pdiddy/propagate/internal/registry"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Fetch orders and summarize them with Claude",
	Long: `Summarize fetches and downloads a president's executive orders, then asks
Claude for an analysis of every order that has no summary yet.

By default each order is sent on its own and the command waits for the
answer. With --batch the orders are submitted as one message batch and the
command returns immediately; the correlation ids are appended to
request_ids_<president>.txt and results are collected later with
"propagate batch process <batch-id>".

--eo limits the run to a single order and implies --force.`,
	RunE: runSummarize,
}

func init() {
	addRegistryFlags(summarizeCmd, "re-download PDFs and re-summarize orders that already have a summary")
	summarizeCmd.Flags().Bool("batch", false, "submit as a message batch instead of waiting per order")
	summarizeCmd.Flags().Int("eo", 0, "summarize only this executive order number")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	key, _ := cmd.Flags().GetString("president")
	presidents, err := registry.LookupPresident(key)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	useBatch, _ := cmd.Flags().GetBool("batch")
	eo, _ := cmd.Flags().GetInt("eo")
	if eo > 0 {
		force = true
	}

	httpClient := newHTTPClient(cfg.Registry.HTTPConfig)
	api, err := newClaudeClient(cfg, httpClient)
	if err != nil {
		return err
	}
	recorder := newRecorder(cfg)
	q := queryFromFlags(cmd)
	w := os.Stdout

	failed := 0
	for _, p := range presidents {
		q.President = p.Key
		orders := collectOrders(cmd.Context(), httpClient, p, q, cfg.Registry, recorder.Store, eo, force, w)
		if len(orders) == 0 {
			fmt.Fprintf(w, "No orders to process for %s\n", p.Name)
			continue
		}

		if useBatch {
			tracker := &batch.Tracker{
				Client: &batch.ClaudeClient{API: api, HTTP: httpClient, APIKey: cfg.Batch.APIKey},
				Log:    logger,
			}
			if err := submitBatch(cmd, tracker, p, orders, cfg, w); err != nil {
				return err
			}
			continue
		}

		pipeline := &analysis.Pipeline{
			Backend:  &analysis.ClaudeBackend{Client: api},
			Recorder: recorder,
			Config:   cfg.Batch.AIConfig,
			Log:      logger,
		}
		outcome, err := pipeline.Summarize(cmd.Context(), orders, force, w)
		if err != nil {
			return err
		}
		failed += outcome.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d order(s) failed to summarize", failed)
	}
	return nil
}

// collectOrders fetches and downloads the orders to summarize. Force
// re-downloads their PDFs as well. A fetch error is reported and the orders
// listed before it are still returned.
func collectOrders(ctx context.Context, client *http.Client, p types.President, q registry.Query, cfg types.RegistryConfig, st *store.Store, eo int, force bool, w io.Writer) []*types.ExecutiveOrder {
	orders, _, err := fetchPresident(ctx, client, p, q, cfg, force, selectOrders(st, eo, force), w)
	if err != nil {
		fmt.Fprintf(w, "Error fetching data: %v\n", err)
	}
	fmt.Fprintf(w, "Found %d orders to process for %s\n", len(orders), p.Name)
	return orders
}

// selectOrders keeps only order eo when it is set, and otherwise drops
// orders that already have a summary unless force is set.
func selectOrders(st *store.Store, eo int, force bool) func(*types.ExecutiveOrder) bool {
	return func(o *types.ExecutiveOrder) bool {
		if eo > 0 {
			return int(o.Number) == eo
		}
		return force || !st.HasSummary(int(o.Number))
	}
}

func submitBatch(cmd *cobra.Command, tracker *batch.Tracker, p types.President, orders []*types.ExecutiveOrder, cfg types.Config, w io.Writer) error {
	items, err := analysis.BuildBatch(orders, cfg.Batch.AIConfig, analysis.NewCorrelationSuffix(), logger)
	if err != nil {
		return err
	}
	logPath := batch.LogPath(cfg.Batch.RequestLogDir, p.Key)

	fmt.Fprintln(w, "Creating batch...")
	info, ids, err := tracker.Submit(cmd.Context(), items, logPath)
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nBATCH CREATED SUCCESSFULLY\n", rule)
	fmt.Fprintf(w, "Batch ID: %s\n", info.ID)
	fmt.Fprintf(w, "President: %s\n", p.Name)
	fmt.Fprintf(w, "Orders: %d\n%s\n", len(ids), rule)
	fmt.Fprintf(w, "\nTo check status: propagate batch status %s\n", info.ID)
	fmt.Fprintf(w, "To process when ready: propagate batch process %s\n", info.ID)
	fmt.Fprintf(w, "\nSaved request ids to %s\n", logPath)
	return nil
}
