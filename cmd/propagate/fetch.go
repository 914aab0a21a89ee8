// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/registry"
	"github.com/pdiddy/propagate/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch executive orders and download their PDFs",
	Long: `Fetch lists a president's executive orders from the Federal Register and
downloads each PDF into the PDF directory. Existing PDFs are kept unless
--force is given.`,
	RunE: runFetch,
}

func init() {
	addRegistryFlags(fetchCmd, "re-download PDFs that already exist")
	rootCmd.AddCommand(fetchCmd)
}

// addRegistryFlags registers the flags shared by fetch and summarize.
func addRegistryFlags(cmd *cobra.Command, forceHelp string) {
	cmd.Flags().String("president", registry.DefaultPresident(),
		fmt.Sprintf("president key, or %q for every president (%v)", registry.AllPresidents, registry.Keys()))
	cmd.Flags().Bool("force", false, forceHelp)
	cmd.Flags().String("start", registry.DefaultStartDate, "earliest signing date (MM/DD/YYYY)")
	cmd.Flags().String("end", registry.DefaultEndDate, "latest signing date (MM/DD/YYYY)")
}

func runFetch(cmd *cobra.Command, args []string) error {
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
	q := queryFromFlags(cmd)

	client := newHTTPClient(cfg.Registry.HTTPConfig)
	failed := 0
	for _, p := range presidents {
		q.President = p.Key
		_, result, err := fetchPresident(cmd.Context(), client, p, q, cfg.Registry, force, nil, os.Stdout)
		if err != nil {
			return err
		}
		failed += result.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d PDF download(s) failed", failed)
	}
	return nil
}

func queryFromFlags(cmd *cobra.Command) registry.Query {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	return registry.Query{StartDate: start, EndDate: end}
}

// fetchPresident lists, dedupes and downloads one president's orders. When
// keep is non-nil only the orders it accepts are downloaded. A fetch error
// is returned after the orders already listed were downloaded.
func fetchPresident(ctx context.Context, client *http.Client, p types.President, q registry.Query, cfg types.RegistryConfig, force bool, keep func(*types.ExecutiveOrder) bool, w io.Writer) ([]*types.ExecutiveOrder, registry.DownloadResult, error) {
	fmt.Fprintf(w, "Fetching executive orders for %s...\n", p.Name)
	orders, fetchErr := registry.FetchAll(ctx, client, q, cfg, logger, w)
	if fetchErr != nil {
		logger.Error("fetch aborted", zap.String("president", p.Key), zap.Int("fetched", len(orders)), zap.Error(fetchErr))
	}

	orders = registry.Dedupe(orders, logger)
	registry.AssignPresident(orders, p.Name)
	if keep != nil {
		kept := orders[:0]
		for _, o := range orders {
			if keep(o) {
				kept = append(kept, o)
			}
		}
		orders = kept
	}

	d := registry.NewDownloader(client, cfg, logger)
	result := d.DownloadAll(ctx, orders, force, w)
	return result.Orders, result, fetchErr
}
