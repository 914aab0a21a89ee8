// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/propagate/internal/index"
	"github.com/pdiddy/propagate/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index summaries into the local query database",
	Long: `Index reads every summary file into a SQLite database under
<summaries_dir>/index/. Files unchanged since the last run are skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := index.NewStore(cfg.Batch.SummariesDir)
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := db.Ingest(cmd.Context(), store.New(cfg.Batch.SummariesDir), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d summary file(s) failed indexing", summary.Failed)
	}
	return nil
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search indexed summaries",
	Long: `Query searches the index built by "propagate index". Filters combine:
--president matches the display name, --category takes axis=value and may
repeat, and free text matches the title, summary, purpose or deeper dive.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := queryOptionsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	db, err := index.NewStore(cfg.Batch.SummariesDir)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, results, jsonOutput)
}

func queryOptionsFromFlags(cmd *cobra.Command, args []string) (index.QueryOptions, error) {
	president, _ := cmd.Flags().GetString("president")
	text, _ := cmd.Flags().GetString("text")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	raw, _ := cmd.Flags().GetStringArray("category")

	opts := index.QueryOptions{President: president, Text: text, MaxResults: maxResults}
	for _, s := range raw {
		f, err := index.ParseCategoryFilter(s)
		if err != nil {
			return index.QueryOptions{}, err
		}
		opts.Categories = append(opts.Categories, f)
	}
	return opts, nil
}

func formatQueryOutput(w io.Writer, results []index.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-6s  %-10s  %-60s  %s\n", "EO", "Published", "Title", "Summary")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range results {
		fmt.Fprintf(w, "%-6d  %-10s  %-60s  %s\n", r.EONumber, r.PublicationDate, truncate(r.Title, 60), truncate(r.Summary, 40))
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n characters, ending in "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	queryCmd.Flags().String("president", "", "filter by president display name")
	queryCmd.Flags().StringArray("category", nil, "filter by category as axis=value (repeatable)")
	queryCmd.Flags().String("text", "", "free-text filter")
	queryCmd.Flags().Int("max-results", 0, "maximum results (0 = use default)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}
