// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate consolidates every stored summary into the single
// eo.json document read by the presentation layer.
//
// Orders are sorted by publication date, newest first; orders published on
// the same day are sorted by executive order number, highest first.
package aggregate

import (
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

// Result holds counts from one build.
type Result struct {
	Included   int
	Duplicates int
	Failed     int
}

// Total returns the number of summary files read.
func (r Result) Total() int {
	return r.Included + r.Duplicates + r.Failed
}

// HasFailures reports whether any file was skipped as unreadable.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Build reads every summary in st, re-normalizes its dates, and returns the
// sorted aggregate. A file that does not decode, or whose registry dates do
// not parse, is skipped and counted failed. When two files carry the same
// order number the first in lexical order wins.
func Build(st *store.Store, now time.Time, log *zap.Logger) (*types.Aggregate, Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	paths, err := st.SummaryFiles()
	if err != nil {
		return nil, Result{}, err
	}

	var result Result
	seen := make(map[int]string, len(paths))
	orders := make([]*types.Summary, 0, len(paths))
	for _, path := range paths {
		s, err := store.ReadSummary(path)
		if err != nil {
			log.Warn("skipping unreadable summary", zap.String("path", path), zap.Error(err))
			result.Failed++
			continue
		}
		if err := normalize.Renormalize(s); err != nil {
			log.Warn("skipping summary with bad dates", zap.String("path", path), zap.Error(err))
			result.Failed++
			continue
		}
		if first, dup := seen[s.EONumber]; dup {
			log.Warn("duplicate order number", zap.Int("eo_number", s.EONumber),
				zap.String("kept", first), zap.String("dropped", path))
			result.Duplicates++
			continue
		}
		seen[s.EONumber] = path
		orders = append(orders, s)
		result.Included++
	}

	Sort(orders)
	return &types.Aggregate{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Count:       len(orders),
		Orders:      orders,
	}, result, nil
}

// Sort orders summaries by publication date descending, then by order
// number descending.
func Sort(orders []*types.Summary) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].PublicationDate.Time, orders[j].PublicationDate.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return orders[i].EONumber > orders[j].EONumber
	})
}

// Run builds the aggregate and writes it over the previous one.
func Run(st *store.Store, now time.Time, log *zap.Logger, w io.Writer) (Result, error) {
	agg, result, err := Build(st, now, log)
	if err != nil {
		return result, err
	}
	path, err := st.WriteAggregate(agg)
	if err != nil {
		return result, fmt.Errorf("writing aggregate: %w", err)
	}
	fmt.Fprintf(w, "Wrote %d orders to %s (%d duplicates, %d failed)\n",
		agg.Count, path, result.Duplicates, result.Failed)
	return result, nil
}
