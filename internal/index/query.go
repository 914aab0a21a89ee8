// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/propagate/pkg/types"
)

// CategoryFilter matches orders whose axis holds value.
type CategoryFilter struct {
	Axis  types.Category
	Value string
}

// ParseCategoryFilter parses "axis=value".
func ParseCategoryFilter(s string) (CategoryFilter, error) {
	axis, value, ok := strings.Cut(s, "=")
	axis, value = strings.TrimSpace(axis), strings.TrimSpace(value)
	if !ok || axis == "" || value == "" {
		return CategoryFilter{}, fmt.Errorf("category filter %q is not axis=value", s)
	}
	for _, a := range types.CategoryAxes {
		if string(a.Name) == axis {
			return CategoryFilter{Axis: a.Name, Value: value}, nil
		}
	}
	return CategoryFilter{}, fmt.Errorf("unknown category axis %q", axis)
}

// QueryOptions holds the filters of a query. Filters combine with AND.
type QueryOptions struct {
	President  string
	Categories []CategoryFilter

	// Text matches a substring of the title, summary, purpose or deeper dive.
	Text string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Result is one matching order.
type Result struct {
	EONumber        int               `json:"eo_number"`
	Title           string            `json:"title"`
	President       string            `json:"president,omitempty"`
	PublicationDate string            `json:"publication_date"`
	Summary         string            `json:"summary"`
	OriginalURL     string            `json:"original_url"`
	Categories      map[string]string `json:"categories"`
}

// Query returns matching orders, newest publication first.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT o.eo_number, o.title, o.president, o.publication_date, o.summary, o.original_url
		FROM orders o
		WHERE 1=1`)

	if opts.President != "" {
		qb.WriteString(` AND o.president = ?`)
		args = append(args, opts.President)
	}
	for _, c := range opts.Categories {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM categories c
			WHERE c.eo_number = o.eo_number AND c.axis = ? AND c.value = ? COLLATE NOCASE)`)
		args = append(args, string(c.Axis), c.Value)
	}
	if opts.Text != "" {
		qb.WriteString(` AND (o.title LIKE ? OR o.summary LIKE ? OR o.purpose LIKE ? OR o.deeper_dive LIKE ?)`)
		like := "%" + opts.Text + "%"
		args = append(args, like, like, like, like)
	}
	qb.WriteString(` ORDER BY o.publication_date DESC, o.eo_number DESC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.EONumber, &r.Title, &r.President, &r.PublicationDate, &r.Summary, &r.OriginalURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range results {
		cats, err := s.categories(ctx, results[i].EONumber)
		if err != nil {
			return nil, err
		}
		results[i].Categories = cats
	}
	return results, nil
}

func (s *Store) categories(ctx context.Context, number int) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT axis, value FROM categories WHERE eo_number = ?`, number)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	cats := make(map[string]string)
	for rows.Next() {
		var axis, value string
		if err := rows.Scan(&axis, &value); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats[axis] = value
	}
	return cats, rows.Err()
}
