// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry fetches executive orders from the Federal Register
// documents API and downloads their PDFs.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/httputil"
	"github.com/pdiddy/propagate/pkg/types"
)

// documentsURL is the Federal Register documents endpoint. Declared as a var
// so tests can substitute an httptest server.
var documentsURL = "https://www.federalregister.gov/api/v1/documents.json"

const (
	// DefaultStartDate and DefaultEndDate bound the signing-date window
	// (MM/DD/YYYY, as the API expects).
	DefaultStartDate = "01/20/2000"
	DefaultEndDate   = "12/31/2030"

	defaultPerPage = 1000
)

// Query selects the orders of one president within a signing-date window.
type Query struct {
	President string
	StartDate string
	EndDate   string
}

// documentsPage is one page of the documents API response.
type documentsPage struct {
	Count       int                     `json:"count"`
	Results     []*types.ExecutiveOrder `json:"results"`
	NextPageURL string                  `json:"next_page_url"`
}

// queryParams builds the first-page query string.
func queryParams(q Query, perPage int) url.Values {
	start, end := q.StartDate, q.EndDate
	if start == "" {
		start = DefaultStartDate
	}
	if end == "" {
		end = DefaultEndDate
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	params := url.Values{
		"conditions[correction]":                 {"0"},
		"conditions[president]":                  {q.President},
		"conditions[presidential_document_type]": {"executive_order"},
		"conditions[signing_date][gte]":          {start},
		"conditions[signing_date][lte]":          {end},
		"conditions[type][]":                     {"PRESDOCU"},
		"fields[]":                               types.OrderFields,
		"include_pre_1994_docs":                  {"true"},
		"order":                                  {"executive_order"},
		"per_page":                               {strconv.Itoa(perPage)},
	}
	return params
}

// FetchAll pages through the documents API and returns every order listed
// for the query. Pages after the first are fetched from next_page_url as
// given. A page URL is never fetched twice. On a transport or status error
// the orders fetched so far are returned together with the error.
func FetchAll(ctx context.Context, client *http.Client, q Query, cfg types.RegistryConfig, log *zap.Logger, w io.Writer) ([]*types.ExecutiveOrder, error) {
	if q.President == "" {
		return nil, fmt.Errorf("president key is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	header := http.Header{"Accept": {"application/json"}}
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}

	var orders []*types.ExecutiveOrder
	visited := make(map[string]bool)
	base := documentsURL
	if cfg.DocumentsURL != "" {
		base = cfg.DocumentsURL
	}
	next := base + "?" + queryParams(q, cfg.PerPage).Encode()

	for page := 1; next != ""; page++ {
		if visited[next] {
			log.Warn("pagination revisits a page, stopping",
				zap.String("president", q.President), zap.String("url", next))
			break
		}
		visited[next] = true

		fmt.Fprintf(w, "fetching page %d (%s)\n", page, q.President)
		p, err := fetchPage(ctx, client, next, header)
		if err != nil {
			return orders, fmt.Errorf("fetching page %d for %s: %w", page, q.President, err)
		}
		if len(p.Results) > 0 {
			fmt.Fprintf(w, "  found %d executive orders on page %d\n", len(p.Results), page)
		}
		orders = append(orders, p.Results...)
		next = p.NextPageURL
	}
	return orders, nil
}

func fetchPage(ctx context.Context, client *http.Client, pageURL string, header http.Header) (*documentsPage, error) {
	resp, err := httputil.Get(ctx, client, pageURL, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p documentsPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing documents response: %w", err)
	}
	return &p, nil
}

// Dedupe drops orders without a number and later occurrences of a number
// already seen. The first occurrence wins.
func Dedupe(orders []*types.ExecutiveOrder, log *zap.Logger) []*types.ExecutiveOrder {
	if log == nil {
		log = zap.NewNop()
	}
	seen := make(map[int]bool, len(orders))
	out := make([]*types.ExecutiveOrder, 0, len(orders))
	for _, o := range orders {
		if o == nil {
			continue
		}
		n := int(o.Number)
		if n <= 0 {
			log.Warn("dropping order without executive order number",
				zap.String("document_number", o.DocumentNumber), zap.String("title", o.Title))
			continue
		}
		if seen[n] {
			log.Warn("dropping duplicate order", zap.Int("eo_number", n),
				zap.String("document_number", o.DocumentNumber))
			continue
		}
		seen[n] = true
		out = append(out, o)
	}
	return out
}

// AssignPresident stamps the display name on every order.
func AssignPresident(orders []*types.ExecutiveOrder, name string) {
	for _, o := range orders {
		o.President = name
	}
}
