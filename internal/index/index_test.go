// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

func putSummary(t *testing.T, st *store.Store, number int, president, pub, domain, summary string) {
	t.Helper()
	_, err := st.WriteSummary(&types.Summary{
		EONumber:        number,
		Title:           "Order " + summary,
		President:       president,
		Summary:         summary,
		PublicationDate: types.RawDate(pub),
		SigningDate:     types.RawDate(pub),
		EffectiveDate:   types.RawDate("January 20, 2025"),
		ExpirationDate:  types.RawDate("none"),
		Categories: types.Categories{
			PolicyDomain: domain,
			Duration:     "Permanent",
		},
	})
	require.NoError(t, err)
}

func newIndexedStore(t *testing.T) (*Store, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st := store.New(dir)
	putSummary(t, st, 14147, "Donald Trump", "2025-01-28", "Civil Rights", "weaponization of agencies")
	putSummary(t, st, 14148, "Donald Trump", "2025-01-28", "Economic", "rescission of orders")
	putSummary(t, st, 14100, "Joe Biden", "2025-01-10", "Energy", "offshore drilling withdrawal")

	idx, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	var buf bytes.Buffer
	sum, err := idx.Ingest(context.Background(), st, &buf)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Indexed)
	return idx, st
}

func resultNumbers(rs []Result) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.EONumber)
	}
	return out
}

func TestIngest_Incremental(t *testing.T) {
	idx, st := newIndexedStore(t)
	assert.FileExists(t, Path(st.Dir()))

	sum, err := idx.Ingest(context.Background(), st, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Skipped)
	assert.Equal(t, 0, sum.Indexed)

	// Rewrite one record with a later modification time.
	putSummary(t, st, 14100, "Joe Biden", "2025-01-10", "Environmental", "offshore drilling withdrawal")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(st.SummaryPath(14100), later, later))

	sum, err = idx.Ingest(context.Background(), st, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 3, sum.Total())

	rs, err := idx.Query(context.Background(), QueryOptions{
		Categories: []CategoryFilter{{Axis: types.CategoryPolicyDomain, Value: "Environmental"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{14100}, resultNumbers(rs))
}

func TestIngest_BadFileFails(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)
	putSummary(t, st, 1, "", "yesterday", "Energy", "x")

	idx, err := NewStore(dir)
	require.NoError(t, err)
	defer idx.Close()

	sum, err := idx.Ingest(context.Background(), st, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
}

func TestQuery(t *testing.T) {
	idx, _ := newIndexedStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts QueryOptions
		want []int
	}{
		{"all newest first", QueryOptions{}, []int{14148, 14147, 14100}},
		{"president", QueryOptions{President: "Joe Biden"}, []int{14100}},
		{"category", QueryOptions{Categories: []CategoryFilter{{types.CategoryPolicyDomain, "economic"}}}, []int{14148}},
		{"category and president", QueryOptions{
			President:  "Joe Biden",
			Categories: []CategoryFilter{{types.CategoryPolicyDomain, "Economic"}},
		}, nil},
		{"text", QueryOptions{Text: "weaponization"}, []int{14147}},
		{"limit", QueryOptions{MaxResults: 1}, []int{14148}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := idx.Query(ctx, tt.opts)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, rs)
				return
			}
			assert.Equal(t, tt.want, resultNumbers(rs))
		})
	}
}

func TestQuery_ReturnsCategories(t *testing.T) {
	idx, _ := newIndexedStore(t)
	rs, err := idx.Query(context.Background(), QueryOptions{Text: "rescission"})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, map[string]string{"policy_domain": "Economic", "duration": "Permanent"}, rs[0].Categories)
	assert.Equal(t, "2025-01-28", rs[0].PublicationDate)
}

func TestParseCategoryFilter(t *testing.T) {
	f, err := ParseCategoryFilter("policy_domain=Civil Rights")
	require.NoError(t, err)
	assert.Equal(t, CategoryFilter{Axis: types.CategoryPolicyDomain, Value: "Civil Rights"}, f)

	for _, bad := range []string{"policy_domain", "=x", "policy_domain=", "color=blue"} {
		_, err := ParseCategoryFilter(bad)
		assert.Error(t, err, bad)
	}
}
