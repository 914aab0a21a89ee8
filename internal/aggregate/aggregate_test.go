// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

var buildTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func putSummary(t *testing.T, st *store.Store, number int, pub string) {
	t.Helper()
	_, err := st.WriteSummary(&types.Summary{
		EONumber:        number,
		Title:           "Order",
		PublicationDate: types.RawDate(pub),
		SigningDate:     types.RawDate(pub),
		EffectiveDate:   types.RawDate("March 3, 2025, 12:01 a.m."),
		ExpirationDate:  types.RawDate("Not specified"),
	})
	require.NoError(t, err)
}

func numbers(agg *types.Aggregate) []int {
	out := make([]int, 0, len(agg.Orders))
	for _, s := range agg.Orders {
		out = append(out, s.EONumber)
	}
	return out
}

func TestBuild_SortsByPublicationThenNumber(t *testing.T) {
	st := store.New(t.TempDir())
	putSummary(t, st, 14100, "2025-01-20")
	putSummary(t, st, 14150, "2025-02-10")
	putSummary(t, st, 14148, "2025-01-28")
	putSummary(t, st, 14147, "2025-01-28")
	_, err := st.WriteRaw(14147, `{"summary":"raw"}`)
	require.NoError(t, err)

	agg, result, err := Build(st, buildTime, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{14150, 14148, 14147, 14100}, numbers(agg))
	assert.Equal(t, 4, agg.Count)
	assert.Equal(t, "2025-03-01T08:00:00Z", agg.GeneratedAt)
	assert.Equal(t, 4, result.Included)
	assert.False(t, result.HasFailures())

	first := agg.Orders[0]
	assert.Equal(t, "2025-03-03", first.EffectiveDate.String())
	assert.Equal(t, types.NoExpirationDate, first.ExpirationDate.String())
}

func TestBuild_SkipsBadFilesAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)
	putSummary(t, st, 1, "2025-01-01")
	putSummary(t, st, 2, "not a date")

	// A copy under another name repeats order 1.
	data, err := os.ReadFile(st.SummaryPath(1))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EO-1-copy.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	agg, result, err := Build(st, buildTime, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, numbers(agg))
	assert.Equal(t, 1, result.Included)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 4, result.Total())
}

func TestRun_IsIdempotent(t *testing.T) {
	st := store.New(t.TempDir())
	putSummary(t, st, 10, "2025-01-10")
	putSummary(t, st, 11, "2025-01-11")

	var buf bytes.Buffer
	_, err := Run(st, buildTime, nil, &buf)
	require.NoError(t, err)
	first, err := os.ReadFile(st.AggregatePath())
	require.NoError(t, err)

	// eo.json itself is not read back on the second build.
	_, err = Run(st, buildTime, nil, &buf)
	require.NoError(t, err)
	second, err := os.ReadFile(st.AggregatePath())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var agg struct {
		Count  int `json:"count"`
		Orders []struct {
			EONumber        int    `json:"eo_number"`
			PublicationDate string `json:"publication_date"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(second, &agg))
	assert.Equal(t, 2, agg.Count)
	require.Len(t, agg.Orders, 2)
	assert.Equal(t, 11, agg.Orders[0].EONumber)
	assert.Equal(t, "2025-01-11", agg.Orders[0].PublicationDate)
	assert.Contains(t, buf.String(), "Wrote 2 orders")
}

func TestBuild_ReadsLegacyRecords(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)
	legacy := `{
  "eo_number": 14160,
  "title": "Protecting the Meaning and Value of American Citizenship",
  "publication_date": "2025-01-29",
  "signing_date": "2025-01-20",
  "effective_date": "February 19, 2025",
  "expiration_date": "None",
  "key_industries": ["Government & Public Administration", "Legal Services"],
  "timestamp": 1738000000.5
}`
	require.NoError(t, os.WriteFile(st.SummaryPath(14160), []byte(legacy), 0o644))

	agg, result, err := Build(st, buildTime, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Included)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, agg.Orders, 1)

	s := agg.Orders[0]
	assert.Equal(t, types.Timestamp("2025-01-27T17:46:40Z"), s.Timestamp)
	assert.Equal(t, types.FlexText("Government & Public Administration, Legal Services"), s.KeyIndustries)
	assert.Equal(t, "2025-02-19", s.EffectiveDate.String())
	assert.Equal(t, types.NoExpirationDate, s.ExpirationDate.String())
}

func TestBuild_EmptyStoreDirMissing(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "missing"))
	_, _, err := Build(st, buildTime, nil)
	assert.Error(t, err)
}
