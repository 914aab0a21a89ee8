// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

const answerJSON = `{"summary":"s","purpose":"p","effective_date":"January 20, 2025",
"expiration_date":"Not specified","economic_effects":"e","geopolitical_effects":"g",
"deeper_dive":"d","positive_impacts":"pi","negative_impacts":"ni",
"key_industries":"Financial Services","categories":{"policy_domain":"Economic",
"regulatory_impact":"Regulatory","constitutional_authority":"Emergency powers",
"duration":"Permanent","scope_of_impact":"Individual rights",
"political_context":"Response to crisis","legal_framework":"Statutory interpretation",
"budgetary_implications":"Budget neutral","implementation_timeline":"Immediate effect",
"precedential_value":"Expansion of existing policy"}}`

var testAI = types.AIConfig{Model: "claude-test", MaxTokens: 1000, MaxSummaryLength: 250}

// mockBackend returns canned answers keyed by order number.
type mockBackend struct {
	answers map[int]string
	err     error
	calls   []int
}

func (m *mockBackend) Analyze(_ context.Context, req Request) (string, error) {
	m.calls = append(m.calls, int(req.Order.Number))
	if m.err != nil {
		return "", m.err
	}
	if a, ok := m.answers[int(req.Order.Number)]; ok {
		return a, nil
	}
	return answerJSON, nil
}

// writePDF creates a fake PDF for an order and returns the order.
func writePDF(t *testing.T, dir string, number int) *types.ExecutiveOrder {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("EO-%d.pdf", number))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return &types.ExecutiveOrder{
		Number:          types.FlexInt(number),
		Title:           "Order",
		PublicationDate: "2025-01-28",
		SigningDate:     "2025-01-20",
		PDFPath:         path,
	}
}

func TestSchemaPrompt(t *testing.T) {
	prompt, err := SchemaPrompt(180)
	require.NoError(t, err)

	assert.Contains(t, prompt, "summary with 180 characters or less")
	assert.Contains(t, prompt, "Do not include ```json or ``` in the response")
	for _, industry := range types.Industries {
		assert.Contains(t, prompt, "        - "+industry+"\n")
	}
	for _, axis := range types.CategoryAxes {
		assert.Contains(t, prompt, "- "+string(axis.Name)+": "+strings.Join(axis.Values, ", "))
	}

	_, err = SchemaPrompt(0)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	order := writePDF(t, t.TempDir(), 14147)
	req, err := BuildRequest(order, testAI)
	require.NoError(t, err)

	assert.Equal(t, "claude-test", req.Model)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Equal(t, SystemPrompt, req.System)
	decoded, err := base64.StdEncoding.DecodeString(req.PDFData)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(decoded))

	_, err = BuildRequest(&types.ExecutiveOrder{Number: 1}, testAI)
	assert.ErrorContains(t, err, "pdf_path")

	_, err = BuildRequest(&types.ExecutiveOrder{Number: 1, PDFPath: "/nonexistent/EO-1.pdf"}, testAI)
	assert.Error(t, err)
}

func TestMessageParams(t *testing.T) {
	req := Request{Model: "m", MaxTokens: 42, System: "sys", Prompt: "schema", PDFData: "QUJD"}

	params := MessageParams(req)
	assert.Equal(t, "m", string(params.Model))
	assert.Equal(t, int64(42), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "sys", params.System[0].Text)
	require.Len(t, params.Messages, 1)
	require.Len(t, params.Messages[0].Content, 2)
	require.NotNil(t, params.Messages[0].Content[0].OfText)
	assert.Equal(t, "schema", params.Messages[0].Content[0].OfText.Text)
	assert.NotNil(t, params.Messages[0].Content[1].OfDocument)

	batch := BatchParams(req)
	assert.Equal(t, params.Model, batch.Model)
	assert.Equal(t, params.MaxTokens, batch.MaxTokens)
	assert.Len(t, batch.Messages, 1)
}

func TestCorrelationID(t *testing.T) {
	suffix := NewCorrelationSuffix()
	assert.Len(t, suffix, 8)

	id := CorrelationID(14147, suffix)
	assert.True(t, ValidCorrelationID(id))

	n, got, err := ParseCorrelationID(id)
	require.NoError(t, err)
	assert.Equal(t, 14147, n)
	assert.Equal(t, suffix, got)
}

func TestParseCorrelationID(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantNumber int
		wantSuffix string
		wantErr    bool
	}{
		{"canonical", "eo-14147-ab12cd34", 14147, "ab12cd34", false},
		{"suffix with dash", "eo-1-ab-cd", 1, "ab-cd", false},
		{"wrong prefix", "xo-14147-ab12cd34", 0, "", true},
		{"no suffix", "eo-14147", 0, "", true},
		{"empty suffix", "eo-14147-", 0, "", true},
		{"not a number", "eo-abc-ab12cd34", 0, "", true},
		{"zero", "eo-0-ab12cd34", 0, "", true},
		{"empty", "", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, s, err := ParseCorrelationID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, n)
			assert.Equal(t, tt.wantSuffix, s)
		})
	}
}

func TestValidCorrelationID(t *testing.T) {
	assert.True(t, ValidCorrelationID("eo-14147-ab12cd34"))
	assert.False(t, ValidCorrelationID(""))
	assert.False(t, ValidCorrelationID("eo 14147"))
	assert.False(t, ValidCorrelationID(strings.Repeat("a", 65)))
}

func TestBuildBatch(t *testing.T) {
	dir := t.TempDir()
	orders := []*types.ExecutiveOrder{
		writePDF(t, dir, 1),
		{Number: 2},
		writePDF(t, dir, 3),
	}

	items, err := BuildBatch(orders, testAI, "abcd1234", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "eo-1-abcd1234", items[0].CustomID)
	assert.Equal(t, "eo-3-abcd1234", items[1].CustomID)
	assert.Equal(t, types.FlexInt(3), items[1].Request.Order.Number)

	dup := []*types.ExecutiveOrder{writePDF(t, dir, 5), writePDF(t, dir, 5)}
	_, err = BuildBatch(dup, testAI, "abcd1234", nil)
	assert.ErrorContains(t, err, "duplicate")

	_, err = BuildBatch([]*types.ExecutiveOrder{writePDF(t, dir, 6)}, testAI, "bad suffix", nil)
	assert.ErrorContains(t, err, "invalid")
}

func newPipeline(t *testing.T, backend Backend) (*Pipeline, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	return &Pipeline{
		Backend:  backend,
		Recorder: &normalize.Recorder{Store: st, Log: zap.NewNop()},
		Config:   testAI,
		Log:      zap.NewNop(),
	}, st
}

func TestPipeline_Summarize(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{answers: map[int]string{3: "not json"}}
	p, st := newPipeline(t, backend)

	orders := []*types.ExecutiveOrder{
		writePDF(t, dir, 1),
		{Number: 2},
		writePDF(t, dir, 3),
	}

	var buf bytes.Buffer
	out, err := p.Summarize(context.Background(), orders, false, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summarized)
	assert.Equal(t, 2, out.Failed)
	assert.True(t, out.HasFailures())
	assert.Equal(t, []int{1, 3}, backend.calls)

	assert.True(t, st.HasSummary(1))
	assert.False(t, st.HasSummary(3))
	assert.FileExists(t, st.RawPath(3))
	assert.Contains(t, buf.String(), "Summarize: 1 summarized, 0 skipped, 2 failed (total: 3)")
}

func TestPipeline_SkipsExistingUnlessForced(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{}
	p, st := newPipeline(t, backend)
	orders := []*types.ExecutiveOrder{writePDF(t, dir, 1)}

	_, err := p.Summarize(context.Background(), orders, false, &bytes.Buffer{})
	require.NoError(t, err)
	before, err := os.ReadFile(st.SummaryPath(1))
	require.NoError(t, err)

	out, err := p.Summarize(context.Background(), orders, false, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Skipped)
	assert.Len(t, backend.calls, 1, "existing summary does not re-invoke the model")
	after, err := os.ReadFile(st.SummaryPath(1))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	out, err = p.Summarize(context.Background(), orders, true, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summarized)
	assert.Len(t, backend.calls, 2)
}

func TestPipeline_BackendErrorAborts(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{err: errors.New("connection refused")}
	p, _ := newPipeline(t, backend)
	orders := []*types.ExecutiveOrder{writePDF(t, dir, 1), writePDF(t, dir, 2)}

	out, err := p.Summarize(context.Background(), orders, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, out.Failed)
	assert.Len(t, backend.calls, 1)
}
