// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/propagate/internal/analysis"
	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

const answerJSON = `{"summary":"s","purpose":"p","effective_date":"March 3, 2025, 12:01 a.m.",
"expiration_date":"No expiration date is stated","economic_effects":"e","geopolitical_effects":"g",
"deeper_dive":"d","positive_impacts":"pi","negative_impacts":"ni",
"key_industries":"Energy & Utilities","categories":{"policy_domain":"Energy",
"regulatory_impact":"Deregulatory","constitutional_authority":"Emergency powers",
"duration":"Permanent","scope_of_impact":"Private sector involvement",
"political_context":"Campaign promise fulfillment","legal_framework":"Statutory interpretation",
"budgetary_implications":"Budget neutral","implementation_timeline":"Immediate effect",
"precedential_value":"Expansion of existing policy"}}`

// fakeClient is an in-memory batch service.
type fakeClient struct {
	batches   map[string]types.BatchInfo
	created   [][]analysis.BatchItem
	results   string
	createErr error
}

func (f *fakeClient) Create(_ context.Context, items []analysis.BatchItem) (types.BatchInfo, error) {
	if f.createErr != nil {
		return types.BatchInfo{}, f.createErr
	}
	f.created = append(f.created, items)
	info := types.BatchInfo{
		ID:     fmt.Sprintf("msgbatch_%d", len(f.created)),
		Status: types.BatchInProgress,
		Counts: types.RequestCounts{Processing: int64(len(items))},
	}
	if f.batches == nil {
		f.batches = make(map[string]types.BatchInfo)
	}
	f.batches[info.ID] = info
	return info, nil
}

func (f *fakeClient) Get(_ context.Context, id string) (types.BatchInfo, error) {
	info, ok := f.batches[id]
	if !ok {
		return types.BatchInfo{}, fmt.Errorf("batch %s not found", id)
	}
	return info, nil
}

func (f *fakeClient) List(_ context.Context, limit int) ([]types.BatchInfo, error) {
	var out []types.BatchInfo
	for _, info := range f.batches {
		if len(out) == limit {
			break
		}
		out = append(out, info)
	}
	return out, nil
}

func (f *fakeClient) DownloadResults(_ context.Context, _ types.BatchInfo, destPath string) error {
	return os.WriteFile(destPath, []byte(f.results), 0o644)
}

// lookupMap serves records from memory.
type lookupMap map[int]*types.ExecutiveOrder

func (m lookupMap) Lookup(number int) (*types.ExecutiveOrder, error) {
	if o, ok := m[number]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, os.ErrNotExist
}

func testRecords() lookupMap {
	return lookupMap{
		14147: {Number: 14147, Title: "A", PublicationDate: "2025-01-28", SigningDate: "2025-01-20", President: "Donald Trump"},
		14148: {Number: 14148, Title: "B", PublicationDate: "2025-01-28", SigningDate: "2025-01-20"},
		14149: {Number: 14149, Title: "C", PublicationDate: "2025-01-29", SigningDate: "2025-01-21"},
	}
}

func successLine(t *testing.T, id, text string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"custom_id": id,
		"result": map[string]any{
			"message": map[string]any{
				"content": []map[string]string{{"text": text}},
			},
		},
	})
	require.NoError(t, err)
	return string(data)
}

func TestReadResults(t *testing.T) {
	input := strings.Join([]string{
		successLine(t, "eo-1-abcd1234", "hello"),
		"",
		`{"custom_id":"eo-2-abcd1234","result":{"type":"succeeded","message":{"content":[{"type":"text","text":"a"},{"type":"thinking","text":"x"},{"type":"text","text":"b"}]}}}`,
		`{"custom_id":"eo-3-abcd1234","result":{"type":"errored","error":{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}}}`,
		`{"custom_id":"eo-4-abcd1234","result":{"type":"expired"}}`,
		`not json`,
		`{"result":{"type":"succeeded"}}`,
	}, "\n")

	lines, err := ReadResults(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 6)

	assert.Equal(t, types.ResultSucceeded, lines[0].Type)
	assert.Equal(t, "hello", lines[0].Text)
	assert.Equal(t, 1, lines[0].Line)

	assert.Equal(t, "ab", lines[1].Text)
	assert.Equal(t, 3, lines[1].Line)

	assert.Equal(t, types.ResultErrored, lines[2].Type)
	assert.Contains(t, lines[2].Error, "invalid_request_error")

	assert.Equal(t, types.ResultExpired, lines[3].Type)
	assert.NoError(t, lines[3].Err)

	assert.Error(t, lines[4].Err)
	assert.ErrorContains(t, lines[5].Err, "custom_id")
}

func TestCorrelationLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "request_ids_donald-trump.txt")
	require.NoError(t, AppendCorrelationLog(path, "msgbatch_1", []string{"eo-1-aaaa1111", "eo-2-aaaa1111"}))
	require.NoError(t, AppendCorrelationLog(path, "msgbatch_2", []string{"eo-3-bbbb2222"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\n# Batch ID: msgbatch_1\neo-1-aaaa1111\neo-2-aaaa1111\n\n# Batch ID: msgbatch_2\neo-3-bbbb2222\n", string(data))

	batches, err := ReadCorrelationLog(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"msgbatch_1": {"eo-1-aaaa1111", "eo-2-aaaa1111"},
		"msgbatch_2": {"eo-3-bbbb2222"},
	}, batches)

	ids, found, err := FindBatch(filepath.Dir(path), "msgbatch_2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"eo-3-bbbb2222"}, ids)

	_, found, err = FindBatch(filepath.Dir(path), "msgbatch_9")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "request_ids_joe-biden.txt"), LogPath("logs", "joe-biden"))
}

func TestTracker_Submit(t *testing.T) {
	client := &fakeClient{}
	tr := &Tracker{Client: client, Log: zap.NewNop()}
	logPath := filepath.Join(t.TempDir(), "request_ids_p.txt")

	items := []analysis.BatchItem{{CustomID: "eo-1-abcd1234"}, {CustomID: "eo-2-abcd1234"}}
	info, ids, err := tr.Submit(context.Background(), items, logPath)
	require.NoError(t, err)
	assert.Equal(t, "msgbatch_1", info.ID)
	assert.Equal(t, []string{"eo-1-abcd1234", "eo-2-abcd1234"}, ids)

	batches, err := ReadCorrelationLog(logPath)
	require.NoError(t, err)
	assert.Equal(t, ids, batches["msgbatch_1"])

	_, _, err = tr.Submit(context.Background(), nil, logPath)
	assert.Error(t, err)
}

func TestTracker_SubmitCreateError(t *testing.T) {
	tr := &Tracker{Client: &fakeClient{createErr: errors.New("unauthorized")}}
	logPath := filepath.Join(t.TempDir(), "request_ids_p.txt")

	_, _, err := tr.Submit(context.Background(), []analysis.BatchItem{{CustomID: "eo-1-x"}}, logPath)
	require.Error(t, err)
	assert.NoFileExists(t, logPath)
}

func TestWriteStatus(t *testing.T) {
	info := types.BatchInfo{
		ID:         "msgbatch_1",
		Status:     types.BatchEnded,
		CreatedAt:  time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		Counts:     types.RequestCounts{Succeeded: 8, Errored: 2},
		ResultsURL: "https://example.test/results",
	}
	var buf bytes.Buffer
	WriteStatus(&buf, info)
	out := buf.String()

	assert.Contains(t, out, "Batch ID: msgbatch_1")
	assert.Contains(t, out, "Status: ended")
	assert.Contains(t, out, "Created: 2025-02-01T10:00:00Z")
	assert.Contains(t, out, "Total requests: 10")
	assert.Contains(t, out, "Errored: 2")
	assert.NotContains(t, out, "Canceled")
	assert.NotContains(t, out, "Expired")
	assert.Contains(t, out, "Results URL: https://example.test/results")
}

func TestTracker_List(t *testing.T) {
	client := &fakeClient{batches: map[string]types.BatchInfo{
		"msgbatch_1": {ID: "msgbatch_1", Status: types.BatchEnded},
	}}
	var buf bytes.Buffer
	infos, err := (&Tracker{Client: client}).List(context.Background(), 0, &buf)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	assert.Contains(t, buf.String(), "showing up to 20")
	assert.Contains(t, buf.String(), "Batch ID: msgbatch_1")
}

func TestTracker_Fetch(t *testing.T) {
	client := &fakeClient{
		batches: map[string]types.BatchInfo{
			"running":   {ID: "running", Status: types.BatchInProgress},
			"canceling": {ID: "canceling", Status: types.BatchCanceling},
			"nourl":     {ID: "nourl", Status: types.BatchEnded},
			"done":      {ID: "done", Status: types.BatchEnded, ResultsURL: "https://example.test/r"},
		},
		results: "{}\n",
	}
	tr := &Tracker{Client: client}
	dir := filepath.Join(t.TempDir(), "batch_results")

	tests := []struct {
		id      string
		wantErr error
		wantMsg string
	}{
		{"running", ErrNotReady, "Status: in_progress"},
		{"canceling", ErrNotReady, "Status: canceling"},
		{"nourl", ErrNoResults, "No results URL"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			var buf bytes.Buffer
			path, err := tr.Fetch(context.Background(), tt.id, dir, &buf)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsNoop(err))
			assert.Empty(t, path)
			assert.Contains(t, buf.String(), tt.wantMsg)
			assert.NoDirExists(t, dir)
		})
	}

	var buf bytes.Buffer
	path, err := tr.Fetch(context.Background(), "done", dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch_done.jsonl"), path)
	assert.FileExists(t, path)

	_, err = tr.Fetch(context.Background(), "missing", dir, &buf)
	require.Error(t, err)
	assert.False(t, IsNoop(err))
}

func newReconciler(t *testing.T, log *zap.Logger) (*Reconciler, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	return &Reconciler{
		Records:  testRecords(),
		Recorder: &normalize.Recorder{Store: st, Log: zap.NewNop()},
		Log:      log,
	}, st
}

func writeResults(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch_x.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestReconciler_Process(t *testing.T) {
	r, st := newReconciler(t, zap.NewNop())
	path := writeResults(t,
		successLine(t, "eo-14149-ab12cd34", answerJSON),
		"this line is not json",
		successLine(t, "eo-14148-ab12cd34", "I'm sorry, I cannot produce JSON for this document."),
		`{"custom_id":"eo-99999-ab12cd34","result":{"type":"succeeded","message":{"content":[{"type":"text","text":"{}"}]}}}`,
		`{"custom_id":"eo-14150-ab12cd34","result":{"type":"canceled"}}`,
		successLine(t, "eo-14147-ab12cd34", answerJSON),
	)

	var buf bytes.Buffer
	sum, err := r.Process(context.Background(), path, false, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Recorded)
	assert.Equal(t, 4, sum.Failed)
	assert.Equal(t, 6, sum.Total())

	s, err := store.ReadSummary(st.SummaryPath(14147))
	require.NoError(t, err)
	assert.Equal(t, 14147, s.EONumber)
	assert.Equal(t, "Donald Trump", s.President)
	assert.Equal(t, "2025-03-03", s.EffectiveDate.String())
	assert.Equal(t, types.NoExpirationDate, s.ExpirationDate.String())

	assert.True(t, st.HasSummary(14149))
	assert.False(t, st.HasSummary(14148))
	assert.FileExists(t, st.RawPath(14148))
	assert.Contains(t, buf.String(), "recorded: EO-14147")
}

func TestReconciler_SkipsExistingUnlessForced(t *testing.T) {
	r, st := newReconciler(t, zap.NewNop())
	path := writeResults(t, successLine(t, "eo-14147-ab12cd34", answerJSON))

	sum, err := r.Process(context.Background(), path, false, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Recorded)
	info, err := os.Stat(st.SummaryPath(14147))
	require.NoError(t, err)

	sum, err = r.Process(context.Background(), path, false, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	again, err := os.Stat(st.SummaryPath(14147))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	sum, err = r.Process(context.Background(), path, true, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Recorded)
}

func TestReconciler_WarnsOnLogMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r, _ := newReconciler(t, zap.New(core))
	path := writeResults(t,
		successLine(t, "eo-14147-ab12cd34", answerJSON),
		successLine(t, "eo-14149-ab12cd34", answerJSON),
	)

	expected := []string{"eo-14147-ab12cd34", "eo-14148-ab12cd34"}
	_, err := r.Process(context.Background(), path, false, expected, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("results not in correlation log").Len())
	assert.Equal(t, 1, logs.FilterMessage("logged requests without a result").Len())
}

func TestReconciler_WarnsWhenLoggedBatchHasNoIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AppendCorrelationLog(LogPath(dir, "donald-trump"), "msgbatch_empty", nil))

	ids, found, err := FindBatch(dir, "msgbatch_empty")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, ids)
	assert.Empty(t, ids)

	core, logs := observer.New(zapcore.WarnLevel)
	r, _ := newReconciler(t, zap.New(core))
	path := writeResults(t, successLine(t, "eo-14147-ab12cd34", answerJSON))

	_, err = r.Process(context.Background(), path, false, ids, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("results not in correlation log").Len())
}

func TestReconciler_MissingFile(t *testing.T) {
	r, _ := newReconciler(t, nil)
	_, err := r.Process(context.Background(), filepath.Join(t.TempDir(), "none.jsonl"), false, nil, &bytes.Buffer{})
	assert.Error(t, err)
}
