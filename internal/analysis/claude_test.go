// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messagesServer answers every Messages call with the given content blocks.
func messagesServer(t *testing.T, content []map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"content":       content,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]int{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testBackend(srv *httptest.Server) *ClaudeBackend {
	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return &ClaudeBackend{Client: &client}
}

func TestClaudeBackend_JoinsTextBlocks(t *testing.T) {
	srv := messagesServer(t, []map[string]string{
		{"type": "thinking", "thinking": "considering", "signature": "sig"},
		{"type": "text", "text": `{"summary":`},
		{"type": "text", "text": `"s"}`},
	})

	text, err := testBackend(srv).Analyze(context.Background(), Request{
		Model: "claude-test", MaxTokens: 100, System: SystemPrompt, Prompt: "p", PDFData: "JVBERg==",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"s"}`, text)
}

func TestClaudeBackend_NoTextIsError(t *testing.T) {
	srv := messagesServer(t, []map[string]string{
		{"type": "thinking", "thinking": "considering", "signature": "sig"},
	})

	_, err := testBackend(srv).Analyze(context.Background(), Request{
		Model: "claude-test", MaxTokens: 100, System: SystemPrompt, Prompt: "p", PDFData: "JVBERg==",
	})
	assert.ErrorContains(t, err, "no text in Claude response")
}
