// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ClaudeBackend sends requests through the Messages API. The client is
// built once per invocation and shared with the batch workflow.
type ClaudeBackend struct {
	Client *anthropic.Client
}

// Analyze sends one request and returns the concatenated text blocks of the
// reply.
func (b *ClaudeBackend) Analyze(ctx context.Context, req Request) (string, error) {
	msg, err := b.Client.Messages.New(ctx, MessageParams(req))
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text in Claude response (stop reason %q)", msg.StopReason)
	}
	return text.String(), nil
}

// MessageParams builds the synchronous request body.
func MessageParams(req Request) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System:    systemBlocks(req),
		Messages:  []anthropic.MessageParam{userMessage(req)},
	}
}

// BatchParams builds the body of one batch request item.
func BatchParams(req Request) anthropic.MessageBatchNewParamsRequestParams {
	return anthropic.MessageBatchNewParamsRequestParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System:    systemBlocks(req),
		Messages:  []anthropic.MessageParam{userMessage(req)},
	}
}

func systemBlocks(req Request) []anthropic.TextBlockParam {
	return []anthropic.TextBlockParam{{Text: req.System}}
}

// userMessage carries the schema instructions and the PDF document.
func userMessage(req Request) anthropic.MessageParam {
	return anthropic.NewUserMessage(
		anthropic.NewTextBlock(req.Prompt),
		anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: req.PDFData}),
	)
}
