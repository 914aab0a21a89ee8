// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/pdiddy/propagate/internal/analysis"
	"github.com/pdiddy/propagate/internal/httputil"
	"github.com/pdiddy/propagate/pkg/types"
)

// anthropicVersion is sent when downloading a results file directly.
const anthropicVersion = "2023-06-01"

// Client talks to the remote batch service.
type Client interface {
	Create(ctx context.Context, items []analysis.BatchItem) (types.BatchInfo, error)
	Get(ctx context.Context, id string) (types.BatchInfo, error)
	List(ctx context.Context, limit int) ([]types.BatchInfo, error)
	// DownloadResults writes the batch's results file to destPath.
	DownloadResults(ctx context.Context, info types.BatchInfo, destPath string) error
}

// ClaudeClient implements Client with the Message Batches API.
type ClaudeClient struct {
	API    *anthropic.Client
	HTTP   *http.Client
	APIKey string
}

// Create submits every item as one batch.
func (c *ClaudeClient) Create(ctx context.Context, items []analysis.BatchItem) (types.BatchInfo, error) {
	requests := make([]anthropic.MessageBatchNewParamsRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, anthropic.MessageBatchNewParamsRequest{
			CustomID: item.CustomID,
			Params:   analysis.BatchParams(item.Request),
		})
	}
	b, err := c.API.Messages.Batches.New(ctx, anthropic.MessageBatchNewParams{Requests: requests})
	if err != nil {
		return types.BatchInfo{}, fmt.Errorf("creating batch: %w", err)
	}
	return toInfo(b), nil
}

// Get retrieves one batch.
func (c *ClaudeClient) Get(ctx context.Context, id string) (types.BatchInfo, error) {
	b, err := c.API.Messages.Batches.Get(ctx, id)
	if err != nil {
		return types.BatchInfo{}, fmt.Errorf("retrieving batch %s: %w", id, err)
	}
	return toInfo(b), nil
}

// List returns up to limit recent batches, newest first.
func (c *ClaudeClient) List(ctx context.Context, limit int) ([]types.BatchInfo, error) {
	page, err := c.API.Messages.Batches.List(ctx, anthropic.MessageBatchListParams{
		Limit: anthropic.Int(int64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	infos := make([]types.BatchInfo, 0, len(page.Data))
	for i := range page.Data {
		infos = append(infos, toInfo(&page.Data[i]))
	}
	return infos, nil
}

// DownloadResults fetches info.ResultsURL with the API credential.
func (c *ClaudeClient) DownloadResults(ctx context.Context, info types.BatchInfo, destPath string) error {
	header := http.Header{
		"X-Api-Key":         {c.APIKey},
		"Anthropic-Version": {anthropicVersion},
	}
	if _, err := httputil.Download(ctx, c.HTTP, info.ResultsURL, destPath, header); err != nil {
		return fmt.Errorf("downloading results of %s: %w", info.ID, err)
	}
	return nil
}

func toInfo(b *anthropic.MessageBatch) types.BatchInfo {
	return types.BatchInfo{
		ID:         b.ID,
		Status:     types.BatchStatus(b.ProcessingStatus),
		CreatedAt:  b.CreatedAt,
		ResultsURL: b.ResultsURL,
		Counts: types.RequestCounts{
			Processing: b.RequestCounts.Processing,
			Succeeded:  b.RequestCounts.Succeeded,
			Errored:    b.RequestCounts.Errored,
			Canceled:   b.RequestCounts.Canceled,
			Expired:    b.RequestCounts.Expired,
		},
	}
}
