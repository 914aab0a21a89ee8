// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BatchStatus is the remote processing status of a message batch.
type BatchStatus string

const (
	BatchInProgress BatchStatus = "in_progress"
	BatchCanceling  BatchStatus = "canceling"
	BatchEnded      BatchStatus = "ended"
)

// Terminal reports whether results may be retrieved.
func (s BatchStatus) Terminal() bool {
	return s == BatchEnded
}

// RequestCounts holds per-outcome request counts of a batch.
type RequestCounts struct {
	Processing int64 `json:"processing"`
	Succeeded  int64 `json:"succeeded"`
	Errored    int64 `json:"errored"`
	Canceled   int64 `json:"canceled"`
	Expired    int64 `json:"expired"`
}

// Total returns the number of requests in the batch.
func (c RequestCounts) Total() int64 {
	return c.Processing + c.Succeeded + c.Errored + c.Canceled + c.Expired
}

// BatchInfo is the locally relevant view of a remote batch.
type BatchInfo struct {
	ID         string        `json:"id"`
	Status     BatchStatus   `json:"processing_status"`
	CreatedAt  time.Time     `json:"created_at"`
	Counts     RequestCounts `json:"request_counts"`
	ResultsURL string        `json:"results_url,omitempty"`
}

// ResultType is the outcome of one batch request.
type ResultType string

const (
	ResultSucceeded ResultType = "succeeded"
	ResultErrored   ResultType = "errored"
	ResultCanceled  ResultType = "canceled"
	ResultExpired   ResultType = "expired"
)
