// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis builds model requests for executive order PDFs and runs
// the synchronous summarize pipeline.
package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/pkg/types"
)

// Request is one analysis request: the fixed instructions plus the order's
// PDF, base64-encoded.
type Request struct {
	Order     *types.ExecutiveOrder
	Model     string
	MaxTokens int
	System    string
	Prompt    string
	PDFData   string
}

// BuildRequest reads the order's PDF and assembles its request. An order
// without a local PDF is an error.
func BuildRequest(order *types.ExecutiveOrder, cfg types.AIConfig) (Request, error) {
	if order.PDFPath == "" {
		return Request{}, fmt.Errorf("%s has no pdf_path", order.FileStem())
	}
	data, err := os.ReadFile(order.PDFPath)
	if err != nil {
		return Request{}, fmt.Errorf("reading %s: %w", order.PDFPath, err)
	}
	prompt, err := SchemaPrompt(cfg.MaxSummaryLength)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Order:     order,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		System:    SystemPrompt,
		Prompt:    prompt,
		PDFData:   base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Backend sends one request and waits for the model's answer text.
type Backend interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// Outcome holds counts from a summarize run.
type Outcome struct {
	Summarized int
	Skipped    int
	Failed     int
}

// Total returns the number of orders considered.
func (o Outcome) Total() int {
	return o.Summarized + o.Skipped + o.Failed
}

// HasFailures reports whether any order failed.
func (o Outcome) HasFailures() bool {
	return o.Failed > 0
}

// Pipeline summarizes orders one at a time against a Backend.
type Pipeline struct {
	Backend  Backend
	Recorder *normalize.Recorder
	Config   types.AIConfig
	Log      *zap.Logger
}

// Summarize analyzes each order that has no summary yet (every order when
// force is set). A request that cannot be built or an answer that cannot be
// normalized fails that order only. A backend error aborts the run and
// is returned with the counts so far.
func (p *Pipeline) Summarize(ctx context.Context, orders []*types.ExecutiveOrder, force bool, w io.Writer) (Outcome, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	var out Outcome
	for _, order := range orders {
		number := int(order.Number)
		if !force && p.Recorder.Store.HasSummary(number) {
			fmt.Fprintf(w, "skipped: %s (summary exists)\n", order.FileStem())
			out.Skipped++
			continue
		}

		req, err := BuildRequest(order, p.Config)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", order.FileStem(), err)
			log.Error("building request", zap.Int("eo_number", number), zap.Error(err))
			out.Failed++
			continue
		}

		fmt.Fprintf(w, "summarizing: %s\n", order.FileStem())
		text, err := p.Backend.Analyze(ctx, req)
		if err != nil {
			out.Failed++
			return out, fmt.Errorf("analyzing %s: %w", order.FileStem(), err)
		}

		if _, err := p.Recorder.Record(order, text); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", order.FileStem(), err)
			log.Error("recording answer", zap.Int("eo_number", number),
				zap.String("raw_path", p.Recorder.Store.RawPath(number)), zap.Error(err))
			out.Failed++
			continue
		}
		fmt.Fprintf(w, "  summary saved to %s\n", p.Recorder.Store.SummaryPath(number))
		out.Summarized++
	}

	fmt.Fprintf(w, "\nSummarize: %d summarized, %d skipped, %d failed (total: %d)\n",
		out.Summarized, out.Skipped, out.Failed, out.Total())
	return out, nil
}
