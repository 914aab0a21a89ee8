// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/propagate/internal/httputil"
	"github.com/pdiddy/propagate/pkg/types"
)

// DownloadResult holds the outcome of a download run.
type DownloadResult struct {
	Downloaded int
	Skipped    int
	Failed     int

	// Orders are the orders with a local PDF, in input order.
	Orders []*types.ExecutiveOrder
}

// Total returns the number of orders processed.
func (r DownloadResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r DownloadResult) HasFailures() bool {
	return r.Failed > 0
}

// Downloader fetches order PDFs into the PDF directory and records a
// metadata sidecar for each.
type Downloader struct {
	Client  *http.Client
	Config  types.RegistryConfig
	Log     *zap.Logger
	limiter *rate.Limiter
	meta    *MetadataStore
}

// NewDownloader returns a downloader paced by cfg.DownloadDelay. A zero
// delay leaves downloads unpaced.
func NewDownloader(client *http.Client, cfg types.RegistryConfig, log *zap.Logger) *Downloader {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.DownloadDelay > 0 {
		limit = rate.Every(cfg.DownloadDelay)
	}
	return &Downloader{
		Client:  client,
		Config:  cfg,
		Log:     log,
		limiter: rate.NewLimiter(limit, 1),
		meta:    NewMetadataStore(cfg.PDFDir),
	}
}

// PDFPath returns the download target for an order.
func (d *Downloader) PDFPath(order *types.ExecutiveOrder) string {
	return filepath.Join(d.Config.PDFDir, order.FileStem()+".pdf")
}

// Download ensures the order's PDF is on disk and sets order.PDFPath. An
// existing file is reused unless force is set. The skipped return value
// reports whether the existing file was reused.
func (d *Downloader) Download(ctx context.Context, order *types.ExecutiveOrder, force bool) (skipped bool, err error) {
	if order.PDFURL == "" {
		return false, fmt.Errorf("%s has no pdf_url", order.FileStem())
	}
	path := d.PDFPath(order)

	if _, statErr := os.Stat(path); statErr == nil && !force {
		order.PDFPath = path
		skipped = true
	} else {
		if err := os.MkdirAll(d.Config.PDFDir, 0o755); err != nil {
			return false, fmt.Errorf("creating directory %s: %w", d.Config.PDFDir, err)
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return false, err
		}

		header := http.Header{"Accept": {"application/pdf"}}
		if d.Config.UserAgent != "" {
			header.Set("User-Agent", d.Config.UserAgent)
		}
		n, err := httputil.Download(ctx, d.Client, order.PDFURL, path, header)
		if err != nil {
			return false, fmt.Errorf("downloading %s: %w", order.FileStem(), err)
		}
		d.Log.Debug("downloaded pdf", zap.Int("eo_number", int(order.Number)),
			zap.String("path", path), zap.Int64("bytes", n))
		order.PDFPath = path
	}

	if pages, err := PageCount(path); err != nil {
		d.Log.Warn("cannot read pdf page count", zap.String("path", path), zap.Error(err))
	} else {
		order.PageCount = pages
	}

	if err := d.meta.Write(order); err != nil {
		return skipped, fmt.Errorf("writing metadata for %s: %w", order.FileStem(), err)
	}
	return skipped, nil
}

// DownloadAll downloads every order, printing per-order status. It continues
// after individual failures; failed orders are left out of the result.
func (d *Downloader) DownloadAll(ctx context.Context, orders []*types.ExecutiveOrder, force bool, w io.Writer) DownloadResult {
	var result DownloadResult
	for _, order := range orders {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", order.FileStem(), ctx.Err())
			result.Failed++
			continue
		}
		skipped, err := d.Download(ctx, order, force)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", order.FileStem(), err)
			result.Failed++
			continue
		}
		if skipped {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", order.FileStem())
			result.Skipped++
		} else {
			fmt.Fprintf(w, "downloaded: %s\n", order.FileStem())
			result.Downloaded++
		}
		result.Orders = append(result.Orders, order)
	}
	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// PageCount returns the number of pages of a PDF file.
func PageCount(path string) (pages int, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
