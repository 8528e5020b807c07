// Package transfer implements the download half of the transfer engine:
// streaming a recording asset from its time-limited URL to the local staging
// directory in fixed-size blocks with byte-level progress reporting.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/logging"
)

// BlockSize is the read block size for downloads.
const BlockSize = 32 * 1024 // 32 KiB

// ProgressFunc receives cumulative transfer progress. total is the declared
// content length and may be 0 when the server does not announce one, in
// which case progress degrades to a plain byte count.
type ProgressFunc func(transferred, total int64)

// Error represents a failed transfer.
type Error struct {
	// Op is the operation that failed ("download")
	Op string

	// URL is the transfer source, without its query string
	URL string

	// StatusCode is the HTTP status returned, 0 for transport errors
	StatusCode int

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}

// Downloader streams recording assets to local disk.
type Downloader struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// DownloaderOptions contains optional settings for a Downloader.
type DownloaderOptions struct {
	// HTTPClient overrides the HTTP client used for downloads.
	HTTPClient *http.Client

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is the instrumentation recorder. May be nil.
	Metrics *instrumentation.Metrics
}

// NewDownloader creates a new Downloader.
func NewDownloader(options *DownloaderOptions) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
	}

	if options != nil {
		if options.HTTPClient != nil {
			d.httpClient = options.HTTPClient
		}
		d.logger = options.Logger
		d.metrics = options.Metrics
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Download fetches url to destPath, streaming the body in BlockSize blocks
// and reporting cumulative bytes against the declared content length through
// progress (which may be nil). authHeader, when non-empty, is sent as the
// Authorization header.
//
// On any failure the partially written file is removed and an *Error is
// returned; a failed download never leaves a truncated staging file behind.
func (d *Downloader) Download(ctx context.Context, url, destPath, authHeader string, progress ProgressFunc) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "transfer.download")
	defer span.End()
	start := time.Now()

	path, err := d.download(ctx, url, destPath, authHeader, progress)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		d.metrics.RecordTransfer(ctx, instrumentation.DirectionDownload, instrumentation.StatusError, time.Since(start))
		return "", err
	}

	instrumentation.SetSpanSuccess(span)
	d.metrics.RecordTransfer(ctx, instrumentation.DirectionDownload, instrumentation.StatusSuccess, time.Since(start))
	return path, nil
}

func (d *Downloader) download(ctx context.Context, url, destPath, authHeader string, progress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("failed to build request: %w", err)}
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Op:         "download",
			URL:        stripQuery(url),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("failed to create staging directory: %w", err)}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("failed to create staging file: %w", err)}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0 // unknown; progress degrades to a byte count
	}

	var transferred int64
	buf := make([]byte, BlockSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				d.discard(destPath)
				return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("write failed: %w", writeErr)}
			}
			transferred += int64(n)
			d.metrics.AddTransferBytes(ctx, instrumentation.DirectionDownload, int64(n))
			if progress != nil {
				progress(transferred, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			d.discard(destPath)
			return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("read failed: %w", readErr)}
		}
	}

	if err := f.Close(); err != nil {
		d.discard(destPath)
		return "", &Error{Op: "download", URL: stripQuery(url), Err: fmt.Errorf("close failed: %w", err)}
	}

	d.logger.Debug("download complete",
		logging.Operation("transfer.download"),
		logging.Path(destPath),
		logging.Bytes(transferred))
	return destPath, nil
}

// discard removes a truncated staging file after a failed download.
func (d *Downloader) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("failed to remove truncated staging file",
			logging.Operation("transfer.download"),
			logging.Path(path),
			logging.Err(err))
	}
}

// stripQuery drops the query string from a URL for error messages; the query
// carries the download signature.
func stripQuery(url string) string {
	for i := 0; i < len(url); i++ {
		if url[i] == '?' {
			return url[:i]
		}
	}
	return url
}
