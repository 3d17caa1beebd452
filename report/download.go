package report

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"consultai/utils/log"
	"consultai/utils/retry"
)

const (
	defaultTimeout = 60 * time.Second
	copyBufferSize = 8192
)

// StatusError is a non-200 answer from the report host.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: status %d", e.URL, e.Code)
}

// Downloader fetches catalog reports into a directory.
type Downloader struct {
	client  *resty.Client
	dir     string
	retries retry.RetryOptions
}

type DownloaderOption func(d *Downloader)

func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		if timeout > 0 {
			d.client.SetTimeout(timeout)
		}
	}
}

func WithRetryOptions(options retry.RetryOptions) DownloaderOption {
	return func(d *Downloader) {
		if options.MaxRetries <= 0 {
			options.MaxRetries = 1
		}
		d.retries = options
	}
}

func WithProxy(proxy string) DownloaderOption {
	return func(d *Downloader) {
		if proxy != "" {
			d.client.SetProxy(proxy)
		}
	}
}

func NewDownloader(dir string, options ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: resty.New().
			SetTimeout(defaultTimeout).
			SetDoNotParseResponse(true),
		dir: dir,
		retries: retry.RetryOptions{
			MaxRetries:     3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
	}
	d.retries.Retryable = isTransient

	for _, option := range options {
		option(d)
	}
	if d.retries.Retryable == nil {
		d.retries.Retryable = isTransient
	}
	return d
}

// Result is the outcome of one catalog entry.
type Result struct {
	Entry        Entry
	Path         string
	BytesWritten int64
	Err          error
}

// Download saves one report and returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, entry Entry) (int64, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create report dir")
	}
	savePath := filepath.Join(d.dir, entry.FileName())

	var written int64
	err := retry.RetryContext(ctx, func(ctx context.Context) error {
		n, err := d.fetch(ctx, entry.URL, savePath)
		written = n
		return err
	}, d.retries)
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL, savePath string) (int64, error) {
	resp, err := d.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return 0, errors.Wrapf(err, "download %s", rawURL)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		_, _ = io.Copy(io.Discard, body)
		return 0, &StatusError{URL: rawURL, Code: resp.StatusCode()}
	}

	tmp := savePath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, errors.Wrap(err, "create report file")
	}
	n, err := io.CopyBuffer(f, body, make([]byte, copyBufferSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, errors.Wrapf(err, "write %s", savePath)
	}
	if err := os.Rename(tmp, savePath); err != nil {
		return 0, errors.Wrap(err, "finalize report file")
	}
	return n, nil
}

// DownloadAll walks the catalog in order. A failed entry is logged and the
// rest still run.
func (d *Downloader) DownloadAll(ctx context.Context, entries []Entry) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			results = append(results, Result{Entry: e, Err: ctx.Err()})
			continue
		}
		log.Info(ctx, "starting download", zap.String("file", e.FileName()), zap.String("url", decodeURL(e.URL)))
		n, err := d.Download(ctx, e)
		r := Result{Entry: e, Path: filepath.Join(d.dir, e.FileName()), BytesWritten: n, Err: err}
		if err != nil {
			log.Error(ctx, "download failed", zap.String("file", e.FileName()), zap.Error(err))
		} else {
			log.Info(ctx, "downloaded", zap.String("file", e.FileName()), zap.Int64("bytes", n))
		}
		results = append(results, r)
	}
	return results
}

// isTransient retries 429 and 5xx answers and network failures. Local file
// errors and cancellation are final.
func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func decodeURL(raw string) string {
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}
