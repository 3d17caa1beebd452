package report

import (
	"context"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/utils/retry"
)

var fastRetry = retry.RetryOptions{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestDownloadWritesFile(t *testing.T) {
	body := "%PDF-1.4 fake report body"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, WithRetryOptions(fastRetry))
	entry := Entry{Firm: "BCG", Year: "2025", Industry: "Reckoning", URL: srv.URL + "/for-banks%20ai.pdf"}

	n, err := d.Download(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	data, err := os.ReadFile(filepath.Join(dir, "BCG_2025_Reckoning.pdf"))
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	_, err = os.Stat(filepath.Join(dir, "BCG_2025_Reckoning.pdf.part"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), WithRetryOptions(fastRetry))
	n, err := d.Download(context.Background(), Entry{Firm: "EY", Year: "2025", Industry: "FPA", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDownloadLocalErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("report"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	// the temp file path is taken by a directory, so creating it fails
	require.NoError(t, os.Mkdir(filepath.Join(dir, "EY_2025_FPA.pdf.part"), 0o755))

	d := NewDownloader(dir, WithRetryOptions(fastRetry))
	_, err := d.Download(context.Background(), Entry{Firm: "EY", Year: "2025", Industry: "FPA", URL: srv.URL})
	require.Error(t, err)
	var pe *fs.PathError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"503", &StatusError{Code: http.StatusServiceUnavailable}, true},
		{"429", &StatusError{Code: http.StatusTooManyRequests}, true},
		{"404", &StatusError{Code: http.StatusNotFound}, false},
		{"connection refused", errors.Wrap(&url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, "download"), true},
		{"truncated body", errors.Wrap(io.ErrUnexpectedEOF, "write x.pdf"), true},
		{"disk", errors.Wrap(&fs.PathError{Op: "open", Path: "x.pdf.part", Err: fs.ErrPermission}, "create report file"), false},
		{"cancelled", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, isTransient(c.err))
		})
	}
}

func TestDownloadAllSkipsFailures(t *testing.T) {
	var notFound int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			atomic.AddInt32(&notFound, 1)
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("report"))
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), WithRetryOptions(fastRetry))
	results := d.DownloadAll(context.Background(), []Entry{
		{Firm: "KPMG", Year: "2025", Industry: "Insights", URL: srv.URL + "/missing.pdf"},
		{Firm: "McKinsey", Year: "2025", Industry: "Bank", URL: srv.URL + "/bank.pdf"},
	})

	require.Len(t, results, 2)
	var se *StatusError
	assert.ErrorAs(t, results[0].Err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	// 404 is permanent: exactly one request
	assert.Equal(t, int32(1), atomic.LoadInt32(&notFound))

	assert.NoError(t, results[1].Err)
	assert.Equal(t, int64(len("report")), results[1].BytesWritten)
}
