package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/pipeline"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`paths:
  report_dir: %[1]s/reports
  processed_dir: %[1]s/processed
  cache_dir: %[1]s/cache
  cleaned_texts: %[1]s/cleaned_texts.csv
  upload_dir: %[1]s/uploads
  workbook: %[1]s/processed/out.xlsx
db:
  dialect: sqlite
  dsn: %[1]s/test.db
download:
  reports: []
log:
  level: error
`, filepath.ToSlash(dir))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0o755))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		logLevel = ""
		verbose = false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"download", "process", "sentiment", "analyze", "export", "serve", "mcp", "run"} {
		assert.True(t, names[want], want)
	}
}

func TestProcessEmptyReportDir(t *testing.T) {
	path := writeConfig(t)
	_, err := execute(t, "process", "-c", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrNoValidPDFs)
}

func TestDownloadEmptyCatalog(t *testing.T) {
	path := writeConfig(t)
	out, err := execute(t, "download", "-c", path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk:\n  max_words: 0\n"), 0o644))
	_, err := execute(t, "download", "-c", path)
	assert.Error(t, err)
}
