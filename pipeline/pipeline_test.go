package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/cache/chunk_cache"
	"consultai/cache/score_cache"
	"consultai/distributed/redis_lock"
	"consultai/pdftext"
	"consultai/pdftext/pdftest"
	"consultai/sentiment"
	"consultai/store"
	"consultai/utils/config"
)

type fixture struct {
	cfg    config.Config
	repo   *store.Repo
	chunks *chunk_cache.Cache
	mr     *miniredis.Miniredis
	p      *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		ReportDir:    filepath.Join(dir, "reports"),
		ProcessedDir: filepath.Join(dir, "processed"),
		CacheDir:     filepath.Join(dir, "cache"),
		CleanedTexts: filepath.Join(dir, "cleaned_texts.csv"),
		UploadDir:    filepath.Join(dir, "uploads"),
	}
	cfg.Chunk.MaxWords = 12
	cfg.Analysis.NumTopics = 2
	cfg.Analysis.LDAIterations = 10
	require.NoError(t, os.MkdirAll(cfg.Paths.ReportDir, 0o755))

	db, err := store.Open(config.DBConfig{Dialect: "sqlite", DSN: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	repo := store.NewRepo(db)

	chunks, err := chunk_cache.Open(cfg.Paths.CacheDir)
	require.NoError(t, err)
	t.Cleanup(func() { chunks.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	fac := redis_lock.NewLockFac(client)
	t.Cleanup(func() {
		fac.Close()
		client.Close()
	})

	p := New(cfg,
		WithRepo(repo),
		WithChunkCache(chunks),
		WithScoreCache(score_cache.New(client, time.Hour)),
		WithLockFac(fac),
	)
	return &fixture{cfg: cfg, repo: repo, chunks: chunks, mr: mr, p: p}
}

func (f *fixture) writeReport(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.ReportDir, name), data, 0o644))
}

func seedReports(t *testing.T, f *fixture) {
	f.writeReport(t, "McKinsey_2025_State.pdf", pdftest.Build(
		"Organizations report great value from AI. Adoption is growing fast across every function.",
		"Leaders see excellent returns and strong growth.",
	))
	f.writeReport(t, "EY_2025_FPA.pdf", pdftest.Build(
		"Finance teams face terrible data problems. Forecasting remains a hard and painful process.",
	))
	// invalid name, not a pdf, not a pdf extension
	f.writeReport(t, "notes.pdf", pdftest.Build("Ignored."))
	f.writeReport(t, "KPMG_2025_Insights.pdf", []byte("plain text, not a pdf"))
	f.writeReport(t, "BCG_2025_Reckoning.txt", []byte("skipped by extension"))
}

func TestProcessDir(t *testing.T) {
	f := newFixture(t)
	seedReports(t, f)
	ctx := context.Background()

	summary, err := f.p.ProcessDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EY_2025_FPA.pdf", "McKinsey_2025_State.pdf"}, summary.Processed)
	require.Len(t, summary.Skipped, 2)
	assert.Greater(t, summary.Chunks, 2)

	rows, err := store.ReadMetadata(f.cfg.Paths.MetadataCSV())
	require.NoError(t, err)
	assert.Len(t, rows, summary.Chunks)
	for _, r := range rows {
		assert.LessOrEqual(t, len(strings.Fields(r.Text)), 12+12, "chunk %s/%d", r.Report, r.ChunkID)
		assert.NotEmpty(t, r.Text)
	}
	assert.Equal(t, "EY", rows[0].Firm)
	assert.Equal(t, "FPA", rows[0].Industry)
	assert.Equal(t, 0, rows[0].ChunkID)

	cleaned, err := store.ReadCleaned(f.cfg.Paths.CleanedTexts)
	require.NoError(t, err)
	require.Len(t, cleaned, 2)
	assert.Equal(t, "EY_FPA", cleaned[0].FirmReport)
	assert.Equal(t, "McKinsey_State", cleaned[1].FirmReport)
	assert.NotContains(t, cleaned[1].Text, "from")

	cached, err := f.chunks.List("McKinsey_2025_State.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, cached)

	reports, err := f.repo.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, reports[1].Pages)
}

func TestProcessDirNoValidPDFs(t *testing.T) {
	f := newFixture(t)
	f.writeReport(t, "notes.pdf", pdftest.Build("bad name"))

	_, err := f.p.ProcessDir(context.Background())
	assert.ErrorIs(t, err, ErrNoValidPDFs)

	_, statErr := os.Stat(f.cfg.Paths.MetadataCSV())
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(f.cfg.Paths.CleanedTexts)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAddSentimentAndAnalyze(t *testing.T) {
	f := newFixture(t)
	seedReports(t, f)
	ctx := context.Background()

	_, err := f.p.ProcessDir(ctx)
	require.NoError(t, err)

	rows, err := f.p.AddSentiment(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].Sentiment, 0.0, "EY report is negative")
	assert.Greater(t, rows[1].Sentiment, 0.0, "McKinsey report is positive")

	raw, err := os.ReadFile(f.cfg.Paths.CleanedTexts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "Firm_Report,Text,Sentiment\n"))

	benchmarks, err := f.repo.Benchmarks(ctx)
	require.NoError(t, err)
	assert.Len(t, benchmarks, 2)

	res, err := f.p.Analyze(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Rows)
	assert.Len(t, res.TopicTerms, 2)

	results, err := store.ReadAnalysis(f.cfg.Paths.AnalysisCSV())
	require.NoError(t, err)
	assert.Len(t, results, len(res.Rows))
	for _, r := range results {
		assert.NotEmpty(t, r.Topics)
	}

	analyses, err := f.repo.Analyses(ctx, "")
	require.NoError(t, err)
	assert.Len(t, analyses, len(res.Rows))

	// the run lock is released after every stage
	assert.Empty(t, f.mr.Keys())
}

func TestRunWithoutDownloader(t *testing.T) {
	f := newFixture(t)
	seedReports(t, f)

	require.NoError(t, f.p.Run(context.Background(), nil, nil))
	_, err := os.Stat(f.cfg.Paths.AnalysisCSV())
	assert.NoError(t, err)
}

func TestScoreUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := pdftest.Build("The outlook is excellent and the results were great.")

	res, err := f.p.ScoreUpload(ctx, "outlook.pdf", bytes.NewReader(data))
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Greater(t, res.Compound, 0.05)
	assert.Equal(t, "Positive", res.Label)
	assert.Equal(t, 1, res.Pages)
	assert.NotEmpty(t, res.ID)
	assert.FileExists(t, filepath.Join(f.cfg.Paths.UploadDir, res.ID+".pdf"))

	again, err := f.p.ScoreUpload(ctx, "copy.pdf", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.Compound, again.Compound)
	assert.Equal(t, "copy.pdf", again.Name)

	// a cached score is labelled with the current thresholds
	bound := res.Compound + 0.1
	f.p.SetThresholds(sentiment.Thresholds{Positive: bound, Negative: -bound})
	relabelled, err := f.p.ScoreUpload(ctx, "copy.pdf", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, relabelled.Cached)
	assert.Equal(t, "Neutral", relabelled.Label)
}

func TestScoreUploadRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.ScoreUpload(ctx, "x.pdf", strings.NewReader("not a pdf"))
	assert.ErrorIs(t, err, pdftext.ErrNotPDF)

	small := New(config.Config{Dashboard: config.DashboardConfig{MaxUploadMB: 1}})
	_, err = small.ScoreUpload(ctx, "big.pdf", bytes.NewReader(make([]byte, 2<<20)))
	assert.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestLabelAndLegend(t *testing.T) {
	p := New(config.Default())
	assert.Equal(t, "Positive", p.Label(0.3))
	assert.Equal(t, "Neutral", p.Label(0.01))
	assert.Equal(t, "Negative", p.Label(-0.3))
	assert.Equal(t, "(Positive >0.05, Negative <0)", p.Legend())

	p.SetThresholds(sentiment.Thresholds{Positive: 0.5, Negative: -0.5})
	assert.Equal(t, "Neutral", p.Label(0.3))
	assert.Equal(t, "Neutral", p.Label(-0.3))
	assert.Equal(t, "(Positive >0.5, Negative <-0.5)", p.Legend())
}
