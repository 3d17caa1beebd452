package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/utils/config"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := Open(config.DBConfig{Dialect: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	return NewRepo(db)
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "metadata.csv")
	rows := []ChunkRow{
		{Report: "BCG_2025_Reckoning.pdf", Firm: "BCG", Year: "2025", Industry: "Reckoning", ChunkID: 0, Text: "AI value, at scale."},
		{Report: "BCG_2025_Reckoning.pdf", Firm: "BCG", Year: "2025", Industry: "Reckoning", ChunkID: 1, Text: "Second \"quoted\" chunk."},
	}
	require.NoError(t, WriteMetadata(path, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "report,firm,year,industry,chunk_id,text\n")

	got, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadMetadataRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	_, err := ReadMetadata(path)
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestAnalysisRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis_results.csv")
	rows := []AnalysisRow{{
		ChunkRow:          ChunkRow{Report: "EY_2025_FPA.pdf", Firm: "EY", Year: "2025", Industry: "FPA", ChunkID: 3, Text: "text"},
		ProcessedText:     "text",
		TopKeywords:       "ai|finance",
		Topics:            "Topic 0|Topic 3",
		VaderSentiment:    0.4404,
		TextBlobSentiment: -0.125,
	}}
	require.NoError(t, WriteAnalysis(path, rows))

	got, err := ReadAnalysis(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestCleanedColumns(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.csv")
	require.NoError(t, WriteCleaned(plain, []CleanedRow{{FirmReport: "KPMG_Insights", Text: "growth"}}))
	got, err := ReadCleaned(plain)
	require.NoError(t, err)
	assert.False(t, got[0].HasSentiment)

	scored := filepath.Join(dir, "scored.csv")
	require.NoError(t, WriteCleaned(scored, []CleanedRow{{FirmReport: "KPMG_Insights", Text: "growth", Sentiment: 0.3818, HasSentiment: true}}))
	raw, err := os.ReadFile(scored)
	require.NoError(t, err)
	assert.Equal(t, "Firm_Report,Text,Sentiment\nKPMG_Insights,growth,0.3818\n", string(raw))

	got, err = ReadCleaned(scored)
	require.NoError(t, err)
	assert.True(t, got[0].HasSentiment)
	assert.Equal(t, 0.3818, got[0].Sentiment)
}

func TestOpenUnsupportedDialect(t *testing.T) {
	_, err := Open(config.DBConfig{Dialect: "postgres"})
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestRepoSaveReportReplacesChunks(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	report := Report{Name: "McKinsey_2025_State.pdf", Firm: "McKinsey", Year: "2025", Industry: "State"}
	require.NoError(t, repo.SaveReport(ctx, report, []Chunk{{ChunkID: 0, Text: "a"}, {ChunkID: 1, Text: "b"}}))
	require.NoError(t, repo.SaveReport(ctx, report, []Chunk{{ChunkID: 0, Text: "c"}}))

	reports, err := repo.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Chunks)

	chunks, err := repo.Chunks(ctx, report.Name)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c", chunks[0].Text)
}

func TestRepoUpsertAnalysesAndBenchmarks(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAnalyses(ctx, []ChunkAnalysis{{ReportName: "r.pdf", ChunkID: 0, Topics: "Topic 1"}}))
	require.NoError(t, repo.SaveAnalyses(ctx, []ChunkAnalysis{{ReportName: "r.pdf", ChunkID: 0, Topics: "Topic 2"}}))
	analyses, err := repo.Analyses(ctx, "r.pdf")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "Topic 2", analyses[0].Topics)

	require.NoError(t, repo.SaveBenchmarks(ctx, []Benchmark{{FirmReport: "EY_FPA", Sentiment: 0.5}, {FirmReport: "BCG_Reckoning", Sentiment: -0.2}}))
	require.NoError(t, repo.SaveBenchmarks(ctx, []Benchmark{{FirmReport: "EY_FPA", Sentiment: 0.7}}))
	benchmarks, err := repo.Benchmarks(ctx)
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)
	assert.Equal(t, "BCG_Reckoning", benchmarks[0].FirmReport)
	assert.Equal(t, 0.7, benchmarks[1].Sentiment)
	assert.Equal(t, "EY", benchmarks[1].Firm())

	b, err := repo.Benchmark(ctx, "BCG_Reckoning")
	require.NoError(t, err)
	assert.Equal(t, -0.2, b.Sentiment)

	_, err = repo.Benchmark(ctx, "Nope_X")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
