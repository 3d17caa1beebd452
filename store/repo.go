package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

var ErrReportNotFound = errors.New("report not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) DB() *gorm.DB {
	return r.db
}

// SaveReport upserts the report by name and replaces its chunks.
func (r *Repo) SaveReport(ctx context.Context, report Report, chunks []Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report.Chunks = len(chunks)
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"firm", "year", "industry", "title", "author", "pages", "chunks", "decrypted", "updated_at"}),
		}).Create(&report).Error
		if err != nil {
			return errors.Wrapf(err, "upsert report %s", report.Name)
		}

		if err := tx.Where("report_name = ?", report.Name).Delete(&Chunk{}).Error; err != nil {
			return errors.Wrapf(err, "delete chunks of %s", report.Name)
		}
		if len(chunks) == 0 {
			return nil
		}
		for i := range chunks {
			chunks[i].ID = 0
			chunks[i].ReportName = report.Name
		}
		return errors.Wrapf(tx.CreateInBatches(chunks, batchSize).Error, "insert chunks of %s", report.Name)
	})
}

func (r *Repo) Reports(ctx context.Context) ([]Report, error) {
	var reports []Report
	err := r.db.WithContext(ctx).Order("name").Find(&reports).Error
	return reports, errors.Wrap(err, "list reports")
}

func (r *Repo) Chunks(ctx context.Context, report string) ([]Chunk, error) {
	var chunks []Chunk
	err := r.db.WithContext(ctx).Where("report_name = ?", report).Order("chunk_id").Find(&chunks).Error
	return chunks, errors.Wrapf(err, "list chunks of %s", report)
}

func (r *Repo) SaveAnalyses(ctx context.Context, analyses []ChunkAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_name"}, {Name: "chunk_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"top_keywords", "topics", "vader_sentiment", "text_blob_sentiment", "updated_at"}),
	}).CreateInBatches(analyses, batchSize).Error
	return errors.Wrap(err, "upsert analyses")
}

func (r *Repo) Analyses(ctx context.Context, report string) ([]ChunkAnalysis, error) {
	var analyses []ChunkAnalysis
	q := r.db.WithContext(ctx).Order("report_name").Order("chunk_id")
	if report != "" {
		q = q.Where("report_name = ?", report)
	}
	err := q.Find(&analyses).Error
	return analyses, errors.Wrap(err, "list analyses")
}

func (r *Repo) SaveBenchmarks(ctx context.Context, benchmarks []Benchmark) error {
	if len(benchmarks) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "firm_report"}},
		DoUpdates: clause.AssignmentColumns([]string{"sentiment", "updated_at"}),
	}).Create(&benchmarks).Error
	return errors.Wrap(err, "upsert benchmarks")
}

func (r *Repo) Benchmarks(ctx context.Context) ([]Benchmark, error) {
	var benchmarks []Benchmark
	err := r.db.WithContext(ctx).Order("firm_report").Find(&benchmarks).Error
	return benchmarks, errors.Wrap(err, "list benchmarks")
}

// Benchmark looks up one Firm_Industry row.
func (r *Repo) Benchmark(ctx context.Context, firmReport string) (Benchmark, error) {
	var b Benchmark
	err := r.db.WithContext(ctx).Where("firm_report = ?", firmReport).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b, errors.Wrap(ErrReportNotFound, firmReport)
	}
	return b, errors.Wrap(err, "get benchmark")
}
