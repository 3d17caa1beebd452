package pipeline

import (
	"context"

	"go.uber.org/zap"

	"consultai/store"
	"consultai/utils/log"
)

// AddSentiment scores every row of cleaned_texts.csv with the VADER
// compound, rewrites the file with a Sentiment column and stores the
// scores as benchmarks.
func (p *Pipeline) AddSentiment(ctx context.Context) ([]store.CleanedRow, error) {
	var rows []store.CleanedRow
	err := p.locked(ctx, func(ctx context.Context) error {
		var err error
		rows, err = p.addSentiment(ctx)
		return err
	})
	return rows, err
}

func (p *Pipeline) addSentiment(ctx context.Context) ([]store.CleanedRow, error) {
	path := p.cfg.Paths.CleanedTexts
	rows, err := store.ReadCleaned(path)
	if err != nil {
		return nil, err
	}

	benchmarks := make([]store.Benchmark, 0, len(rows))
	for i := range rows {
		rows[i].Sentiment = p.analyzer.Compound(rows[i].Text)
		rows[i].HasSentiment = true
		benchmarks = append(benchmarks, store.Benchmark{FirmReport: rows[i].FirmReport, Sentiment: rows[i].Sentiment})
	}

	if err := store.WriteCleaned(path, rows); err != nil {
		return nil, err
	}
	if p.repo != nil {
		if err := p.repo.SaveBenchmarks(ctx, benchmarks); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "sentiment added", zap.Int("rows", len(rows)), zap.String("file", path))
	return rows, nil
}
