package pipeline

import (
	"context"

	"go.uber.org/zap"

	"consultai/analysis"
	"consultai/store"
	"consultai/utils/log"
	"consultai/utils/progress_reporter"
)

// Analyze runs keyword, topic and sentiment scoring over metadata.csv and
// writes analysis_results.csv.
func (p *Pipeline) Analyze(ctx context.Context) (analysis.Result, error) {
	var res analysis.Result
	err := p.locked(ctx, func(ctx context.Context) error {
		var err error
		res, err = p.analyze(ctx)
		return err
	})
	return res, err
}

func (p *Pipeline) analyze(ctx context.Context) (analysis.Result, error) {
	reporter := progress_reporter.NewProgressReporter("analyze")
	reporter.StartRecord()
	defer func() {
		reporter.EndRecord()
		reporter.Report(ctx)
	}()

	records, err := store.ReadMetadata(p.cfg.Paths.MetadataCSV())
	if err != nil {
		return analysis.Result{}, err
	}

	var res analysis.Result
	err = reporter.Stage("score", func() error {
		var aerr error
		res, aerr = analysis.Analyze(records, p.analyzer, analysis.OptionsFromConfig(p.cfg.Analysis))
		return aerr
	})
	if err != nil {
		return res, err
	}

	err = reporter.Stage("write", func() error {
		return store.WriteAnalysis(p.cfg.Paths.AnalysisCSV(), res.Rows)
	})
	if err != nil {
		return res, err
	}

	if p.repo != nil {
		err = reporter.Stage("persist", func() error {
			return p.repo.SaveAnalyses(ctx, analysisModels(res.Rows))
		})
		if err != nil {
			return res, err
		}
	}

	for i, terms := range res.TopicTerms {
		log.Info(ctx, "topic", zap.Int("topic", i), zap.Strings("terms", terms))
	}
	log.Info(ctx, "analysis complete", zap.Int("chunks", len(res.Rows)), zap.String("file", p.cfg.Paths.AnalysisCSV()))
	return res, nil
}

func analysisModels(rows []store.AnalysisRow) []store.ChunkAnalysis {
	out := make([]store.ChunkAnalysis, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.ChunkAnalysis{
			ReportName:        r.Report,
			ChunkID:           r.ChunkID,
			TopKeywords:       r.TopKeywords,
			Topics:            r.Topics,
			VaderSentiment:    r.VaderSentiment,
			TextBlobSentiment: r.TextBlobSentiment,
		})
	}
	return out
}
