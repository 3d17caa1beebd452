package analysis

import (
	"consultai/sentiment"
	"consultai/store"
	"consultai/textproc"
	"consultai/utils/config"
)

type Options struct {
	MaxFeatures int
	TopKeywords int
	Topics      TopicOptions
}

func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		MaxFeatures: cfg.MaxFeatures,
		TopKeywords: cfg.TopKeywords,
		Topics: TopicOptions{
			NumTopics:     cfg.NumTopics,
			Iterations:    cfg.LDAIterations,
			MinProb:       cfg.TopicMinProb,
			MaxFeatures:   cfg.MaxFeatures,
			TermsPerTopic: cfg.TopicTerms,
		},
	}
}

type Result struct {
	Rows []store.AnalysisRow
	// TopicTerms[i] are the top words of "Topic i".
	TopicTerms [][]string
}

// Analyze scores every chunk: keywords and topics on the preprocessed text,
// both sentiment measures on the raw text.
func Analyze(records []store.ChunkRow, analyzer *sentiment.Analyzer, opts Options) (Result, error) {
	if len(records) == 0 {
		return Result{}, ErrEmptyCorpus
	}
	if opts.TopKeywords <= 0 {
		opts.TopKeywords = 5
	}

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = textproc.Preprocess(r.Text)
	}

	keywords, err := TopKeywords(docs, opts.MaxFeatures, opts.TopKeywords)
	if err != nil {
		return Result{}, err
	}
	model, err := FitTopics(docs, opts.Topics)
	if err != nil {
		return Result{}, err
	}
	labels := model.Labels()

	rows := make([]store.AnalysisRow, len(records))
	for i, r := range records {
		rows[i] = store.AnalysisRow{
			ChunkRow:          r,
			ProcessedText:     docs[i],
			TopKeywords:       keywords[i],
			Topics:            labels[i],
			VaderSentiment:    analyzer.Compound(r.Text),
			TextBlobSentiment: sentiment.Polarity(r.Text),
		}
	}
	return Result{Rows: rows, TopicTerms: model.Terms()}, nil
}
