package analysis

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/sentiment"
	"consultai/store"
)

var corpus = []string{
	"bank bank bank lending credit",
	"insurance insurance insurance claims underwriting",
	"credit claims",
	"lending underwriting",
}

func TestTopKeywords(t *testing.T) {
	got, err := TopKeywords(corpus, 1000, 2)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "bank", strings.Split(got[0], "|")[0])
	assert.Equal(t, "insurance", strings.Split(got[1], "|")[0])
	for _, kw := range got {
		assert.LessOrEqual(t, len(strings.Split(kw, "|")), 2)
	}
}

func TestTopKeywordsMaxFeatures(t *testing.T) {
	got, err := TopKeywords(corpus, 2, 5)
	require.NoError(t, err)

	// only the two most frequent terms survive
	for _, kw := range got {
		for _, term := range strings.Split(kw, "|") {
			if term == "" {
				continue
			}
			assert.Contains(t, []string{"bank", "insurance"}, term)
		}
	}
}

func TestTopKeywordsEmpty(t *testing.T) {
	_, err := TopKeywords(nil, 10, 5)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

var topicLabel = regexp.MustCompile(`^Topic [0-4](\|Topic [0-4])*$`)

func TestTopics(t *testing.T) {
	model, err := FitTopics(corpus, TopicOptions{NumTopics: 5, Iterations: 20})
	require.NoError(t, err)

	labels := model.Labels()
	require.Len(t, labels, len(corpus))
	for _, l := range labels {
		assert.Regexp(t, topicLabel, l)
	}

	terms := model.Terms()
	assert.Len(t, terms, 5)
	for _, words := range terms {
		assert.LessOrEqual(t, len(words), 8)
	}
}

func TestAnalyze(t *testing.T) {
	records := []store.ChunkRow{
		{Report: "a.pdf", ChunkID: 0, Text: "The bank delivered good lending growth."},
		{Report: "a.pdf", ChunkID: 1, Text: "Insurance claims were not good this year."},
	}
	res, err := Analyze(records, sentiment.NewAnalyzer(), Options{TopKeywords: 3, Topics: TopicOptions{NumTopics: 2, Iterations: 10}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	first := res.Rows[0]
	assert.Equal(t, records[0], first.ChunkRow)
	assert.Equal(t, "bank delivered good lending growth", first.ProcessedText)
	assert.Greater(t, first.VaderSentiment, 0.0)
	assert.Greater(t, first.TextBlobSentiment, 0.0)
	assert.Less(t, res.Rows[1].VaderSentiment, 0.0)
	assert.Len(t, res.TopicTerms, 2)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(nil, sentiment.NewAnalyzer(), Options{})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestFrequentTerms(t *testing.T) {
	got, err := FrequentTerms("risk credit risk bank risk credit", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"risk", "credit"}, got)

	_, err = FrequentTerms("", 2)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}
