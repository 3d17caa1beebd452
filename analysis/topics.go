package analysis

import (
	"fmt"
	"strings"

	"github.com/james-bowman/nlp"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultNumTopics    = 5
	DefaultIterations   = 100
	DefaultTopicMinProb = 0.01
)

type TopicOptions struct {
	NumTopics   int
	Iterations  int
	MinProb     float64
	MaxFeatures int
	// TermsPerTopic bounds the words reported by TopicModel.Terms.
	TermsPerTopic int
}

func (o TopicOptions) withDefaults() TopicOptions {
	if o.NumTopics <= 0 {
		o.NumTopics = DefaultNumTopics
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.MinProb <= 0 {
		o.MinProb = DefaultTopicMinProb
	}
	if o.TermsPerTopic <= 0 {
		o.TermsPerTopic = 8
	}
	return o
}

// TopicModel is a fitted LDA model over a corpus.
type TopicModel struct {
	// DocTopics is topics x docs.
	DocTopics mat.Matrix
	// TopicWords is topics x terms.
	TopicWords mat.Matrix
	terms      []string
	opts       TopicOptions
}

func FitTopics(docs []string, opts TopicOptions) (*TopicModel, error) {
	opts = opts.withDefaults()
	vectoriser, counts, err := vectorise(docs, opts.MaxFeatures)
	if err != nil {
		return nil, err
	}

	lda := nlp.NewLatentDirichletAllocation(opts.NumTopics)
	lda.Iterations = opts.Iterations
	lda.TransformationPasses = opts.Iterations / 2
	if lda.TransformationPasses == 0 {
		lda.TransformationPasses = 1
	}

	docTopics, err := lda.FitTransform(counts)
	if err != nil {
		return nil, errors.Wrap(err, "lda")
	}
	return &TopicModel{
		DocTopics:  docTopics,
		TopicWords: lda.Components(),
		terms:      vocabulary(vectoriser),
		opts:       opts,
	}, nil
}

// Labels renders, per doc, every topic whose probability reaches MinProb as
// "Topic i|Topic j" in ascending topic order.
func (m *TopicModel) Labels() []string {
	topics, docs := m.DocTopics.Dims()
	out := make([]string, docs)
	for doc := 0; doc < docs; doc++ {
		var names []string
		for topic := 0; topic < topics; topic++ {
			if m.DocTopics.At(topic, doc) >= m.opts.MinProb {
				names = append(names, topicName(topic))
			}
		}
		out[doc] = strings.Join(names, "|")
	}
	return out
}

// Terms lists the highest weighted words of each topic.
func (m *TopicModel) Terms() [][]string {
	topics, _ := m.TopicWords.Dims()
	out := make([][]string, topics)
	wordsByTopic := mat.DenseCopyOf(m.TopicWords.T())
	for topic := 0; topic < topics; topic++ {
		out[topic] = topTerms(wordsByTopic, topic, m.terms, m.opts.TermsPerTopic)
	}
	return out
}

// Topics fits a model and returns its per-doc labels.
func Topics(docs []string, opts TopicOptions) ([]string, error) {
	model, err := FitTopics(docs, opts)
	if err != nil {
		return nil, err
	}
	return model.Labels(), nil
}

func topicName(i int) string {
	return fmt.Sprintf("Topic %d", i)
}
