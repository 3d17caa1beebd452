package analysis

import (
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var ErrEmptyCorpus = errors.New("empty corpus")

// vectorise fits a count vectoriser on docs and keeps only the maxFeatures
// most frequent terms, ties broken alphabetically.
func vectorise(docs []string, maxFeatures int) (*nlp.CountVectoriser, mat.Matrix, error) {
	if len(docs) == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	vectoriser := nlp.NewCountVectoriser()
	counts, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "count terms")
	}
	if len(vectoriser.Vocabulary) == 0 {
		return nil, nil, ErrEmptyCorpus
	}
	if maxFeatures <= 0 || len(vectoriser.Vocabulary) <= maxFeatures {
		return vectoriser, counts, nil
	}

	type termFreq struct {
		term string
		freq float64
	}
	_, cols := counts.Dims()
	freqs := make([]termFreq, 0, len(vectoriser.Vocabulary))
	for term, row := range vectoriser.Vocabulary {
		var f float64
		for c := 0; c < cols; c++ {
			f += counts.At(row, c)
		}
		freqs = append(freqs, termFreq{term, f})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].freq != freqs[j].freq {
			return freqs[i].freq > freqs[j].freq
		}
		return freqs[i].term < freqs[j].term
	})

	// refit on the reduced vocabulary, indexed alphabetically
	kept := make([]string, 0, maxFeatures)
	for _, tf := range freqs[:maxFeatures] {
		kept = append(kept, tf.term)
	}
	sort.Strings(kept)
	vocab := make(map[string]int, len(kept))
	for i, term := range kept {
		vocab[term] = i
	}
	vectoriser.Vocabulary = vocab

	counts, err = vectoriser.Transform(docs...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "count terms")
	}
	return vectoriser, counts, nil
}

// vocabulary returns the terms indexed by their row in the term matrix.
func vocabulary(v *nlp.CountVectoriser) []string {
	terms := make([]string, len(v.Vocabulary))
	for term, i := range v.Vocabulary {
		terms[i] = term
	}
	return terms
}

// TopKeywords weights terms by TF-IDF and returns, per doc, its k highest
// weighted terms joined with "|". Docs without terms get "".
func TopKeywords(docs []string, maxFeatures, k int) ([]string, error) {
	vectoriser, counts, err := vectorise(docs, maxFeatures)
	if err != nil {
		return nil, err
	}

	tfidf := nlp.NewTfidfTransformer()
	weights, err := tfidf.FitTransform(counts)
	if err != nil {
		return nil, errors.Wrap(err, "tf-idf")
	}

	terms := vocabulary(vectoriser)
	out := make([]string, len(docs))
	for doc := range docs {
		out[doc] = strings.Join(topTerms(weights, doc, terms, k), "|")
	}
	return out, nil
}

// topTerms ranks the rows of column col of a term x doc matrix.
func topTerms(m mat.Matrix, col int, terms []string, k int) []string {
	type weighted struct {
		term string
		w    float64
	}
	rows, _ := m.Dims()
	ranked := make([]weighted, 0, rows)
	for row := 0; row < rows; row++ {
		if w := m.At(row, col); w > 0 {
			ranked = append(ranked, weighted{terms[row], w})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].w != ranked[j].w {
			return ranked[i].w > ranked[j].w
		}
		return ranked[i].term < ranked[j].term
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.term)
	}
	return out
}

// FrequentTerms returns the k most frequent terms of a single document.
// TF-IDF degenerates on a one-document corpus, so raw counts rank instead.
func FrequentTerms(doc string, k int) ([]string, error) {
	vectoriser, counts, err := vectorise([]string{doc}, 0)
	if err != nil {
		return nil, err
	}
	return topTerms(counts, 0, vocabulary(vectoriser), k), nil
}
