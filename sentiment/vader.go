package sentiment

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

// Scores are VADER's proportions and the normalised compound in [-1, 1].
type Scores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer scores text with VADER over the full upstream lexicon, boosters
// and idioms. It is safe for concurrent use once built.
type Analyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// NewAnalyzerWithLexicon layers domain ratings (-4..4) over the VADER
// lexicon.
func NewAnalyzerWithLexicon(extra map[string]float64) *Analyzer {
	a := NewAnalyzer()
	for w, v := range extra {
		a.sia.Lexicon[strings.ToLower(w)] = v
	}
	return a
}

// Compound is PolarityScores(text).Compound.
func (a *Analyzer) Compound(text string) float64 {
	return a.PolarityScores(text).Compound
}

// PolarityScores rates text. govader tokenizes on single spaces, so runs of
// whitespace (PDF line breaks, tabs) are collapsed first.
func (a *Analyzer) PolarityScores(text string) Scores {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Scores{}
	}
	s := a.sia.PolarityScores(strings.Join(fields, " "))
	return Scores{
		Neg:      s.Negative,
		Neu:      s.Neutral,
		Pos:      s.Positive,
		Compound: s.Compound,
	}
}

// Valence is the lexicon rating of a lowercase word.
func (a *Analyzer) Valence(word string) (float64, bool) {
	v, ok := a.sia.Lexicon[word]
	return v, ok
}

var (
	sharedOnce     sync.Once
	sharedAnalyzer *Analyzer
)

// shared is the package analyzer backing Polarity.
func shared() *Analyzer {
	sharedOnce.Do(func() {
		sharedAnalyzer = NewAnalyzer()
	})
	return sharedAnalyzer
}

var negations = toSet(
	"aint", "arent", "cannot", "cant", "couldnt", "darent", "didnt", "doesnt",
	"dont", "hadnt", "hasnt", "havent", "isnt", "mightnt", "mustnt", "neither",
	"neednt", "never", "none", "nope", "nor", "not", "nothing", "nowhere",
	"oughtnt", "shant", "shouldnt", "wasnt", "werent", "without", "wont",
	"wouldnt", "rarely", "seldom", "despite",
)

func isNegated(w string) bool {
	if _, ok := negations[w]; ok {
		return true
	}
	return strings.Contains(w, "n't")
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
