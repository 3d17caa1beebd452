package sentiment

import (
	"strings"
	"sync"
	"unicode"
)

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"extremely":  1.5,
	"highly":     1.3,
	"incredibly": 1.5,
	"most":       1.2,
	"quite":      1.1,
	"somewhat":   0.8,
	"slightly":   0.7,
}

var (
	polarityOnce sync.Once
	polarityLex  map[string]float64
)

// vaderScale maps VADER ratings (-4..4) onto polarity (-1..1).
const vaderScale = 4.0

// polarityLexicon is every VADER word rescaled to [-1, 1], with the
// pattern adjective scores of polarity.txt taking precedence.
func polarityLexicon() map[string]float64 {
	polarityOnce.Do(func() {
		base := shared().sia.Lexicon
		lex := make(map[string]float64, len(base))
		for w, v := range base {
			if isWord(w) {
				lex[w] = clamp(v / vaderScale)
			}
		}
		for w, v := range mustLexicon("polarity.txt") {
			lex[w] = v
		}
		polarityLex = lex
	})
	return polarityLex
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' {
			return false
		}
	}
	return s != ""
}

// Polarity averages the polarity of every lexicon word in text, in [-1, 1].
// A preceding intensifier scales a hit, and a negation within the two
// previous words flips it by -0.5. Text with no hits scores 0.
func Polarity(text string) float64 {
	lex := polarityLexicon()
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum float64
	hits := 0
	for i, w := range words {
		p, ok := lex[w]
		if !ok {
			continue
		}
		if i > 0 {
			if m, ok := intensifiers[words[i-1]]; ok {
				p *= m
			}
		}
		for back := 1; back <= 2 && i-back >= 0; back++ {
			if isNegated(words[i-back]) {
				p *= -0.5
				break
			}
		}
		sum += clamp(p)
		hits++
	}
	if hits == 0 {
		return 0
	}
	return clamp(sum / float64(hits))
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
