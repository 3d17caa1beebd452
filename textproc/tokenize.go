package textproc

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jdkato/prose/tokenize"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	wordTokenizer = tokenize.NewTreebankWordTokenizer()

	sentenceOnce      sync.Once
	sentenceTokenizer *sentences.DefaultSentenceTokenizer
	sentenceErr       error

	sentenceEnd = regexp.MustCompile(`([.!?])\s+`)
)

// Tokenize splits text into Penn Treebank word tokens.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return wordTokenizer.Tokenize(text)
}

// SplitSentences uses the punkt English model. If the model cannot be
// loaded the text is split on terminal punctuation instead.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentenceOnce.Do(func() {
		sentenceTokenizer, sentenceErr = english.NewSentenceTokenizer(nil)
	})
	if sentenceErr != nil {
		return splitOnPunctuation(text)
	}

	var out []string
	for _, s := range sentenceTokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitOnPunctuation(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
