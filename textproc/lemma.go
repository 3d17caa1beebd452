package textproc

import (
	"context"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"go.uber.org/zap"

	"consultai/utils/log"
)

var (
	lemmatizerOnce sync.Once
	lemmatizer     *golem.Lemmatizer
)

func englishLemmatizer() *golem.Lemmatizer {
	lemmatizerOnce.Do(func() {
		l, err := golem.New(en.New())
		if err != nil {
			log.Error(context.Background(), "load english lemma dictionary", zap.Error(err))
			return
		}
		lemmatizer = l
	})
	return lemmatizer
}

// Lemmatize maps an inflected lowercase word (plural noun, verb tense,
// comparative) to its dictionary base form. Unknown words come back as is.
func Lemmatize(word string) string {
	l := englishLemmatizer()
	if l == nil {
		return word
	}
	return l.LemmaLower(word)
}
