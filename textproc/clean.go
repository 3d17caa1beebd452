package textproc

import (
	"regexp"
	"strings"
)

// boilerplate found in consulting-firm PDFs, matched line by line before
// whitespace is collapsed
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*page\s+\d+(\s+of\s+\d+)?\s*$`),
	regexp.MustCompile(`(?m)^\s*\d{1,4}\s*$`),
	regexp.MustCompile(`(?im)^.*(copyright|©)\s*(©\s*)?\d{4}.*$`),
	regexp.MustCompile(`(?im)^.*all rights reserved.*$`),
	regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`),
	regexp.MustCompile(`(?i)\S+@\S+\.[a-z]{2,}`),
}

var (
	hyphenBreak   = regexp.MustCompile(`(\p{L})-\n(\p{L})`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	specialChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,-]`)
	nonLetters    = regexp.MustCompile(`[^a-zA-Z\s]`)
)

// StripBoilerplate removes page furniture (page numbers, copyright and
// rights lines, URLs, e-mail addresses) and rejoins words hyphenated across
// a line break.
func StripBoilerplate(text string) string {
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	for _, re := range boilerplatePatterns {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

// CleanForChunking prepares extracted text for sentence splitting: sentence
// punctuation survives, other symbols are dropped.
func CleanForChunking(text string) string {
	text = StripBoilerplate(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = specialChars.ReplaceAllString(text, "")
	// dropped symbols can leave double spaces behind
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Preprocess is the analysis form of a chunk: lowercase alphabetic tokens
// without stop words, space separated.
func Preprocess(text string) string {
	tokens := Tokenize(strings.ToLower(text))
	kept := tokens[:0]
	for _, t := range tokens {
		if isAlpha(t) && !IsStopWord(t) {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// CleanForSentiment is the dashboard form of a whole report: letters only,
// no stop words, no tokens of three letters or fewer, lemmatized.
func CleanForSentiment(text string) string {
	text = nonLetters.ReplaceAllString(strings.ToLower(text), "")
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		tokens = strings.Fields(text)
	}

	cleaned := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if IsStopWord(t) || len(t) <= 3 {
			continue
		}
		cleaned = append(cleaned, Lemmatize(t))
	}
	return strings.Join(cleaned, " ")
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}
