package textproc

import "strings"

const DefaultMaxWords = 1000

// Chunk packs whole sentences into chunks of at most maxWords words. A
// sentence longer than maxWords becomes a chunk on its own.
func Chunk(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	var (
		chunks    []string
		current   []string
		wordCount int
	)
	for _, sentence := range SplitSentences(text) {
		words := len(strings.Fields(sentence))
		if wordCount+words > maxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, wordCount = nil, 0
		}
		current = append(current, sentence)
		wordCount += words
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
