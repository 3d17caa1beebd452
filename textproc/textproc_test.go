package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanForChunking(t *testing.T) {
	raw := "Page 3 of 40\nBanks are re-\nwiring their   operating models!\n12\n" +
		"© 2025 McKinsey & Company. All rights reserved.\n" +
		"See https://www.mckinsey.com/ai for more (details).\nContact: ai@bcg.com"

	got := CleanForChunking(raw)
	assert.NotContains(t, got, "Page 3")
	assert.NotContains(t, got, "rights reserved")
	assert.NotContains(t, got, "https")
	assert.NotContains(t, got, "@")
	assert.NotContains(t, got, "!")
	assert.NotContains(t, got, "(")
	assert.Contains(t, got, "rewiring their operating models")
	assert.Contains(t, got, "for more details.")
	assert.Equal(t, strings.TrimSpace(got), got)
	assert.NotContains(t, got, "  ")
}

func TestPreprocess(t *testing.T) {
	got := Preprocess("The Banks are investing in AI, and 2025 is the year of GenAI.")
	assert.Equal(t, "banks investing ai year genai", got)
}

func TestCleanForSentiment(t *testing.T) {
	got := CleanForSentiment("Companies are seeing strong returns from AI investments in 2025!")
	assert.Equal(t, "company see strong return investment", got)
}

func TestLemmatize(t *testing.T) {
	tests := map[string]string{
		"companies":   "company",
		"businesses":  "business",
		"business":    "business",
		"processes":   "process",
		"banks":       "bank",
		"churches":    "church",
		"status":      "status",
		"analytics":   "analytics",
		"continuous":  "continuous",
		"investments": "investment",
		"gas":         "gas",
		"children":    "child",
		"growing":     "grow",
		"grew":        "grow",
		"reported":    "report",
		"higher":      "high",
		"consultai":   "consultai",
	}
	for in, want := range tests {
		assert.Equal(t, want, Lemmatize(in), in)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("AI adoption is rising. Banks invest heavily. Returns lag behind.")
	assert.Len(t, got, 3)
	assert.Equal(t, "Banks invest heavily.", got[1])
	assert.Nil(t, SplitSentences("   "))
}

func TestChunk(t *testing.T) {
	text := "One two three four. Five six seven. Eight nine. Ten eleven twelve thirteen fourteen."

	chunks := Chunk(text, 7)
	assert.Equal(t, []string{
		"One two three four. Five six seven.",
		"Eight nine. Ten eleven twelve thirteen fourteen.",
	}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, WordCount(c), 7)
	}

	// a single sentence longer than the limit is kept whole, without an
	// empty chunk before it
	long := Chunk("a b c d e f g h.", 3)
	assert.Equal(t, []string{"a b c d e f g h."}, long)

	assert.Empty(t, Chunk("", 10))
}

func TestChunkKeepsAllWords(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString("Generative models change how banks work today. ")
	}
	text := strings.TrimSpace(sb.String())

	chunks := Chunk(text, DefaultMaxWords)
	assert.Len(t, chunks, 3)
	total := 0
	for _, c := range chunks {
		total += WordCount(c)
	}
	assert.Equal(t, WordCount(text), total)
}

func TestStopWords(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("don't"))
	assert.False(t, IsStopWord("bank"))
	sw := StopWords()
	sw[0] = "changed"
	assert.True(t, IsStopWord("i"))
}
