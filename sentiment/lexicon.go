package sentiment

import (
	"bufio"
	"embed"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed lexicon/polarity.txt
var lexiconFS embed.FS

// parseLexicon reads "word<TAB>score" lines; '#' starts a comment line.
func parseLexicon(name string) (map[string]float64, error) {
	f, err := lexiconFS.Open("lexicon/" + name)
	if err != nil {
		return nil, errors.Wrapf(err, "open lexicon %s", name)
	}
	defer f.Close()

	lex := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, errors.Errorf("lexicon %s: malformed line %q", name, line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "lexicon %s: %q", name, line)
		}
		lex[fields[0]] = v
	}
	return lex, scanner.Err()
}

func mustLexicon(name string) map[string]float64 {
	lex, err := parseLexicon(name)
	if err != nil {
		panic(err)
	}
	return lex
}
