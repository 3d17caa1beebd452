package sentiment

import "fmt"

const (
	Positive = "Positive"
	Negative = "Negative"
	Neutral  = "Neutral"
)

// Thresholds bound the Positive and Negative labels.
type Thresholds struct {
	Positive float64
	Negative float64
}

var DefaultThresholds = Thresholds{Positive: 0.05, Negative: 0}

// Label buckets a compound score: Positive above t.Positive,
// Negative below t.Negative, Neutral otherwise.
func Label(compound float64, t Thresholds) string {
	switch {
	case compound > t.Positive:
		return Positive
	case compound < t.Negative:
		return Negative
	default:
		return Neutral
	}
}

// Legend renders the threshold hint shown next to a score.
func (t Thresholds) Legend() string {
	return fmt.Sprintf("(Positive >%g, Negative <%g)", t.Positive, t.Negative)
}
