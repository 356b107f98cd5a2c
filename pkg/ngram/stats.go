package ngram

import (
	"fmt"
	"math"
	"slices"
)

// Entropy returns the cross-entropy of text under the model, in bits: the
// average LogProb over every position of the padded text that has a full
// order-1 context. It wraps ErrDegenerateText when no position qualifies.
func (m *Model) Entropy(text []string) (float64, error) {
	padded := slices.Concat(m.leftPad, text, m.rightPad)
	scored := len(padded) - (m.order - 1)
	if scored <= 0 {
		return 0, fmt.Errorf("%w: %d tokens after padding for order %d", ErrDegenerateText, len(padded), m.order)
	}

	var e float64
	for i := m.order - 1; i < len(padded); i++ {
		e += m.LogProb(padded[i], padded[i-m.order+1:i])
	}
	return e / float64(scored), nil
}

// Perplexity returns 2 raised to the Entropy of text.
func (m *Model) Perplexity(text []string) (float64, error) {
	e, err := m.Entropy(text)
	if err != nil {
		return 0, err
	}
	return math.Pow(2, e), nil
}

// LevelStats describes one level of a model chain.
type LevelStats struct {
	Order    int `json:"order"`
	Ngrams   int `json:"ngrams"`   // Distinct n-grams observed at this order.
	Contexts int `json:"contexts"` // Distinct contexts with a distribution.
}

// ModelStats holds statistics for a whole model chain, highest order first.
type ModelStats struct {
	Levels     []LevelStats `json:"levels"`
	Vocabulary int          `json:"vocabulary"` // Distinct tokens, padding included.
	Estimator  string       `json:"estimator"`
	Weighting  string       `json:"weighting"`
	PadLeft    bool         `json:"pad_left"`
	PadRight   bool         `json:"pad_right"`
}

// Stats returns a snapshot of the chain's sizes and configuration.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		Vocabulary: m.vocab.Len(),
		Estimator:  m.estimator,
		Weighting:  m.weighting.String(),
		PadLeft:    len(m.leftPad) > 0,
		PadRight:   len(m.rightPad) > 0,
	}
	for level := m; level != nil; level = level.backoff {
		stats.Levels = append(stats.Levels, LevelStats{
			Order:    level.order,
			Ngrams:   len(level.ngrams),
			Contexts: level.dists.Len(),
		})
	}
	return stats
}
