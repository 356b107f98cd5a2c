package ngram

import "math/rand/v2"

// EndToken is returned by generation when no distribution is available at
// any order. It cannot happen for a model trained on non-empty data.
const EndToken = "."

// ProbDist is a smoothed probability distribution over the words that may
// follow one context.
type ProbDist interface {
	// Prob returns the probability of word, in [0, 1]. Words never seen in
	// this context may receive a share of the reserved mass.
	Prob(word string) float64
	// Generate draws one word, weighted by Prob, using rng.
	Generate(rng *rand.Rand) string
	// Discount returns the probability mass reserved for unseen words.
	Discount() float64
	// FreqDist returns the raw counts the distribution was estimated from.
	FreqDist() *FreqDist
}

// sampleDist walks the samples of d subtracting their probabilities from a
// uniform draw. Mass left over for unseen words, beyond a small rounding
// allowance, falls back to a uniform pick among the seen samples.
func sampleDist(rng *rand.Rand, d ProbDist) string {
	samples := d.FreqDist().samples
	if len(samples) == 0 {
		return EndToken
	}
	p := rng.Float64()
	for _, s := range samples {
		p -= d.Prob(s)
		if p <= 0 {
			return s
		}
	}
	if p < 0.0001 {
		return samples[len(samples)-1]
	}
	return samples[rng.IntN(len(samples))]
}

// ConditionalProbDist maps context keys to their smoothed distributions.
// Indexing a context that was never observed is an error, not an empty
// result; callers check Contains first.
type ConditionalProbDist struct {
	dists map[string]ProbDist
}

func newConditionalProbDist(size int) *ConditionalProbDist {
	return &ConditionalProbDist{dists: make(map[string]ProbDist, size)}
}

// Contains reports whether key has a distribution.
func (c *ConditionalProbDist) Contains(key string) bool {
	_, ok := c.dists[key]
	return ok
}

// Get returns the distribution for key, or ErrUnknownContext.
func (c *ConditionalProbDist) Get(key string) (ProbDist, error) {
	pd, ok := c.dists[key]
	if !ok {
		return nil, ErrUnknownContext
	}
	return pd, nil
}

// Len returns the number of contexts.
func (c *ConditionalProbDist) Len() int {
	return len(c.dists)
}
