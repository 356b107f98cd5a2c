package ngram

import (
	"math/rand/v2"
	"slices"
)

// Generate returns context followed by numWords randomly generated words.
// Each word is drawn conditioned on all text produced so far. Seeding rng
// identically yields identical output; a nil rng uses a randomly seeded source.
func (m *Model) Generate(rng *rand.Rand, numWords int, context []string) []string {
	rng = orRandom(rng)
	text := slices.Grow(slices.Clone(context), max(numWords, 0))
	for i := 0; i < numWords; i++ {
		text = append(text, m.generateOne(rng, text))
	}
	return text
}

// ChooseRandomWord draws a single word likely to follow context.
func (m *Model) ChooseRandomWord(rng *rand.Rand, context []string) string {
	text := m.Generate(rng, 1, context)
	return text[len(text)-1]
}

func orRandom(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rng
}

// generateOne samples from the distribution of the padded context window,
// backing off one order at a time until some level has observed it.
func (m *Model) generateOne(rng *rand.Rand, context []string) string {
	context = m.padWindow(context)
	if key, ok := m.vocab.key(context); ok {
		if pd, err := m.dists.Get(key); err == nil {
			return pd.Generate(rng)
		}
	}
	if m.order > 1 {
		return m.backoff.generateOne(rng, tail(context))
	}
	return EndToken
}
