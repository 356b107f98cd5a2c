package ngram

import (
	"context"
	"math/rand/v2"
	"slices"
)

// GenerateStream works like Generate but delivers the text word by word on
// the returned channel: first the seed words, then numWords generated ones.
// The channel is closed once generation is complete or ctx is cancelled.
// rng is used by the generating goroutine only and must not be shared with
// other callers until the channel is closed. A nil rng uses a randomly seeded
// source.
func (m *Model) GenerateStream(ctx context.Context, rng *rand.Rand, numWords int, seed []string) <-chan string {
	rng = orRandom(rng)
	wordChan := make(chan string)

	go func() {
		defer close(wordChan)

		text := slices.Clone(seed)
		for _, w := range text {
			select {
			case <-ctx.Done():
				return
			case wordChan <- w:
			}
		}

		for i := 0; i < numWords; i++ {
			select {
			case <-ctx.Done():
				return
			default:
				// continue
			}
			word := m.generateOne(rng, text)
			text = append(text, word)
			select {
			case <-ctx.Done():
				return
			case wordChan <- word:
			}
		}
	}()

	return wordChan
}
