package ngram

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// twoSentences is the small corpus most tests train on:
// "a" is always followed by "b", and "b" by either "c" or "d".
func twoSentences() [][]string {
	return [][]string{
		{"a", "b", "c"},
		{"a", "b", "d"},
	}
}

// setupTestModel trains a model on twoSentences and fails the test on error.
func setupTestModel(t *testing.T, order int, opts ...Option) *Model {
	t.Helper()
	m, err := New(order, twoSentences(), opts...)
	if err != nil {
		t.Fatalf("setup: New(%d) failed: %v", order, err)
	}
	return m
}

func freqDistOf(words ...string) *FreqDist {
	fd := NewFreqDist()
	for _, w := range words {
		fd.Inc(w)
	}
	return fd
}

var (
	benchmarkSentences [][]string
	sentencesOnce      sync.Once
)

// createBenchmarkSentences builds a repetitive but non-trivial corpus.
func createBenchmarkSentences() [][]string {
	sentencesOnce.Do(func() {
		base := strings.Fields("the quick brown fox jumps over the lazy dog while the small cat watches the dog and the fox")
		rng := newRand(7)
		for i := 0; i < 2000; i++ {
			n := 5 + rng.IntN(10)
			sent := make([]string, n)
			for j := range sent {
				sent[j] = base[rng.IntN(len(base))]
			}
			benchmarkSentences = append(benchmarkSentences, sent)
		}
	})
	return benchmarkSentences
}
