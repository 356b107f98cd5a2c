package ngram

import (
	"slices"
	"sort"
)

// FreqDist counts how often each word followed one context during training.
// Samples are kept in first-seen order so that sampling with a seeded random
// source is reproducible.
type FreqDist struct {
	counts  map[string]int
	samples []string
	n       int
}

// NewFreqDist returns an empty frequency distribution.
func NewFreqDist() *FreqDist {
	return &FreqDist{counts: make(map[string]int)}
}

// Inc records one more occurrence of word.
func (fd *FreqDist) Inc(word string) {
	if _, ok := fd.counts[word]; !ok {
		fd.samples = append(fd.samples, word)
	}
	fd.counts[word]++
	fd.n++
}

// Count returns the number of times word was recorded.
func (fd *FreqDist) Count(word string) int {
	return fd.counts[word]
}

// N returns the total number of recorded outcomes.
func (fd *FreqDist) N() int {
	return fd.n
}

// B returns the number of distinct samples.
func (fd *FreqDist) B() int {
	return len(fd.samples)
}

// Samples returns the distinct samples in first-seen order.
func (fd *FreqDist) Samples() []string {
	return slices.Clone(fd.samples)
}

// Nr returns the number of samples that occurred exactly r times.
// Nr(0) is always 0; a FreqDist knows nothing about unseen samples.
func (fd *FreqDist) Nr(r int) int {
	if r <= 0 {
		return 0
	}
	nr := 0
	for _, c := range fd.counts {
		if c == r {
			nr++
		}
	}
	return nr
}

// Max returns the most frequent sample. Ties go to the sample seen first.
func (fd *FreqDist) Max() string {
	var best string
	bestCount := -1
	for _, s := range fd.samples {
		if c := fd.counts[s]; c > bestCount {
			best, bestCount = s, c
		}
	}
	return best
}

// freqOfFreqs returns the non-zero frequencies r in ascending order together
// with Nr for each of them.
func (fd *FreqDist) freqOfFreqs() ([]int, []int, map[int]int) {
	rNr := make(map[int]int)
	for _, c := range fd.counts {
		rNr[c]++
	}
	rs := make([]int, 0, len(rNr))
	for r := range rNr {
		rs = append(rs, r)
	}
	sort.Ints(rs)
	nrs := make([]int, len(rs))
	for i, r := range rs {
		nrs[i] = rNr[r]
	}
	return rs, nrs, rNr
}

// condEntry is one context of a conditionalFreqDist.
type condEntry struct {
	context []string
	fd      *FreqDist
}

// conditionalFreqDist groups FreqDists by context key. Contexts are kept in
// first-seen order.
type conditionalFreqDist struct {
	entries map[string]*condEntry
	keys    []string
}

func newConditionalFreqDist() *conditionalFreqDist {
	return &conditionalFreqDist{entries: make(map[string]*condEntry)}
}

func (c *conditionalFreqDist) add(key string, context []string, word string) {
	entry, ok := c.entries[key]
	if !ok {
		entry = &condEntry{context: slices.Clone(context), fd: NewFreqDist()}
		c.entries[key] = entry
		c.keys = append(c.keys, key)
	}
	entry.fd.Inc(word)
}

func (c *conditionalFreqDist) Len() int {
	return len(c.keys)
}
