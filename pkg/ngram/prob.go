package ngram

import "math"

// Prob returns the probability of word following context, using Katz-style
// backoff. Only the trailing order-1 tokens of context are used.
//
// If context+word was observed at this order, or this is the unigram level,
// the context's own distribution answers. Otherwise the question is passed to
// the backoff model with the oldest context token dropped, and its answer is
// scaled by the backoff weight (see Weighting).
func (m *Model) Prob(word string, context []string) float64 {
	context = m.window(context)
	if m.order == 1 || m.observed(context, word) {
		key, ok := m.vocab.key(context)
		if !ok {
			return 0
		}
		pd, err := m.dists.Get(key)
		if err != nil {
			return 0
		}
		return pd.Prob(word)
	}
	if m.weighting != KatzAlpha {
		return float64(m.order-1) / float64(m.order) * m.backoff.Prob(word, tail(context))
	}
	kw := m.katzWeight(context)
	return min(kw.alpha*m.backoff.Prob(word, tail(context)), kw.unused)
}

// LogProb returns the negative base-2 log of Prob. A probability of exactly
// zero yields 0 rather than +Inf.
func (m *Model) LogProb(word string, context []string) float64 {
	p := m.Prob(word, context)
	if p <= 0 {
		return 0
	}
	return -math.Log2(p)
}

func (m *Model) observed(context []string, word string) bool {
	key, ok := m.vocab.ngramKey(context, word)
	if !ok {
		return false
	}
	_, ok = m.ngrams[key]
	return ok
}

// katzWeight returns the weight of an observed context. Contexts never seen
// at this order pass the backoff answer through unchanged.
func (m *Model) katzWeight(context []string) katzWeight {
	if key, ok := m.vocab.key(context); ok {
		if kw, ok := m.katz[key]; ok {
			return kw
		}
	}
	return katzWeight{alpha: 1, unused: 1}
}
