package ngram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

var (
	// ErrInvalidOrder is returned when a model order is below 1.
	ErrInvalidOrder = errors.New("ngram: order must be at least 1")
	// ErrEmptyTraining is returned when the training data holds no tokens.
	ErrEmptyTraining = errors.New("ngram: training data is empty")
	// ErrInvalidEstimator is returned when an estimator is missing or rejects
	// the counts it was given.
	ErrInvalidEstimator = errors.New("ngram: invalid estimator")
	// ErrUnknownContext is returned when indexing a context that was never
	// observed at the model's order.
	ErrUnknownContext = errors.New("ngram: context not observed")
	// ErrDegenerateText is returned by Entropy and Perplexity when the text
	// leaves no position to score.
	ErrDegenerateText = errors.New("ngram: text too short to evaluate")
)

// Weighting selects how the probability of an unobserved n-gram is scaled
// when it is delegated to the backoff model.
type Weighting int

const (
	// ConstantAlpha scales by the fixed factor (k-1)/k at order k,
	// independent of context. This is the default.
	ConstantAlpha Weighting = iota
	// KatzAlpha scales by a per-context factor that hands the mass left
	// unused by the observed words to the backoff model. A backed-off
	// probability never exceeds that unused mass, even when the backoff
	// distribution does not sum to one.
	KatzAlpha
)

func (w Weighting) String() string {
	switch w {
	case ConstantAlpha:
		return "constant"
	case KatzAlpha:
		return "katz"
	default:
		return fmt.Sprintf("Weighting(%d)", int(w))
	}
}

// ParseWeighting is the inverse of Weighting.String.
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "", "constant":
		return ConstantAlpha, nil
	case "katz":
		return KatzAlpha, nil
	default:
		return 0, fmt.Errorf("ngram: unknown backoff weighting %q", s)
	}
}

// options is shared unchanged by every level of a model chain.
type options struct {
	padLeft   bool
	padRight  bool
	estimator Estimator
	weighting Weighting
	logger    *slog.Logger
}

// Option configures a Model at construction time.
type Option func(*options)

// WithPadLeft sets whether each sentence is preceded by order-1 empty
// tokens. Default: true.
func WithPadLeft(pad bool) Option {
	return func(o *options) { o.padLeft = pad }
}

// WithPadRight sets whether each sentence is followed by order-1 empty
// tokens. Default: false.
func WithPadRight(pad bool) Option {
	return func(o *options) { o.padRight = pad }
}

// WithEstimator sets the per-context smoothing estimator.
// Default: SimpleGoodTuring{}.
func WithEstimator(e Estimator) Option {
	return func(o *options) { o.estimator = e }
}

// WithBackoffWeighting selects the backoff weighting. Default: ConstantAlpha.
func WithBackoffWeighting(w Weighting) Option {
	return func(o *options) { o.weighting = w }
}

// WithLogger sets the logger used during construction. By default, all logs
// are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Model is an n-gram language model of a fixed order that backs off to an
// exclusively owned model of the next lower order. A Model is immutable once
// New returns, and all of its methods are safe for concurrent use.
type Model struct {
	order     int
	leftPad   []string
	rightPad  []string
	ngrams    map[string]struct{}
	dists     *ConditionalProbDist
	backoff   *Model
	weighting Weighting
	katz      map[string]katzWeight
	vocab     *Vocabulary
	estimator string
}

// New trains a model of the given order from tokenized sentences, together
// with its whole backoff chain down to order 1. Either the entire chain is
// built or an error is returned.
func New(order int, sentences [][]string, opts ...Option) (*Model, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if !hasTokens(sentences) {
		return nil, ErrEmptyTraining
	}

	o := &options{
		padLeft:   true,
		padRight:  false,
		estimator: SimpleGoodTuring{},
		weighting: ConstantAlpha,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.estimator == nil {
		return nil, fmt.Errorf("%w: estimator is nil", ErrInvalidEstimator)
	}
	if o.weighting != ConstantAlpha && o.weighting != KatzAlpha {
		return nil, fmt.Errorf("ngram: unknown backoff weighting %v", o.weighting)
	}

	m, err := build(order, sentences, o, newVocabulary())
	if err != nil {
		return nil, err
	}
	o.logger.Info("Model trained",
		slog.Int("order", order),
		slog.Int("sentences", len(sentences)),
		slog.Int("ngrams", len(m.ngrams)),
		slog.Int("vocabulary", m.vocab.Len()),
		slog.String("estimator", m.estimator),
		slog.String("weighting", m.weighting.String()),
	)
	return m, nil
}

// NewFromTokens trains a model from a flat token sequence, treated as a
// single sentence.
func NewFromTokens(order int, tokens []string, opts ...Option) (*Model, error) {
	return New(order, [][]string{tokens}, opts...)
}

func hasTokens(sentences [][]string) bool {
	for _, s := range sentences {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

func padding(order int, on bool) []string {
	if !on || order < 2 {
		return nil
	}
	return make([]string, order-1)
}

// build trains one level and recurses for the levels below it.
func build(order int, sentences [][]string, o *options, vocab *Vocabulary) (*Model, error) {
	m := &Model{
		order:     order,
		leftPad:   padding(order, o.padLeft),
		rightPad:  padding(order, o.padRight),
		ngrams:    make(map[string]struct{}),
		weighting: o.weighting,
		vocab:     vocab,
		estimator: o.estimator.Name(),
	}

	cfd := newConditionalFreqDist()
	var padded []string
	for _, sent := range sentences {
		padded = append(padded[:0], m.leftPad...)
		padded = append(padded, sent...)
		padded = append(padded, m.rightPad...)
		for i := 0; i+order <= len(padded); i++ {
			gram := padded[i : i+order]
			m.ngrams[vocab.internKey(gram)] = struct{}{}
			context := gram[:order-1]
			cfd.add(vocab.internKey(context), context, gram[order-1])
		}
	}

	bins := cfd.Len()
	m.dists = newConditionalProbDist(bins)
	for _, key := range cfd.keys {
		pd, err := o.estimator.Estimate(cfd.entries[key].fd, bins)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate distribution at order %d: %w", order, err)
		}
		m.dists.dists[key] = pd
	}

	if order > 1 {
		backoff, err := build(order-1, sentences, o, vocab)
		if err != nil {
			return nil, err
		}
		m.backoff = backoff
		if m.weighting == KatzAlpha {
			m.katz = m.katzWeights(cfd)
		}
	}

	o.logger.Debug("Model level built",
		slog.Int("order", order),
		slog.Int("ngrams", len(m.ngrams)),
		slog.Int("contexts", m.dists.Len()),
	)
	return m, nil
}

// katzWeight is the backoff factor of one context together with the mass
// its observed words leave unused.
type katzWeight struct {
	alpha  float64
	unused float64
}

// katzWeights computes, for every observed context, the ratio of the mass
// this level leaves for unseen words to the mass the backoff level gives
// those same unseen words. When the observed words exhaust the backoff mass
// the ratio is undefined and alpha is 1.
func (m *Model) katzWeights(cfd *conditionalFreqDist) map[string]katzWeight {
	weights := make(map[string]katzWeight, cfd.Len())
	for _, key := range cfd.keys {
		entry := cfd.entries[key]
		pd := m.dists.dists[key]
		backoffContext := tail(entry.context)

		var observed, backedOff float64
		for _, w := range entry.fd.samples {
			observed += pd.Prob(w)
			backedOff += m.backoff.Prob(w, backoffContext)
		}
		kw := katzWeight{alpha: 1, unused: min(max(0, 1-observed), 1)}
		if denom := 1 - backedOff; denom > 0 {
			kw.alpha = kw.unused / denom
		}
		weights[key] = kw
	}
	return weights
}

// tail drops the oldest token of a context; an empty context stays empty.
func tail(context []string) []string {
	if len(context) == 0 {
		return context
	}
	return context[1:]
}

// Order returns the n-gram order of this level.
func (m *Model) Order() int {
	return m.order
}

// Backoff returns the next lower order model, or nil at order 1.
func (m *Model) Backoff() *Model {
	return m.backoff
}

// NgramCount returns the number of distinct n-grams observed at this order.
func (m *Model) NgramCount() int {
	return len(m.ngrams)
}

// Contains reports whether context was observed, and therefore has a
// distribution, at this model's order.
func (m *Model) Contains(context []string) bool {
	key, ok := m.vocab.key(context)
	return ok && m.dists.Contains(key)
}

// Dist returns the distribution stored for context. It wraps
// ErrUnknownContext if the context was never observed; check Contains first.
func (m *Model) Dist(context []string) (ProbDist, error) {
	key, ok := m.vocab.key(context)
	if !ok {
		return nil, fmt.Errorf("%w: %q at order %d", ErrUnknownContext, context, m.order)
	}
	pd, err := m.dists.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q at order %d", err, context, m.order)
	}
	return pd, nil
}

// String summarises the model in the form "<NgramModel with 12 3-grams>".
func (m *Model) String() string {
	return fmt.Sprintf("<NgramModel with %d %d-grams>", len(m.ngrams), m.order)
}

// window returns the trailing order-1 tokens of context.
func (m *Model) window(context []string) []string {
	size := m.order - 1
	if size == 0 {
		return nil
	}
	if len(context) > size {
		return context[len(context)-size:]
	}
	return context
}

// padWindow prepends the left padding to context and keeps the trailing
// order-1 tokens.
func (m *Model) padWindow(context []string) []string {
	if len(m.leftPad) == 0 {
		return m.window(context)
	}
	full := slices.Concat(m.leftPad, context)
	return m.window(full)
}
