/*
Package ngram implements a fixed-order n-gram language model with recursive
backoff smoothing.

A Model of order n is trained once from a set of tokenized sentences and then
never changes. It owns a chain of lower-order models (n-1 down to 1), each
built from the same sentences, and falls back along that chain whenever a
(context, word) pair was not observed at its own order. Per-context
distributions are produced by a pluggable Estimator; the default is simple
Good-Turing smoothing.

Scoring (Prob, LogProb), evaluation (Entropy, Perplexity) and generation
(Generate, ChooseRandomWord, GenerateStream) are read-only and safe for
concurrent use. Generation takes its random source from the caller, so
seeding a *rand.Rand makes output reproducible.
*/
package ngram
