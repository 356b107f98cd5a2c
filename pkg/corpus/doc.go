/*
Package corpus supplies training data for n-gram models.

It splits raw text into sentences of tokens and keeps those sentences in a
SQLite database under named corpora, so that a model can be rebuilt from the
stored text at any time. Tokens are interned in a shared vocabulary table and
each sentence is stored as a space separated list of token IDs.

The package has no dependency on the model itself; Store.Sentences returns
plain [][]string values ready to be passed to ngram.New.
*/
package corpus
