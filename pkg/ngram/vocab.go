package ngram

import "strconv"

// Vocabulary interns token strings to integer IDs. Context and n-gram keys
// are built from IDs joined by a single space, which keeps keys unambiguous
// for any token text, including the empty padding token.
//
// A Vocabulary is written only while a model chain is being built and is
// shared read-only by every level of the chain afterwards.
type Vocabulary struct {
	tokenToID map[string]int
	idToToken []string
}

func newVocabulary() *Vocabulary {
	return &Vocabulary{tokenToID: make(map[string]int)}
}

// intern returns the ID for token, assigning the next free ID if needed.
func (v *Vocabulary) intern(token string) int {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	id := len(v.idToToken)
	v.tokenToID[token] = id
	v.idToToken = append(v.idToToken, token)
	return id
}

// Len returns the number of distinct tokens, counting the padding token.
func (v *Vocabulary) Len() int {
	return len(v.idToToken)
}

// internKey builds the key for tokens, interning any unseen token.
func (v *Vocabulary) internKey(tokens []string) string {
	var keyBuf []byte
	for j, tok := range tokens {
		if j > 0 {
			keyBuf = append(keyBuf, ' ')
		}
		keyBuf = strconv.AppendInt(keyBuf, int64(v.intern(tok)), 10)
	}
	return string(keyBuf)
}

// key builds the key for tokens. It reports false if any token was never
// interned, in which case no stored context or n-gram can match.
func (v *Vocabulary) key(tokens []string) (string, bool) {
	keyBuf, ok := v.appendKey(nil, tokens...)
	return string(keyBuf), ok
}

// ngramKey is key(append(context, word)) without copying context.
func (v *Vocabulary) ngramKey(context []string, word string) (string, bool) {
	keyBuf, ok := v.appendKey(nil, context...)
	if !ok {
		return "", false
	}
	keyBuf, ok = v.appendKey(keyBuf, word)
	return string(keyBuf), ok
}

func (v *Vocabulary) appendKey(keyBuf []byte, tokens ...string) ([]byte, bool) {
	for _, tok := range tokens {
		id, ok := v.tokenToID[tok]
		if !ok {
			return keyBuf, false
		}
		if len(keyBuf) > 0 {
			keyBuf = append(keyBuf, ' ')
		}
		keyBuf = strconv.AppendInt(keyBuf, int64(id), 10)
	}
	return keyBuf, true
}
