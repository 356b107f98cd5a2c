package corpus

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// maxLineSize bounds the length of a single input line.
const maxLineSize = 1 << 20

// Tokenizer splits a stream of text into sentences.
type Tokenizer interface {
	NewStream(r io.Reader) SentenceStream
}

// SentenceStream yields one sentence at a time.
type SentenceStream interface {
	// Next returns the next non-empty sentence. When the stream is exhausted
	// it returns a nil slice and io.EOF.
	Next() ([]string, error)
}

// DefaultTokenizer is a regex based Tokenizer. Words and punctuation are
// matched by one expression, and a token matching the end-of-sentence
// expression closes the current sentence.
type DefaultTokenizer struct {
	splitRegex     *regexp.Regexp
	eosRegex       *regexp.Regexp
	keepEOS        bool
	lowercase      bool
	maxSentenceLen int
}

// Option configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSplitRegex sets the expression used to find tokens in a line.
// Default: `[\w']+|[.,!?;]`
func WithSplitRegex(splitRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.splitRegex = regexp.MustCompile(splitRegex)
	}
}

// WithEOSRegex sets the expression that marks a token as ending a sentence.
// Default: `^[.!?]$`
func WithEOSRegex(eosRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.eosRegex = regexp.MustCompile(eosRegex)
	}
}

// WithKeepEOS keeps the end-of-sentence token as the last token of its
// sentence. Default: false
func WithKeepEOS(keep bool) Option {
	return func(t *DefaultTokenizer) {
		t.keepEOS = keep
	}
}

// WithLowercase folds every token to lower case. Default: false
func WithLowercase(lower bool) Option {
	return func(t *DefaultTokenizer) {
		t.lowercase = lower
	}
}

// WithMaxSentenceLength splits sentences longer than n tokens.
// Default: 4096
func WithMaxSentenceLength(n int) Option {
	return func(t *DefaultTokenizer) {
		if n > 0 {
			t.maxSentenceLen = n
		}
	}
}

// NewDefaultTokenizer creates a tokenizer with default settings, which can
// be overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		splitRegex:     regexp.MustCompile(`[\w']+|[.,!?;]`),
		eosRegex:       regexp.MustCompile(`^[.!?]$`),
		maxSentenceLen: 4096,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewStream returns a sentence stream over r.
func (t *DefaultTokenizer) NewStream(r io.Reader) SentenceStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &DefaultSentenceStream{scanner: scanner, tokenizer: t}
}

// Sentences reads r to the end and returns all of its sentences.
func (t *DefaultTokenizer) Sentences(r io.Reader) ([][]string, error) {
	return ReadAll(t.NewStream(r))
}

// ReadAll drains a SentenceStream.
func ReadAll(stream SentenceStream) ([][]string, error) {
	var sentences [][]string
	for {
		sent, err := stream.Next()
		if err == io.EOF {
			return sentences, nil
		}
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, sent)
	}
}

// DefaultSentenceStream is the SentenceStream returned by DefaultTokenizer.
// Sentences may span lines; only an end-of-sentence token, the length limit
// or the end of input closes one.
type DefaultSentenceStream struct {
	scanner   *bufio.Scanner
	tokenizer *DefaultTokenizer
	buffer    []string
	current   []string
	done      bool
}

func (s *DefaultSentenceStream) Next() ([]string, error) {
	for {
		for len(s.buffer) > 0 {
			word := s.buffer[0]
			s.buffer = s.buffer[1:]

			if s.tokenizer.eosRegex.MatchString(word) {
				if s.tokenizer.keepEOS && len(s.current) > 0 {
					s.current = append(s.current, word)
				}
				if sent := s.flush(); sent != nil {
					return sent, nil
				}
				continue
			}

			if s.tokenizer.lowercase {
				word = strings.ToLower(word)
			}
			s.current = append(s.current, word)
			if len(s.current) >= s.tokenizer.maxSentenceLen {
				return s.flush(), nil
			}
		}

		if s.done {
			if sent := s.flush(); sent != nil {
				return sent, nil
			}
			return nil, io.EOF
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			s.done = true
			continue
		}
		s.buffer = s.tokenizer.splitRegex.FindAllString(s.scanner.Text(), -1)
	}
}

// flush hands out the current sentence, or nil if it is empty.
func (s *DefaultSentenceStream) flush() []string {
	if len(s.current) == 0 {
		return nil
	}
	sent := s.current
	s.current = nil
	return sent
}
