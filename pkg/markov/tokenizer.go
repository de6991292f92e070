package markov

import (
	"bufio"
	"io"
	"regexp"
)

// TextToken is a single tokenized unit of input text. EOC marks tokens
// that end a chain (usually sentence-ending punctuation).
type TextToken struct {
	Text string
	EOC  bool
}

// Tokenizer splits input text into tokens and controls how generated
// tokens are joined back into a string. Keeping this behind an interface
// leaves the chain engine with no opinion on how tokens are produced.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer over r.
	NewStream(r io.Reader) StreamTokenizer
	// Separator returns the string placed between prev and next when
	// assembling generated output.
	Separator(prev, next string) string
	// EOC returns the string appended after the last token to close a
	// generated sequence.
	EOC(last string) string
}

// StreamTokenizer yields tokens from a stream one at a time, returning
// io.EOF once the stream is exhausted.
type StreamTokenizer interface {
	Next() (*TextToken, error)
}

// DefaultTokenizer splits text into words and punctuation with regular
// expressions and treats sentence-ending punctuation as End-Of-Chain
// markers. Its behavior is customizable through functional options.
type DefaultTokenizer struct {
	separator  string
	eoc        string
	splitRegex *regexp.Regexp
	eocRegex   *regexp.Regexp
	noSepRegex *regexp.Regexp
}

// TokenizerOption configures a DefaultTokenizer.
type TokenizerOption func(*DefaultTokenizer)

// WithSeparator sets the string used to join generated tokens. Default " ".
func WithSeparator(sep string) TokenizerOption {
	return func(t *DefaultTokenizer) { t.separator = sep }
}

// WithEOC sets the string appended to close a generated sequence. Default ".".
func WithEOC(eoc string) TokenizerOption {
	return func(t *DefaultTokenizer) { t.eoc = eoc }
}

// WithSplitRegex sets the regex used to extract tokens from input text.
func WithSplitRegex(expr string) TokenizerOption {
	return func(t *DefaultTokenizer) { t.splitRegex = regexp.MustCompile(expr) }
}

// WithEOCRegex sets the regex that classifies a token as End-Of-Chain.
func WithEOCRegex(expr string) TokenizerOption {
	return func(t *DefaultTokenizer) { t.eocRegex = regexp.MustCompile(expr) }
}

// NewDefaultTokenizer creates a tokenizer with word/punctuation splitting
// and sentence-ending EOC detection, optionally customized.
func NewDefaultTokenizer(opts ...TokenizerOption) *DefaultTokenizer {
	t := &DefaultTokenizer{
		separator: " ",
		eoc:       ".",
		// Runs of word characters, or single punctuation marks.
		splitRegex: regexp.MustCompile(`[\w']+|[.,!?;]`),
		// Sentence-ending punctuation closes a chain.
		eocRegex: regexp.MustCompile(`^[.!?]$`),
		// Punctuation gets no separator before it and no trailing EOC mark.
		noSepRegex: regexp.MustCompile(`^[.,!?;]`),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Separator returns the configured separator, or nothing when the next
// token is punctuation.
func (t *DefaultTokenizer) Separator(_, next string) string {
	if t.noSepRegex.MatchString(next) {
		return ""
	}
	return t.separator
}

// EOC returns the configured closing string, or nothing when the sequence
// already ends in punctuation.
func (t *DefaultTokenizer) EOC(last string) string {
	if t.noSepRegex.MatchString(last) {
		return ""
	}
	return t.eoc
}

// NewStream returns a line-buffered stream tokenizer over r.
func (t *DefaultTokenizer) NewStream(r io.Reader) StreamTokenizer {
	return &defaultStream{
		scanner:    bufio.NewScanner(r),
		splitRegex: t.splitRegex,
		eocRegex:   t.eocRegex,
	}
}

type defaultStream struct {
	scanner    *bufio.Scanner
	buffer     []string
	splitRegex *regexp.Regexp
	eocRegex   *regexp.Regexp
}

// Next returns the next token, or io.EOF once the stream is exhausted.
func (s *defaultStream) Next() (*TextToken, error) {
	for len(s.buffer) == 0 {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		s.buffer = s.splitRegex.FindAllString(s.scanner.Text(), -1)
	}

	word := s.buffer[0]
	s.buffer = s.buffer[1:]
	return &TextToken{Text: word, EOC: s.eocRegex.MatchString(word)}, nil
}
