package markov

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// StartToken is the start sentinel used by text chains.
	StartToken = "<SOC>"
	// EndToken is the end sentinel used by text chains.
	EndToken = "<EOC>"
)

// maxSentenceLength caps how many tokens a single sentence may contribute,
// preventing unbounded memory use on corpora without sentence punctuation.
const maxSentenceLength = 4096

// TextChain wraps a Chain[string] with a tokenizer, adding corpus training
// from readers and files and generation straight to formatted strings. The
// embedded chain remains fully usable for token-level operations.
type TextChain struct {
	*Chain[string]
	tok Tokenizer
}

// NewText constructs a text chain of the given order using the reserved
// StartToken/EndToken sentinels. A nil tokenizer selects the default.
func NewText(order int, tok Tokenizer) (*TextChain, error) {
	c, err := New[string](order, StartToken, EndToken)
	if err != nil {
		return nil, err
	}
	return Text(c, tok), nil
}

// Text wraps an existing string chain, e.g. one loaded from a Store.
// A nil tokenizer selects the default.
func Text(c *Chain[string], tok Tokenizer) *TextChain {
	if tok == nil {
		tok = NewDefaultTokenizer()
	}
	return &TextChain{Chain: c, tok: tok}
}

// Tokenizer returns the tokenizer the text chain formats output with.
func (c *TextChain) Tokenizer() Tokenizer { return c.tok }

// Train tokenizes a stream of text and feeds each sentence into the chain.
// Sentences are delimited by the tokenizer's End-Of-Chain tokens; trailing
// text without a closing mark is fed as a final sentence.
func (c *TextChain) Train(r io.Reader) error {
	stream := c.tok.NewStream(r)
	sentence := make([]string, 0, 64)

	flush := func() error {
		if len(sentence) == 0 {
			return nil
		}
		err := c.Feed(sentence)
		sentence = sentence[:0]
		return err
	}

	for {
		token, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("tokenizer error: %w", err)
		}
		if token.EOC || len(sentence) >= maxSentenceLength {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		sentence = append(sentence, token.Text)
	}
	return flush()
}

// TrainString feeds a string of text into the chain.
func (c *TextChain) TrainString(s string) error {
	return c.Train(strings.NewReader(s))
}

// TrainFile feeds the contents of a text file into the chain.
func (c *TextChain) TrainFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return c.Train(f)
}

// GenerateString samples one sequence and renders it with the tokenizer's
// separator and closing rules. An empty sample renders as "".
func (c *TextChain) GenerateString(opts ...GenerateOption) string {
	return c.render(c.Generate(opts...))
}

// GenerateStringFrom tokenizes a seed phrase, uses it as the initial
// context, and continues generation from there. The seed is included in
// the output. It returns an error if a seed token was never seen in
// training, since such a context has no learned successors.
func (c *TextChain) GenerateStringFrom(seed string, opts ...GenerateOption) (string, error) {
	if seed == "" {
		return c.GenerateString(opts...), nil
	}

	stream := c.tok.NewStream(strings.NewReader(seed))
	prefix := c.startContext()
	var out []string
	for {
		token, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("tokenizer error while reading seed: %w", err)
		}
		if token.EOC {
			continue
		}
		id, ok := c.vocab[token.Text]
		if !ok {
			return "", fmt.Errorf("seed token %q not found in vocabulary", token.Text)
		}
		prefix = append(prefix[1:], id)
		out = append(out, token.Text)
	}

	return c.render(c.generate(prefix, out, resolveOptions(opts))), nil
}

func (c *TextChain) render(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(c.tok.Separator(tokens[i-1], tok))
		}
		b.WriteString(tok)
	}
	b.WriteString(c.tok.EOC(tokens[len(tokens)-1]))
	return b.String()
}
