package markov

import (
	"iter"
	"math/rand/v2"
)

// generateOptions holds the resolved settings for a single generation run.
type generateOptions struct {
	maxLength int
}

// GenerateOption configures a generation run. Options are passed variadically
// to Generate, GenerateFrom and the sequence iterators.
type GenerateOption func(*generateOptions)

// WithMaxLength caps the number of tokens a single generation may produce.
// Termination is already guaranteed for any well-trained chain, so the cap
// is an external safety bound, not part of the model; 0 means unbounded.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

func resolveOptions(opts []GenerateOption) *generateOptions {
	o := &generateOptions{maxLength: 0}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate samples one fresh token sequence from the learned distribution.
// It starts from the all-start context, repeatedly performs a weighted
// draw over the current context's successors, and stops when the end
// sentinel is drawn. The returned sequence contains no sentinels and may
// be empty; an untrained chain always returns an empty sequence.
//
// Each call is independent and the chain is not mutated; repeated calls
// yield different outputs wherever the table actually branches.
func (c *Chain[T]) Generate(opts ...GenerateOption) []T {
	return c.generate(c.startContext(), nil, resolveOptions(opts))
}

// GenerateFrom samples a sequence whose context is seeded with `order`
// copies of the given token, mirroring generation "from" that token. The
// seed token is included as the first element of the result. If that
// context was never observed the result is nil.
func (c *Chain[T]) GenerateFrom(token T, opts ...GenerateOption) []T {
	id, ok := c.vocab[token]
	if !ok || id < firstUserID {
		return nil
	}
	prefix := make([]int, c.order)
	for i := range prefix {
		prefix[i] = id
	}
	if c.table.lookup(string(appendContextKey(nil, prefix))) == nil {
		return nil
	}
	return c.generate(prefix, []T{token}, resolveOptions(opts))
}

// generate is the shared sampling loop. It consumes prefix as the working
// context window and appends drawn tokens to out.
func (c *Chain[T]) generate(prefix []int, out []T, o *generateOptions) []T {
	var keyBuf []byte
	for o.maxLength == 0 || len(out) < o.maxLength {
		keyBuf = appendContextKey(keyBuf[:0], prefix)
		d := c.table.lookup(string(keyBuf))
		if d == nil || d.total == 0 {
			// Pruned or empty tables can produce a context with no successors.
			break
		}
		next := c.sample(d)
		if next == endID {
			break
		}
		out = append(out, c.tokens[next])
		prefix = append(prefix[1:], next)
	}
	return out
}

// sample performs a cumulative-weight draw over a distribution. Every
// count is a positive integer, so the candidate ranges partition
// [0, total) and exactly one candidate matches the draw.
func (c *Chain[T]) sample(d *distribution) int {
	draw := c.intN(d.total)
	for id, freq := range d.counts {
		draw -= freq
		if draw < 0 {
			return id
		}
	}
	// Counts always sum to total; the loop above must return.
	panic("markov: transition counts out of sync with total")
}

func (c *Chain[T]) intN(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Sequences returns an infinite iterator of freshly generated sequences.
// The caller terminates iteration by breaking out of the range loop.
func (c *Chain[T]) Sequences(opts ...GenerateOption) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for yield(c.Generate(opts...)) {
		}
	}
}

// SequencesN returns an iterator over exactly n generated sequences.
func (c *Chain[T]) SequencesN(n int, opts ...GenerateOption) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for range n {
			if !yield(c.Generate(opts...)) {
				return
			}
		}
	}
}
