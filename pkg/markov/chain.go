package markov

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// startID is the reserved internal ID for the start sentinel.
	startID = 0
	// endID is the reserved internal ID for the end sentinel.
	endID = 1
	// firstUserID is the first internal ID available for ordinary tokens.
	firstUserID = 2
)

var (
	// ErrInvalidOrder is returned by New when the requested order is less than 1.
	ErrInvalidOrder = errors.New("markov: chain order must be at least 1")
	// ErrReservedToken is returned by Feed when a training sequence contains
	// one of the chain's sentinel values.
	ErrReservedToken = errors.New("markov: reserved sentinel token in training input")
	// ErrOrderMismatch is returned when imported chain data was trained with
	// a different order than the receiving chain.
	ErrOrderMismatch = errors.New("markov: chain order mismatch")
	// ErrUnknownModel is returned by Store.Load when no model with the given
	// name exists in the database.
	ErrUnknownModel = errors.New("markov: model not found")
)

// Chain is a Markov chain over an arbitrary comparable token type. It owns
// a single transition table and a fixed order (the number of preceding
// tokens used as predictive context).
//
// Tokens are interned to small integer IDs; IDs 0 and 1 are reserved for
// the start and end sentinels chosen at construction. A Chain is not safe
// for concurrent use; callers that share one across goroutines must
// provide their own locking.
type Chain[T comparable] struct {
	order  int
	start  T
	end    T
	vocab  map[T]int
	tokens []T // id -> token; indexes 0 and 1 hold the sentinels
	table  table
	rng    *rand.Rand
}

// New constructs an empty Chain with the given order and sentinel values.
// The sentinels bound every training sequence and must never appear as
// ordinary input tokens; they may be any two distinct values of T.
func New[T comparable](order int, start, end T) (*Chain[T], error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	if start == end {
		return nil, errors.New("markov: start and end sentinels must be distinct")
	}
	return &Chain[T]{
		order:  order,
		start:  start,
		end:    end,
		vocab:  map[T]int{start: startID, end: endID},
		tokens: []T{start, end},
		table:  newTable(),
	}, nil
}

// SetRand sets the random source used for sampling during generation.
// By default the chain draws from the shared math/rand/v2 source; injecting
// a seeded source makes generation reproducible.
func (c *Chain[T]) SetRand(src rand.Source) {
	if src != nil {
		c.rng = rand.New(src)
	}
}

// Feed trains the chain on one token sequence. The sequence is padded with
// `order` start sentinels and terminated with one end sentinel, and every
// sliding window of order+1 tokens records a (context -> next) transition.
// Feeding is cumulative across calls.
//
// An empty sequence is valid and records the single transition from the
// all-start context to the end sentinel, so a chain fed only empty
// sequences generates empty output rather than failing.
//
// If the sequence contains either sentinel value, Feed returns an error
// wrapping ErrReservedToken and the table is left unmodified.
func (c *Chain[T]) Feed(seq []T) error {
	for i, tok := range seq {
		if tok == c.start || tok == c.end {
			return fmt.Errorf("token at index %d: %w", i, ErrReservedToken)
		}
	}

	// Leading zeros are the start padding; startID is 0.
	ids := make([]int, len(seq)+c.order+1)
	for i, tok := range seq {
		ids[c.order+i] = c.intern(tok)
	}
	ids[len(ids)-1] = endID

	var keyBuf []byte
	for i := 0; i < len(seq)+1; i++ {
		keyBuf = appendContextKey(keyBuf[:0], ids[i:i+c.order])
		c.table.add(string(keyBuf), ids[i+c.order], 1)
	}
	return nil
}

// Order returns the chain's fixed order.
func (c *Chain[T]) Order() int { return c.order }

// Start returns the chain's start sentinel value.
func (c *Chain[T]) Start() T { return c.start }

// End returns the chain's end sentinel value.
func (c *Chain[T]) End() T { return c.end }

// IsEmpty reports whether the chain has been fed anything at all.
func (c *Chain[T]) IsEmpty() bool { return c.table.contexts() == 0 }

// Len returns the number of distinct contexts in the transition table.
func (c *Chain[T]) Len() int { return c.table.contexts() }

// Transitions returns the number of distinct (context, next token) pairs.
func (c *Chain[T]) Transitions() int { return c.table.transitions }

// TotalFrequency returns the sum of all recorded transition counts; every
// window of every fed sequence contributes exactly one.
func (c *Chain[T]) TotalFrequency() int { return c.table.frequency }

// VocabularySize returns the number of distinct ordinary tokens the chain
// has seen, excluding the two sentinels.
func (c *Chain[T]) VocabularySize() int { return len(c.tokens) - firstUserID }

// Reset discards all learned transitions and the vocabulary, returning the
// chain to its freshly constructed state. The order and sentinels are kept.
func (c *Chain[T]) Reset() {
	c.vocab = map[T]int{c.start: startID, c.end: endID}
	c.tokens = []T{c.start, c.end}
	c.table = newTable()
}

// Prune removes every transition whose count is at or below minFreq, along
// with any context left without successors. Useful for shrinking a model
// trained on a noisy corpus. Prune is the only operation besides Reset
// that decreases counts.
func (c *Chain[T]) Prune(minFreq int) {
	c.table.prune(minFreq)
}

// intern returns the internal ID for a token, assigning the next free ID
// on first sight.
func (c *Chain[T]) intern(tok T) int {
	if id, ok := c.vocab[tok]; ok {
		return id
	}
	id := len(c.tokens)
	c.vocab[tok] = id
	c.tokens = append(c.tokens, tok)
	return id
}

// contextIDs translates a caller-supplied context into internal IDs.
// It reports false if the context has the wrong length or contains a token
// the chain has never seen; such a context cannot exist in the table.
func (c *Chain[T]) contextIDs(context []T) ([]int, bool) {
	if len(context) != c.order {
		return nil, false
	}
	ids := make([]int, len(context))
	for i, tok := range context {
		id, ok := c.vocab[tok]
		if !ok {
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// startContext returns a fresh all-start context window.
func (c *Chain[T]) startContext() []int {
	return make([]int, c.order)
}

// appendContextKey renders a window of token IDs as the space-joined
// decimal string used as the transition table key.
func appendContextKey(buf []byte, ids []int) []byte {
	for j, id := range ids {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return buf
}

// parseContextKey is the inverse of appendContextKey.
func parseContextKey(key string) []int {
	parts := strings.Split(key, " ")
	ids := make([]int, len(parts))
	for i, p := range parts {
		ids[i], _ = strconv.Atoi(p)
	}
	return ids
}
