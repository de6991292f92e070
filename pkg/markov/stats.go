package markov

import "sort"

// TokenCount pairs a candidate next token with its observed frequency.
// Terminal marks the end sentinel, whose Token field holds the chain's
// end value.
type TokenCount[T comparable] struct {
	Token    T
	Terminal bool
	Count    int
}

// ChainStats is a snapshot of a chain's aggregate counters.
type ChainStats struct {
	Order          int // the configured context length
	Contexts       int // distinct contexts in the transition table
	Transitions    int // distinct (context, next token) pairs
	TotalFrequency int // sum of all transition counts
	Vocabulary     int // distinct ordinary tokens seen
	Starters       int // distinct successors of the all-start context
}

// Stats returns the chain's current aggregate statistics.
func (c *Chain[T]) Stats() ChainStats {
	starters := 0
	if d := c.table.lookup(string(appendContextKey(nil, c.startContext()))); d != nil {
		starters = len(d.counts)
	}
	return ChainStats{
		Order:          c.order,
		Contexts:       c.Len(),
		Transitions:    c.Transitions(),
		TotalFrequency: c.TotalFrequency(),
		Vocabulary:     c.VocabularySize(),
		Starters:       starters,
	}
}

// NextTokens returns the successor distribution for a context as a slice
// sorted by descending count, along with the context's total count. The
// context must be exactly `order` tokens and may include sentinel values,
// e.g. start padding. An unseen context yields a nil slice and zero total.
func (c *Chain[T]) NextTokens(context []T) ([]TokenCount[T], int) {
	d := c.lookupContext(context)
	if d == nil {
		return nil, 0
	}
	out := make([]TokenCount[T], 0, len(d.counts))
	for id, freq := range d.counts {
		out = append(out, TokenCount[T]{
			Token:    c.tokens[id],
			Terminal: id == endID,
			Count:    freq,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, d.total
}

// Probability returns the empirical probability of `next` following the
// given context: count(context, next) / total(context). It returns 0 for
// any context or token the chain has never observed.
func (c *Chain[T]) Probability(context []T, next T) float64 {
	d := c.lookupContext(context)
	if d == nil {
		return 0
	}
	id, ok := c.vocab[next]
	if !ok {
		return 0
	}
	return float64(d.counts[id]) / float64(d.total)
}

// EndProbability returns the probability that a sequence terminates after
// the given context, i.e. the normalized count of the end sentinel.
func (c *Chain[T]) EndProbability(context []T) float64 {
	return c.Probability(context, c.end)
}

func (c *Chain[T]) lookupContext(context []T) *distribution {
	ids, ok := c.contextIDs(context)
	if !ok {
		return nil
	}
	return c.table.lookup(string(appendContextKey(nil, ids)))
}
