package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ExportedChain is the serializable snapshot of a trained chain, used for
// JSON-based export and import. Token IDs in Links follow the internal
// numbering: 0 and 1 are the sentinels, ordinary tokens are their index
// in Vocabulary plus 2.
type ExportedChain[T comparable] struct {
	Order      int            `json:"order"`
	Start      T              `json:"start"`
	End        T              `json:"end"`
	Vocabulary []T            `json:"vocabulary"`
	Links      []ExportedLink `json:"links"`
}

// ExportedLink is one (context, next token, frequency) record within an
// ExportedChain.
type ExportedLink struct {
	Context   []int `json:"context"`
	NextID    int   `json:"next_id"`
	Frequency int   `json:"frequency"`
}

// Snapshot returns the chain's current state in exportable form. The
// snapshot shares no structure with the chain and stays valid across
// later training.
func (c *Chain[T]) Snapshot() *ExportedChain[T] {
	keys := make([]string, 0, c.table.contexts())
	for key := range c.table.m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	links := make([]ExportedLink, 0, c.table.transitions)
	for _, key := range keys {
		d := c.table.m[key]
		ctxIDs := parseContextKey(key)

		nextIDs := make([]int, 0, len(d.counts))
		for id := range d.counts {
			nextIDs = append(nextIDs, id)
		}
		sort.Ints(nextIDs)

		for _, id := range nextIDs {
			links = append(links, ExportedLink{
				Context:   append([]int{}, ctxIDs...),
				NextID:    id,
				Frequency: d.counts[id],
			})
		}
	}

	return &ExportedChain[T]{
		Order:      c.order,
		Start:      c.start,
		End:        c.end,
		Vocabulary: append([]T{}, c.tokens[firstUserID:]...),
		Links:      links,
	}
}

// Export writes the chain as indented JSON to w. The token type must be
// representable by encoding/json for the snapshot to round-trip.
func (c *Chain[T]) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.Snapshot())
}

// Import reads an exported chain from r and merges it into the receiver:
// matching transition frequencies are added together, new contexts and
// tokens are created as needed. The imported data must have the same
// order as the receiver, and its vocabulary is re-interned, so IDs need
// not line up between the two chains.
func (c *Chain[T]) Import(r io.Reader) error {
	var ex ExportedChain[T]
	if err := json.NewDecoder(r).Decode(&ex); err != nil {
		return fmt.Errorf("decode chain snapshot: %w", err)
	}
	return c.merge(&ex)
}

// ReadChain constructs a fresh chain from an exported snapshot.
func ReadChain[T comparable](r io.Reader) (*Chain[T], error) {
	var ex ExportedChain[T]
	if err := json.NewDecoder(r).Decode(&ex); err != nil {
		return nil, fmt.Errorf("decode chain snapshot: %w", err)
	}
	c, err := New[T](ex.Order, ex.Start, ex.End)
	if err != nil {
		return nil, err
	}
	if err := c.merge(&ex); err != nil {
		return nil, err
	}
	return c, nil
}

// merge validates a snapshot and folds its links into the table.
func (c *Chain[T]) merge(ex *ExportedChain[T]) error {
	if ex.Order != c.order {
		return fmt.Errorf("snapshot has order %d, chain has order %d: %w",
			ex.Order, c.order, ErrOrderMismatch)
	}

	// Remap snapshot IDs onto this chain's vocabulary. Sentinel IDs are
	// positional and carry over directly.
	idMap := make(map[int]int, len(ex.Vocabulary)+firstUserID)
	idMap[startID] = startID
	idMap[endID] = endID
	for i, tok := range ex.Vocabulary {
		if tok == c.start || tok == c.end {
			return fmt.Errorf("snapshot vocabulary entry %d: %w", i, ErrReservedToken)
		}
		idMap[i+firstUserID] = c.intern(tok)
	}

	var keyBuf []byte
	for _, link := range ex.Links {
		if len(link.Context) != c.order {
			return fmt.Errorf("snapshot link has %d-token context, want %d", len(link.Context), c.order)
		}
		if link.Frequency < 1 {
			return fmt.Errorf("snapshot link has non-positive frequency %d", link.Frequency)
		}
		ctx := make([]int, len(link.Context))
		for i, old := range link.Context {
			id, ok := idMap[old]
			if !ok {
				return fmt.Errorf("snapshot context references unknown token id %d", old)
			}
			ctx[i] = id
		}
		next, ok := idMap[link.NextID]
		if !ok {
			return fmt.Errorf("snapshot link references unknown token id %d", link.NextID)
		}
		keyBuf = appendContextKey(keyBuf[:0], ctx)
		c.table.add(string(keyBuf), next, link.Frequency)
	}
	return nil
}
