package markov

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Edge is one transition of the chain viewed as a directed graph: the
// context it leaves from, the token that was drawn, and the normalized
// probability of that draw. Terminal marks edges that end a sequence.
//
// The triples are the whole export contract; adapting them to a concrete
// graph library's node/edge API is left to the consumer.
type Edge[T comparable] struct {
	Context  []T
	Next     T
	Terminal bool
	Count    int
	Weight   float64
}

// Edges walks the finalized transition table and returns one Edge per
// (context, next token) pair, with weights normalized per context. The
// traversal is read-only and deterministic; an empty chain yields an
// empty slice.
func (c *Chain[T]) Edges() []Edge[T] {
	keys := make([]string, 0, c.table.contexts())
	for key := range c.table.m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	edges := make([]Edge[T], 0, c.table.transitions)
	for _, key := range keys {
		d := c.table.m[key]
		ctxIDs := parseContextKey(key)
		context := make([]T, len(ctxIDs))
		for i, id := range ctxIDs {
			context[i] = c.tokens[id]
		}

		nextIDs := make([]int, 0, len(d.counts))
		for id := range d.counts {
			nextIDs = append(nextIDs, id)
		}
		sort.Ints(nextIDs)

		for _, id := range nextIDs {
			freq := d.counts[id]
			edges = append(edges, Edge[T]{
				Context:  context,
				Next:     c.tokens[id],
				Terminal: id == endID,
				Count:    freq,
				Weight:   float64(freq) / float64(d.total),
			})
		}
	}
	return edges
}

// WriteDOT renders the chain as a GraphViz digraph: one node per distinct
// context, a single terminal node, and one labeled edge per transition.
// It is a convenience over Edges for quick visualization.
func (c *Chain[T]) WriteDOT(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %q {\n", name)
	fmt.Fprintf(bw, "\trankdir=LR;\n")

	endLabel := fmt.Sprint(c.end)
	for _, e := range c.Edges() {
		from := contextLabel(e.Context)
		var to string
		if e.Terminal {
			to = endLabel
		} else {
			// The successor context: oldest token dropped, drawn token appended.
			shifted := append(append([]T{}, e.Context[1:]...), e.Next)
			to = contextLabel(shifted)
		}
		fmt.Fprintf(bw, "\t%q -> %q [label=%q];\n",
			from, to, fmt.Sprintf("%v %.3f", e.Next, e.Weight))
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func contextLabel[T comparable](context []T) string {
	parts := make([]string, len(context))
	for i, tok := range context {
		parts[i] = fmt.Sprint(tok)
	}
	return strings.Join(parts, " ")
}
