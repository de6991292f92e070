package markov

// distribution holds the observed successor counts for a single context.
// The total is kept alongside so sampling does not re-sum on every draw.
type distribution struct {
	counts map[int]int
	total  int
}

// table is the transition table: a flat mapping from context keys to
// successor distributions. Counts only grow through add; prune and a full
// reset are the only shrinking paths.
type table struct {
	m           map[string]*distribution
	transitions int // distinct (context, next) pairs
	frequency   int // sum of all counts
}

func newTable() table {
	return table{m: make(map[string]*distribution)}
}

// add increments the count for (key, next) by freq, creating the context
// entry and the successor entry as needed.
func (t *table) add(key string, next, freq int) {
	d, ok := t.m[key]
	if !ok {
		d = &distribution{counts: make(map[int]int)}
		t.m[key] = d
	}
	if _, seen := d.counts[next]; !seen {
		t.transitions++
	}
	d.counts[next] += freq
	d.total += freq
	t.frequency += freq
}

// lookup returns the distribution for a context key, or nil if the context
// was never observed. Absence is not an error.
func (t *table) lookup(key string) *distribution {
	return t.m[key]
}

func (t *table) contexts() int {
	return len(t.m)
}

// prune drops every successor entry with a count at or below minFreq and
// removes contexts whose distributions become empty.
func (t *table) prune(minFreq int) {
	for key, d := range t.m {
		for next, freq := range d.counts {
			if freq <= minFreq {
				delete(d.counts, next)
				d.total -= freq
				t.transitions--
				t.frequency -= freq
			}
		}
		if len(d.counts) == 0 {
			delete(t.m, key)
		}
	}
}
