/*
Package markov implements a generic Markov chain engine: it learns
empirical transition frequencies from sequences of tokens and produces
new, statistically plausible sequences by weighted-random sampling.

The core type is Chain, which works with any comparable token type and a
configurable history window (order). On top of it the package provides a
text convenience layer with a pluggable tokenizer, JSON snapshot
export/import, a SQLite-backed store for persisting trained chains, and
a read-only graph export for visualization tooling.
*/
package markov
