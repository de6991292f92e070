package markov

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	// Order 1 on a single two-token sequence leaves no branching anywhere:
	// every invocation must return exactly that sequence.
	c := newWordChain(t, 1, []string{"a", "b"})

	if p := c.Probability([]string{StartToken}, "a"); p != 1 {
		t.Fatalf("Probability(start, a) = %v, want 1", p)
	}
	if p := c.Probability([]string{"a"}, "b"); p != 1 {
		t.Fatalf("Probability(a, b) = %v, want 1", p)
	}

	want := []string{"a", "b"}
	for i := 0; i < 50; i++ {
		if got := c.Generate(); !slices.Equal(got, want) {
			t.Fatalf("Generate() = %v, want %v", got, want)
		}
	}
}

func TestGenerateClosedVocabulary(t *testing.T) {
	c := newWordChain(t, 1, []string{"a", "b", "c"})
	seen := map[string]bool{"a": true, "b": true, "c": true}

	for i := 0; i < 200; i++ {
		for _, tok := range c.Generate() {
			if !seen[tok] {
				t.Fatalf("Generate() produced token %q never seen in training", tok)
			}
		}
	}
}

func TestGenerateUntrained(t *testing.T) {
	c := newWordChain(t, 2)
	if out := c.Generate(); out != nil {
		t.Errorf("Generate() on untrained chain = %v, want nil", out)
	}
}

func TestGenerateMaxLength(t *testing.T) {
	// A self-loop makes long outputs likely; the cap must hold regardless.
	c := newWordChain(t, 1, []string{"a", "a", "a", "a", "a", "a", "a", "a"})
	for i := 0; i < 100; i++ {
		if out := c.Generate(WithMaxLength(3)); len(out) > 3 {
			t.Fatalf("Generate(WithMaxLength(3)) produced %d tokens", len(out))
		}
	}
}

func TestGenerateFrom(t *testing.T) {
	c := newWordChain(t, 1, []string{"a", "b", "c"})

	out := c.GenerateFrom("b")
	if len(out) == 0 || out[0] != "b" {
		t.Fatalf("GenerateFrom(b) = %v, want sequence starting with b", out)
	}
	want := []string{"b", "c"}
	if !slices.Equal(out, want) {
		t.Errorf("GenerateFrom(b) = %v, want %v", out, want)
	}

	if out := c.GenerateFrom("z"); out != nil {
		t.Errorf("GenerateFrom(unknown) = %v, want nil", out)
	}
	if out := c.GenerateFrom(StartToken); out != nil {
		t.Errorf("GenerateFrom(sentinel) = %v, want nil", out)
	}
}

func TestSetRandReproducible(t *testing.T) {
	feed := func(c *Chain[string]) {
		for _, line := range []string{"a b c", "a c b", "b a", "c a b a"} {
			if err := c.Feed(strings.Fields(line)); err != nil {
				t.Fatalf("Feed() error = %v", err)
			}
		}
	}
	c1 := newWordChain(t, 1)
	c2 := newWordChain(t, 1)
	feed(c1)
	feed(c2)
	c1.SetRand(rand.NewPCG(1, 2))
	c2.SetRand(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		g1, g2 := c1.Generate(), c2.Generate()
		if !slices.Equal(g1, g2) {
			t.Fatalf("generation %d diverged with identical seeds: %v vs %v", i, g1, g2)
		}
	}
}

func TestSequencesN(t *testing.T) {
	c := newWordChain(t, 1, []string{"a", "b"})
	var count int
	for seq := range c.SequencesN(5) {
		if len(seq) == 0 {
			t.Error("SequencesN yielded an empty sequence for a deterministic chain")
		}
		count++
	}
	if count != 5 {
		t.Errorf("SequencesN(5) yielded %d sequences", count)
	}
}

func TestSequencesBreak(t *testing.T) {
	c := newWordChain(t, 1, []string{"a"})
	var count int
	for range c.Sequences() {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("stopped after %d sequences, want 3", count)
	}
}

func BenchmarkFeed(b *testing.B) {
	words := strings.Fields(strings.Repeat("the quick brown fox jumps over the lazy dog ", 32))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := New[string](2, StartToken, EndToken)
		if err != nil {
			b.Fatal(err)
		}
		if err := c.Feed(words); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	c, err := New[string](2, StartToken, EndToken)
	if err != nil {
		b.Fatal(err)
	}
	words := strings.Fields(strings.Repeat("the quick brown fox jumps over the lazy dog ", 32))
	if err := c.Feed(words); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Generate(WithMaxLength(64))
	}
}
