package markov

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	if _, err := New[string](2, "<s>", "</s>"); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := New[int](0, -1, -2); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("New() with order 0: got %v, want ErrInvalidOrder", err)
	}
	if _, err := New[int](-3, -1, -2); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("New() with negative order: got %v, want ErrInvalidOrder", err)
	}
	if _, err := New[int](1, 7, 7); err == nil {
		t.Error("New() with equal sentinels: expected an error")
	}
}

func TestFeedReservedToken(t *testing.T) {
	for order := 1; order <= 4; order++ {
		t.Run(fmt.Sprintf("Order%d", order), func(t *testing.T) {
			c, err := New[string](order, StartToken, EndToken)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := c.Feed([]string{StartToken}); !errors.Is(err, ErrReservedToken) {
				t.Errorf("Feed(start sentinel): got %v, want ErrReservedToken", err)
			}
			if err := c.Feed([]string{EndToken}); !errors.Is(err, ErrReservedToken) {
				t.Errorf("Feed(end sentinel): got %v, want ErrReservedToken", err)
			}
			if err := c.Feed([]string{"a", EndToken, "b"}); !errors.Is(err, ErrReservedToken) {
				t.Errorf("Feed with embedded sentinel: got %v, want ErrReservedToken", err)
			}
			// A rejected feed must not have touched the table.
			if !c.IsEmpty() {
				t.Error("chain mutated by a rejected Feed")
			}
		})
	}
}

func TestFeedEmptySequence(t *testing.T) {
	c := newWordChain(t, 2, nil)

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	startCtx := []string{StartToken, StartToken}
	if p := c.EndProbability(startCtx); p != 1 {
		t.Errorf("EndProbability(start context) = %v, want 1", p)
	}
	if out := c.Generate(); len(out) != 0 {
		t.Errorf("Generate() on empty-sequence chain = %v, want empty", out)
	}
}

func TestOrderInvariant(t *testing.T) {
	for order := 1; order <= 5; order++ {
		c := newWordChain(t, order,
			[]string{"a", "b", "c"},
			[]string{"b"},
			nil,
		)
		for key := range c.table.m {
			if got := len(parseContextKey(key)); got != order {
				t.Errorf("order %d: context key %q has %d tokens", order, key, got)
			}
		}
	}
}

func TestCountMonotonicity(t *testing.T) {
	c := newWordChain(t, 1)
	startCtx := []string{StartToken}

	prev := 0
	for i := 1; i <= 5; i++ {
		if err := c.Feed([]string{"a", "b"}); err != nil {
			t.Fatalf("Feed() error = %v", err)
		}
		_, total := c.NextTokens(startCtx)
		if total <= prev {
			t.Fatalf("after %d feeds: start context total %d did not increase from %d", i, total, prev)
		}
		if total != i {
			t.Errorf("after %d feeds: start context total = %d, want %d", i, total, i)
		}
		prev = total
	}
}

func TestIsEmptyAndReset(t *testing.T) {
	c := newWordChain(t, 2)
	if !c.IsEmpty() {
		t.Error("fresh chain should be empty")
	}
	if err := c.Feed([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if c.IsEmpty() {
		t.Error("fed chain should not be empty")
	}
	if c.VocabularySize() != 3 {
		t.Errorf("VocabularySize() = %d, want 3", c.VocabularySize())
	}

	c.Reset()
	if !c.IsEmpty() || c.VocabularySize() != 0 || c.TotalFrequency() != 0 {
		t.Error("Reset() did not return the chain to its initial state")
	}
	if c.Order() != 2 {
		t.Errorf("Reset() changed the order to %d", c.Order())
	}
	// The chain must remain usable after a reset.
	if err := c.Feed([]string{"x"}); err != nil {
		t.Fatalf("Feed() after Reset error = %v", err)
	}
}

func TestPrune(t *testing.T) {
	c := newWordChain(t, 1,
		[]string{"a", "b"},
		[]string{"a", "b"},
		[]string{"a", "b"},
		[]string{"a", "c"},
	)

	aCtx := []string{"a"}
	if p := c.Probability(aCtx, "c"); p == 0 {
		t.Fatal("setup: expected a -> c transition before pruning")
	}

	c.Prune(1)

	if p := c.Probability(aCtx, "c"); p != 0 {
		t.Errorf("Probability(a, c) after prune = %v, want 0", p)
	}
	if p := c.Probability(aCtx, "b"); p != 1 {
		t.Errorf("Probability(a, b) after prune = %v, want 1", p)
	}

	// Pruning everything leaves an empty, generable chain.
	c.Prune(1 << 30)
	if !c.IsEmpty() {
		t.Error("full prune should empty the table")
	}
	if out := c.Generate(); len(out) != 0 {
		t.Errorf("Generate() after full prune = %v, want empty", out)
	}
}

func TestSequencesShorterThanOrder(t *testing.T) {
	// Start padding absorbs sequences shorter than the order.
	c := newWordChain(t, 4, []string{"a"})

	if c.Len() != 2 { // (S,S,S,S) and (S,S,S,a)
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	out := c.Generate()
	if len(out) != 1 || out[0] != "a" {
		t.Errorf("Generate() = %v, want [a]", out)
	}
}
