package markov

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupTextChain(t *testing.T) *TextChain {
	t.Helper()
	c, err := NewText(2, nil)
	if err != nil {
		t.Fatalf("NewText() error = %v", err)
	}
	if err := c.TrainString("one fish two fish. red fish blue fish."); err != nil {
		t.Fatalf("TrainString() error = %v", err)
	}
	return c
}

func TestTextGenerate(t *testing.T) {
	c := setupTextChain(t)

	expected1 := "one fish two fish."
	expected2 := "red fish blue fish."
	for i := 0; i < 20; i++ {
		out := c.GenerateString()
		if out != expected1 && out != expected2 {
			t.Fatalf("GenerateString() = %q, want one of [%q, %q]", out, expected1, expected2)
		}
	}
}

func TestTextGenerateFrom(t *testing.T) {
	c := setupTextChain(t)

	out, err := c.GenerateStringFrom("one fish")
	if err != nil {
		t.Fatalf("GenerateStringFrom() error = %v", err)
	}
	if want := "one fish two fish."; out != want {
		t.Errorf("GenerateStringFrom(one fish) = %q, want %q", out, want)
	}

	if _, err := c.GenerateStringFrom("green fish"); err == nil {
		t.Error("expected an error for an unknown seed token")
	} else if !strings.Contains(err.Error(), "not found in vocabulary") {
		t.Errorf("unexpected error: %v", err)
	}

	// An empty seed behaves like GenerateString.
	out, err = c.GenerateStringFrom("")
	if err != nil {
		t.Fatalf("GenerateStringFrom(empty) error = %v", err)
	}
	if out != "one fish two fish." && out != "red fish blue fish." {
		t.Errorf("GenerateStringFrom(empty) = %q", out)
	}
}

func TestTextTrainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	corpus := "the cat sat.\nthe dog sat.\n"
	if err := os.WriteFile(path, []byte(corpus), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewText(1, nil)
	if err != nil {
		t.Fatalf("NewText() error = %v", err)
	}
	if err := c.TrainFile(path); err != nil {
		t.Fatalf("TrainFile() error = %v", err)
	}

	if c.VocabularySize() != 4 { // the, cat, sat, dog
		t.Errorf("VocabularySize() = %d, want 4", c.VocabularySize())
	}
	if p := c.Probability([]string{"cat"}, "sat"); p != 1 {
		t.Errorf("Probability(cat, sat) = %v, want 1", p)
	}

	if err := c.TrainFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing corpus file")
	}
}

func TestTextUntrained(t *testing.T) {
	c, err := NewText(2, nil)
	if err != nil {
		t.Fatalf("NewText() error = %v", err)
	}
	if out := c.GenerateString(); out != "" {
		t.Errorf("GenerateString() on untrained chain = %q, want empty", out)
	}
}

func TestTextWrapsLoadedChain(t *testing.T) {
	base := newWordChain(t, 1, []string{"hello", "world"})
	c := Text(base, nil)

	if out := c.GenerateString(); out != "hello world." {
		t.Errorf("GenerateString() = %q, want %q", out, "hello world.")
	}
}

func TestTextPunctuationRendering(t *testing.T) {
	c, err := NewText(1, nil)
	if err != nil {
		t.Fatalf("NewText() error = %v", err)
	}
	// The comma is a token of its own; rendering must not put a separator
	// before it, and the EOC mark closes the sentence.
	if err := c.TrainString("hello, world."); err != nil {
		t.Fatalf("TrainString() error = %v", err)
	}
	if out := c.GenerateString(); out != "hello, world." {
		t.Errorf("GenerateString() = %q, want %q", out, "hello, world.")
	}
}
