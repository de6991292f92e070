package markov

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// newWordChain creates a string chain with the text sentinels and feeds it
// the given sequences.
func newWordChain(t *testing.T, order int, seqs ...[]string) *Chain[string] {
	t.Helper()
	c, err := New[string](order, StartToken, EndToken)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, seq := range seqs {
		if err := c.Feed(seq); err != nil {
			t.Fatalf("Feed(%v) error = %v", seq, err)
		}
	}
	return c
}

// setupTestDB creates a SQLite database in a temp dir with the store
// schema applied. Cleanup is handled through t.Cleanup.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	return db
}

// setupTextStore creates a text store over a fresh test database.
func setupTextStore(t *testing.T) *Store[string] {
	t.Helper()
	db := setupTestDB(t)
	s, err := NewTextStore(db)
	if err != nil {
		t.Fatalf("NewTextStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}
