package corpus

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const testText = "one fish two fish. red fish blue fish."

// setupTestStore creates a new SQLite database and a Store for testing.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db, NewDefaultTokenizer())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestStoreWithCorpus also creates a corpus and ingests testText into it.
func setupTestStoreWithCorpus(t *testing.T) (context.Context, *Store, CorpusInfo) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	info, err := s.InsertCorpus(ctx, "test_corpus")
	if err != nil {
		t.Fatalf("setup: InsertCorpus() failed: %v", err)
	}
	if _, err := s.Ingest(ctx, info, strings.NewReader(testText)); err != nil {
		t.Fatalf("setup: Ingest() failed: %v", err)
	}
	return ctx, s, info
}
