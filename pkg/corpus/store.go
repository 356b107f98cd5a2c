package corpus

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema creates the corpus tables in db. It is idempotent and safe to
// call on an already initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS corpus_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaCorpora = `
CREATE TABLE IF NOT EXISTS corpus_corpora (
    corpus_id INTEGER PRIMARY KEY,
    corpus_name TEXT NOT NULL UNIQUE
);
`
		schemaSentences = `
CREATE TABLE IF NOT EXISTS corpus_sentences (
    sentence_id INTEGER PRIMARY KEY,
    corpus_id INTEGER NOT NULL,
    token_ids TEXT NOT NULL,
    token_count INTEGER NOT NULL
);
`
		indexSentences = `CREATE INDEX IF NOT EXISTS idx_corpus_sentences_corpus ON corpus_sentences (corpus_id, sentence_id);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range []string{schemaVocab, schemaCorpora, schemaSentences, indexSentences} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store keeps tokenized sentences in named corpora. It holds the database
// connection, a tokenizer for ingesting raw text, and prepared statements.
type Store struct {
	db                *sql.DB
	tokenizer         Tokenizer
	stmtGetCorpusInfo *sql.Stmt
	stmtGetCorpora    *sql.Stmt
	stmtAddCorpus     *sql.Stmt
	stmtInsertVocab   *sql.Stmt
	stmtInsertSent    *sql.Stmt
	stmtGetSentences  *sql.Stmt
	stmtCorpusCounts  *sql.Stmt
	stmtGetVocabLen   *sql.Stmt
	logger            *slog.Logger
}

// NewStore prepares all statements the Store needs. SetupSchema must have
// been run on db.
func NewStore(db *sql.DB, tokenizer Tokenizer) (*Store, error) {
	s := &Store{
		db:        db,
		tokenizer: tokenizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetCorpusInfo, `SELECT corpus_id FROM corpus_corpora WHERE corpus_name = ?;`},
		{&s.stmtGetCorpora, `SELECT corpus_id, corpus_name FROM corpus_corpora ORDER BY corpus_id;`},
		{&s.stmtAddCorpus, `INSERT INTO corpus_corpora (corpus_name) VALUES (?);`},
		{&s.stmtInsertVocab, `INSERT INTO corpus_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
		{&s.stmtInsertSent, `INSERT INTO corpus_sentences (corpus_id, token_ids, token_count) VALUES (?, ?, ?);`},
		{&s.stmtGetSentences, `SELECT token_ids FROM corpus_sentences WHERE corpus_id = ? ORDER BY sentence_id;`},
		{&s.stmtCorpusCounts, `SELECT COUNT(*), coalesce(SUM(token_count), 0) FROM corpus_sentences WHERE corpus_id = ?;`},
		{&s.stmtGetVocabLen, `SELECT COUNT(*) FROM corpus_vocabulary;`},
	}
	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}
	return s, nil
}

// Close releases the prepared statements. The database itself is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetCorpusInfo,
		s.stmtGetCorpora,
		s.stmtAddCorpus,
		s.stmtInsertVocab,
		s.stmtInsertSent,
		s.stmtGetSentences,
		s.stmtCorpusCounts,
		s.stmtGetVocabLen,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}
