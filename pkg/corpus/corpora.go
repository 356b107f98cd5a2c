package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// CorpusInfo identifies a named collection of sentences.
type CorpusInfo struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

// InsertCorpus creates an empty corpus and returns its info.
func (s *Store) InsertCorpus(ctx context.Context, name string) (CorpusInfo, error) {
	res, err := s.stmtAddCorpus.ExecContext(ctx, name)
	if err != nil {
		return CorpusInfo{}, fmt.Errorf("could not insert corpus %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return CorpusInfo{}, err
	}
	s.logger.InfoContext(ctx, "Corpus created", slog.String("corpus_name", name), slog.Int64("corpus_id", id))
	return CorpusInfo{Id: int(id), Name: name}, nil
}

// GetCorpusInfo looks up a corpus by name. It returns sql.ErrNoRows if no
// such corpus exists.
func (s *Store) GetCorpusInfo(ctx context.Context, name string) (CorpusInfo, error) {
	var id int
	if err := s.stmtGetCorpusInfo.QueryRowContext(ctx, name).Scan(&id); err != nil {
		return CorpusInfo{}, err
	}
	return CorpusInfo{Id: id, Name: name}, nil
}

// GetCorpusInfos returns every corpus, keyed by name.
func (s *Store) GetCorpusInfos(ctx context.Context) (map[string]CorpusInfo, error) {
	rows, err := s.stmtGetCorpora.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	corpora := make(map[string]CorpusInfo)
	for rows.Next() {
		var c CorpusInfo
		if err = rows.Scan(&c.Id, &c.Name); err != nil {
			return nil, err
		}
		corpora[c.Name] = c
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return corpora, nil
}

// RemoveCorpus deletes a corpus and all of its sentences in one transaction.
// Vocabulary entries are shared between corpora and are kept.
func (s *Store) RemoveCorpus(ctx context.Context, corpus CorpusInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_sentences WHERE corpus_id = ?", corpus.Id); err != nil {
		return fmt.Errorf("failed to remove sentences for corpus %d: %w", corpus.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_corpora WHERE corpus_id = ?", corpus.Id); err != nil {
		return fmt.Errorf("failed to remove corpus %d: %w", corpus.Id, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Corpus removed",
		slog.String("corpus_name", corpus.Name),
		slog.Int("corpus_id", corpus.Id),
	)
	return nil
}
