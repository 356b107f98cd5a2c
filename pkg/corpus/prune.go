package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// PruneVocabulary removes vocabulary entries that no stored sentence uses,
// such as the tokens left behind by RemoveCorpus. It returns the number of
// entries removed.
func (s *Store) PruneVocabulary(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for pruning: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	used, err := usedTokenIDs(ctx, tx)
	if err != nil {
		return 0, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT token_id FROM corpus_vocabulary`)
	if err != nil {
		return 0, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	var orphans []any
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan token id: %w", err)
		}
		if _, ok := used[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error after iterating vocabulary rows: %w", err)
	}

	for start := 0; start < len(orphans); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(orphans))
		chunk := orphans[start:end]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := fmt.Sprintf(`DELETE FROM corpus_vocabulary WHERE token_id IN (%s)`, placeholders)
		if _, err := tx.ExecContext(ctx, query, chunk...); err != nil {
			return 0, fmt.Errorf("failed to prune vocabulary: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Vocabulary pruned", slog.Int("tokens_removed", len(orphans)))
	return len(orphans), nil
}

func usedTokenIDs(ctx context.Context, tx *sql.Tx) (map[int]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT token_ids FROM corpus_sentences`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentences: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	used := make(map[int]struct{})
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		ids, err := parseKey(key)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			used[id] = struct{}{}
		}
	}
	return used, rows.Err()
}
