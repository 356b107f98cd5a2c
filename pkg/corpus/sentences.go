package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// lookupChunkSize keeps IN (...) lists well below SQLite's variable limit.
const lookupChunkSize = 500

// Sentences returns every sentence stored in corpus, in insertion order.
func (s *Store) Sentences(ctx context.Context, corpus CorpusInfo) ([][]string, error) {
	rows, err := s.stmtGetSentences.QueryContext(ctx, corpus.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query sentences for corpus %d: %w", corpus.Id, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var idSentences [][]int
	tokenIDs := make(map[int]struct{})
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
			tokenIDs[id] = struct{}{}
		}
		idSentences = append(idSentences, ids)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	tokens, err := s.lookupTokens(ctx, tokenIDs)
	if err != nil {
		return nil, err
	}

	sentences := make([][]string, len(idSentences))
	for i, ids := range idSentences {
		sent := make([]string, len(ids))
		for j, id := range ids {
			text, ok := tokens[id]
			if !ok {
				return nil, fmt.Errorf("token id %d missing from vocabulary", id)
			}
			sent[j] = text
		}
		sentences[i] = sent
	}
	return sentences, nil
}

// lookupTokens resolves token IDs to their text in chunks.
func (s *Store) lookupTokens(ctx context.Context, ids map[int]struct{}) (map[int]string, error) {
	tokens := make(map[int]string, len(ids))
	args := make([]any, 0, lookupChunkSize)
	flush := func() error {
		if len(args) == 0 {
			return nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
		query := fmt.Sprintf(`SELECT token_id, token_text FROM corpus_vocabulary WHERE token_id IN (%s)`, placeholders)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func(rows *sql.Rows) {
			_ = rows.Close()
		}(rows)
		for rows.Next() {
			var id int
			var text string
			if err = rows.Scan(&id, &text); err != nil {
				return err
			}
			tokens[id] = text
		}
		args = args[:0]
		return rows.Err()
	}

	for id := range ids {
		args = append(args, id)
		if len(args) == lookupChunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func parseKey(key string) ([]int, error) {
	fields := strings.Fields(key)
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("malformed sentence key %q: %w", key, err)
		}
		ids[i] = id
	}
	return ids, nil
}
