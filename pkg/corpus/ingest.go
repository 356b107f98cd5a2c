package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
)

// sentenceBatchSize determines how many sentences are buffered in memory
// before being written to the database.
const sentenceBatchSize = 1000

// IngestResult reports what one call to Ingest stored.
type IngestResult struct {
	Sentences  int `json:"sentences"`
	Tokens     int `json:"tokens"`
	Duplicates int `json:"duplicates"`
}

type ingestOptions struct {
	dedup         bool
	expectedItems uint
	fpRate        float64
}

// IngestOption configures a single Ingest call.
type IngestOption func(*ingestOptions)

// WithDedup skips sentences already present in the corpus, or seen earlier in
// the same input. Membership is tracked with a Bloom filter sized for
// expectedItems sentences at the given false positive rate, so a small share
// of unique sentences may also be skipped. Rates outside (0, 1) fall back to
// 0.001.
func WithDedup(expectedItems uint, falsePositiveRate float64) IngestOption {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.001
	}
	return func(o *ingestOptions) {
		o.dedup = true
		o.expectedItems = expectedItems
		o.fpRate = falsePositiveRate
	}
}

type pendingSentence struct {
	key   string
	count int
}

// Ingest tokenizes data and appends its sentences to corpus. The whole
// operation runs in a single transaction; on error nothing is stored.
func (s *Store) Ingest(ctx context.Context, corpus CorpusInfo, data io.Reader, opts ...IngestOption) (IngestResult, error) {
	return s.ingest(ctx, corpus, s.tokenizer.NewStream(data), opts...)
}

func (s *Store) ingest(ctx context.Context, corpus CorpusInfo, stream SentenceStream, opts ...IngestOption) (IngestResult, error) {
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var result IngestResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtInsertSent := tx.StmtContext(ctx, s.stmtInsertSent)

	var filter *bloom.BloomFilter
	if o.dedup {
		filter = bloom.NewWithEstimates(max(o.expectedItems, 1), o.fpRate)
		if err = s.seedFilter(ctx, tx, corpus, filter); err != nil {
			return result, fmt.Errorf("failed to load existing sentences: %w", err)
		}
	}

	tokenCache := make(map[string]int)
	batch := make([]pendingSentence, 0, sentenceBatchSize)
	commitBatch := func() error {
		for _, p := range batch {
			if _, err := stmtInsertSent.ExecContext(ctx, corpus.Id, p.key, p.count); err != nil {
				return fmt.Errorf("failed during batch insert of sentence %q: %w", p.key, err)
			}
		}
		batch = batch[:0]
		return nil
	}

	var keyBuf []byte
	for {
		sent, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return result, fmt.Errorf("tokenizer error: %w", err)
		}

		keyBuf = keyBuf[:0]
		for j, tok := range sent {
			tokenID, ok := tokenCache[tok]
			if !ok {
				if err = stmtInsertVocab.QueryRowContext(ctx, tok).Scan(&tokenID); err != nil {
					return result, fmt.Errorf("sql insert vocabulary error for token '%s': %w", tok, err)
				}
				tokenCache[tok] = tokenID
			}
			if j > 0 {
				keyBuf = append(keyBuf, ' ')
			}
			keyBuf = strconv.AppendInt(keyBuf, int64(tokenID), 10)
		}
		key := string(keyBuf)

		if filter != nil {
			if filter.TestString(key) {
				result.Duplicates++
				continue
			}
			filter.AddString(key)
		}

		batch = append(batch, pendingSentence{key: key, count: len(sent)})
		result.Sentences++
		result.Tokens += len(sent)
		if len(batch) >= sentenceBatchSize {
			if err = commitBatch(); err != nil {
				return result, err
			}
		}
	}

	if err = commitBatch(); err != nil {
		return result, err
	}
	if err = tx.Commit(); err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "Ingest completed",
		slog.String("corpus_name", corpus.Name),
		slog.Int("corpus_id", corpus.Id),
		slog.Int("sentences_stored", result.Sentences),
		slog.Int("tokens_stored", result.Tokens),
		slog.Int("duplicates_skipped", result.Duplicates),
	)
	return result, nil
}

func (s *Store) seedFilter(ctx context.Context, tx *sql.Tx, corpus CorpusInfo, filter *bloom.BloomFilter) error {
	rows, err := tx.StmtContext(ctx, s.stmtGetSentences).QueryContext(ctx, corpus.Id)
	if err != nil {
		return err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return err
		}
		filter.AddString(key)
	}
	return rows.Err()
}
