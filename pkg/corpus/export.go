package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ExportedCorpus is the JSON representation of a corpus used for backups.
type ExportedCorpus struct {
	Name      string     `json:"name"`
	Sentences [][]string `json:"sentences"`
}

// ExportCorpus writes corpus as indented JSON to w.
func (s *Store) ExportCorpus(ctx context.Context, corpus CorpusInfo, w io.Writer) error {
	sentences, err := s.Sentences(ctx, corpus)
	if err != nil {
		return err
	}
	if sentences == nil {
		sentences = [][]string{}
	}

	s.logger.InfoContext(ctx, "Corpus exported",
		slog.String("corpus_name", corpus.Name),
		slog.Int("corpus_id", corpus.Id),
		slog.Int("sentences_exported", len(sentences)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportedCorpus{Name: corpus.Name, Sentences: sentences})
}

// ImportCorpus reads an exported corpus from r and appends its sentences to
// the corpus of the same name, creating it if needed. Sentences are stored
// as exported, without re-tokenizing.
func (s *Store) ImportCorpus(ctx context.Context, r io.Reader, opts ...IngestOption) (CorpusInfo, IngestResult, error) {
	var imported ExportedCorpus
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return CorpusInfo{}, IngestResult{}, fmt.Errorf("could not decode corpus: %w", err)
	}
	if imported.Name == "" {
		return CorpusInfo{}, IngestResult{}, errors.New("imported corpus has no name")
	}

	info, err := s.GetCorpusInfo(ctx, imported.Name)
	if errors.Is(err, sql.ErrNoRows) {
		info, err = s.InsertCorpus(ctx, imported.Name)
	}
	if err != nil {
		return CorpusInfo{}, IngestResult{}, err
	}

	result, err := s.ingest(ctx, info, &sliceStream{sentences: imported.Sentences}, opts...)
	return info, result, err
}

// sliceStream replays already tokenized sentences, skipping empty ones.
type sliceStream struct {
	sentences [][]string
}

func (s *sliceStream) Next() ([]string, error) {
	for len(s.sentences) > 0 {
		sent := s.sentences[0]
		s.sentences = s.sentences[1:]
		if len(sent) > 0 {
			return sent, nil
		}
	}
	return nil, io.EOF
}
