package corpus

import (
	"context"
	"slices"
)

// StoreStats holds aggregated statistics for the whole database.
type StoreStats struct {
	Corpora   []CorpusInfo        `json:"corpora"` // Sorted by ID.
	Stats     map[int]CorpusStats `json:"stats"`   // Keyed by corpus ID.
	VocabSize int                 `json:"vocab_size"`
}

// CorpusStats holds the size of a single corpus.
type CorpusStats struct {
	Sentences int `json:"sentences"`
	Tokens    int `json:"tokens"`
}

// GetStats returns a snapshot of statistics for every corpus.
func (s *Store) GetStats(ctx context.Context) (*StoreStats, error) {
	infos, err := s.GetCorpusInfos(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StoreStats{
		Corpora: make([]CorpusInfo, 0, len(infos)),
		Stats:   make(map[int]CorpusStats, len(infos)),
	}
	if err = s.stmtGetVocabLen.QueryRowContext(ctx).Scan(&stats.VocabSize); err != nil {
		return nil, err
	}

	for _, info := range infos {
		var cs CorpusStats
		if err = s.stmtCorpusCounts.QueryRowContext(ctx, info.Id).Scan(&cs.Sentences, &cs.Tokens); err != nil {
			return nil, err
		}
		stats.Corpora = append(stats.Corpora, info)
		stats.Stats[info.Id] = cs
	}
	slices.SortFunc(stats.Corpora, func(a, b CorpusInfo) int { return a.Id - b.Id })
	return stats, nil
}
