package corpus

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestInsertAndGetCorpusInfo(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	info, err := s.InsertCorpus(ctx, "news")
	if err != nil {
		t.Fatalf("InsertCorpus() failed: %v", err)
	}
	if info.Name != "news" || info.Id <= 0 {
		t.Errorf("InsertCorpus() = %+v, want name news and a positive id", info)
	}

	got, err := s.GetCorpusInfo(ctx, "news")
	if err != nil {
		t.Fatalf("GetCorpusInfo() failed: %v", err)
	}
	if got != info {
		t.Errorf("GetCorpusInfo() = %+v, want %+v", got, info)
	}

	if _, err = s.InsertCorpus(ctx, "news"); err == nil {
		t.Error("InsertCorpus() with a duplicate name should fail")
	}
	if _, err = s.GetCorpusInfo(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCorpusInfo(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestGetCorpusInfos(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.InsertCorpus(ctx, name); err != nil {
			t.Fatalf("InsertCorpus(%q) failed: %v", name, err)
		}
	}
	infos, err := s.GetCorpusInfos(ctx)
	if err != nil {
		t.Fatalf("GetCorpusInfos() failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("GetCorpusInfos() returned %d corpora, want 3", len(infos))
	}
	if infos["b"].Name != "b" {
		t.Errorf("GetCorpusInfos()[b] = %+v", infos["b"])
	}
}

func TestIngestAndSentences(t *testing.T) {
	ctx, s, info := setupTestStoreWithCorpus(t)

	got, err := s.Sentences(ctx, info)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	want := [][]string{{"one", "fish", "two", "fish"}, {"red", "fish", "blue", "fish"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sentences() = %q, want %q", got, want)
	}

	result, err := s.Ingest(ctx, info, strings.NewReader("one more fish!"))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if result != (IngestResult{Sentences: 1, Tokens: 3}) {
		t.Errorf("Ingest() = %+v, want 1 sentence and 3 tokens", result)
	}

	got, err = s.Sentences(ctx, info)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(got) != 3 || !reflect.DeepEqual(got[2], []string{"one", "more", "fish"}) {
		t.Errorf("Sentences() after second ingest = %q", got)
	}
}

func TestIngestKeepsCorporaApart(t *testing.T) {
	ctx, s, first := setupTestStoreWithCorpus(t)

	second, err := s.InsertCorpus(ctx, "other")
	if err != nil {
		t.Fatalf("InsertCorpus() failed: %v", err)
	}
	if _, err = s.Ingest(ctx, second, strings.NewReader("green eggs and ham.")); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	got, err := s.Sentences(ctx, second)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"green", "eggs", "and", "ham"}}) {
		t.Errorf("Sentences(other) = %q", got)
	}
	got, err = s.Sentences(ctx, first)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Sentences(test_corpus) returned %d sentences, want 2", len(got))
	}
}

func TestIngestDedup(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()
	info, err := s.InsertCorpus(ctx, "dedup")
	if err != nil {
		t.Fatalf("InsertCorpus() failed: %v", err)
	}

	result, err := s.Ingest(ctx, info, strings.NewReader("a b. a b. c d."), WithDedup(100, 0.0001))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if result != (IngestResult{Sentences: 2, Tokens: 4, Duplicates: 1}) {
		t.Errorf("Ingest() = %+v, want 2 stored and 1 duplicate", result)
	}

	// The filter is seeded from what the corpus already holds.
	result, err = s.Ingest(ctx, info, strings.NewReader("c d. e f."), WithDedup(100, 0.0001))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if result.Sentences != 1 || result.Duplicates != 1 {
		t.Errorf("Ingest() = %+v, want 1 stored and 1 duplicate", result)
	}

	// Without the option nothing is skipped.
	result, err = s.Ingest(ctx, info, strings.NewReader("a b."))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if result.Sentences != 1 || result.Duplicates != 0 {
		t.Errorf("Ingest() = %+v, want 1 stored and no duplicates", result)
	}
}

func TestRemoveCorpus(t *testing.T) {
	ctx, s, info := setupTestStoreWithCorpus(t)

	if err := s.RemoveCorpus(ctx, info); err != nil {
		t.Fatalf("RemoveCorpus() failed: %v", err)
	}
	if _, err := s.GetCorpusInfo(ctx, info.Name); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCorpusInfo() after removal error = %v, want sql.ErrNoRows", err)
	}
	got, err := s.Sentences(ctx, info)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Sentences() after removal = %q, want none", got)
	}
}

func TestGetStats(t *testing.T) {
	ctx, s, info := setupTestStoreWithCorpus(t)

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if len(stats.Corpora) != 1 || stats.Corpora[0] != info {
		t.Errorf("GetStats().Corpora = %+v, want [%+v]", stats.Corpora, info)
	}
	if got := stats.Stats[info.Id]; got != (CorpusStats{Sentences: 2, Tokens: 8}) {
		t.Errorf("GetStats().Stats = %+v, want 2 sentences and 8 tokens", got)
	}
	// one fish two red blue
	if stats.VocabSize != 5 {
		t.Errorf("GetStats().VocabSize = %d, want 5", stats.VocabSize)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx, s, info := setupTestStoreWithCorpus(t)

	want, err := s.Sentences(ctx, info)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}

	var buf bytes.Buffer
	if err = s.ExportCorpus(ctx, info, &buf); err != nil {
		t.Fatalf("ExportCorpus() failed: %v", err)
	}
	if err = s.RemoveCorpus(ctx, info); err != nil {
		t.Fatalf("RemoveCorpus() failed: %v", err)
	}

	imported, result, err := s.ImportCorpus(ctx, &buf)
	if err != nil {
		t.Fatalf("ImportCorpus() failed: %v", err)
	}
	if imported.Name != info.Name {
		t.Errorf("ImportCorpus() name = %q, want %q", imported.Name, info.Name)
	}
	if result.Sentences != len(want) {
		t.Errorf("ImportCorpus() stored %d sentences, want %d", result.Sentences, len(want))
	}

	got, err := s.Sentences(ctx, imported)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %q, want %q", got, want)
	}

	if _, _, err = s.ImportCorpus(ctx, strings.NewReader(`{"sentences": [["a"]]}`)); err == nil {
		t.Error("ImportCorpus() without a name should fail")
	}
}

func TestPruneVocabulary(t *testing.T) {
	ctx, s, info := setupTestStoreWithCorpus(t)

	other, err := s.InsertCorpus(ctx, "other")
	if err != nil {
		t.Fatalf("InsertCorpus() failed: %v", err)
	}
	if _, err = s.Ingest(ctx, other, strings.NewReader("one red hat.")); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	removed, err := s.PruneVocabulary(ctx)
	if err != nil {
		t.Fatalf("PruneVocabulary() failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("PruneVocabulary() removed %d tokens while all are in use", removed)
	}

	if err = s.RemoveCorpus(ctx, info); err != nil {
		t.Fatalf("RemoveCorpus() failed: %v", err)
	}
	// fish two blue are now unused; one red are still used by "other".
	removed, err = s.PruneVocabulary(ctx)
	if err != nil {
		t.Fatalf("PruneVocabulary() failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("PruneVocabulary() removed %d tokens, want 3", removed)
	}

	got, err := s.Sentences(ctx, other)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"one", "red", "hat"}}) {
		t.Errorf("Sentences(other) after prune = %q", got)
	}
}
