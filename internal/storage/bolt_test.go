package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(url, title string, createdAt time.Time) EmbeddingRecord {
	raw, _ := EncodeVector([]float64{1, 0, 0})
	return EmbeddingRecord{
		SourceURL:   url,
		Title:       title,
		Description: title + " 상세",
		Publisher:   "test.co.kr",
		RawVector:   raw,
		Dimension:   3,
		CreatedAt:   createdAt,
	}
}

func TestBoltStore_SaveAndFind(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("https://x/1", "경제 뉴스", time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := store.FindBySourceURL(ctx, "https://x/1")
	if err != nil {
		t.Fatalf("FindBySourceURL: %v", err)
	}
	if found == nil || found.Title != "경제 뉴스" {
		t.Fatalf("unexpected record: %+v", found)
	}

	vector, err := found.Vector()
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if len(vector) != 3 || vector[0] != 1 {
		t.Errorf("vector roundtrip broken: %v", vector)
	}

	missing, err := store.FindBySourceURL(ctx, "https://x/none")
	if err != nil {
		t.Fatalf("FindBySourceURL(miss): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing record, got %+v", missing)
	}
}

func TestBoltStore_SaveDuplicate(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("https://x/dup", "첫 저장", time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	err := store.Save(ctx, testRecord("https://x/dup", "두번째 저장", time.Now()))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one record after duplicate save, got %d", count)
	}

	found, _ := store.FindBySourceURL(ctx, "https://x/dup")
	if found.Title != "첫 저장" {
		t.Errorf("duplicate save must not mutate the record, got title %q", found.Title)
	}
}

func TestBoltStore_FindRecent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	old := testRecord("https://x/old", "옛날 뉴스", now.Add(-10*24*time.Hour))
	fresh := testRecord("https://x/new", "최신 뉴스", now.Add(-1*time.Hour))
	newest := testRecord("https://x/newest", "방금 뉴스", now)

	for _, r := range []EmbeddingRecord{old, fresh, newest} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	records, err := store.FindRecent(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("FindRecent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 recent records, got %d", len(records))
	}
	if records[0].SourceURL != "https://x/newest" {
		t.Errorf("expected newest-first ordering, got %s first", records[0].SourceURL)
	}
}

func TestBoltStore_FindAllExcluding(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.Save(ctx, testRecord("https://x/self", "자기 자신", now))
	store.Save(ctx, testRecord("https://x/other", "다른 기사", now.Add(-time.Minute)))

	records, err := store.FindAllExcluding(ctx, "https://x/self")
	if err != nil {
		t.Fatalf("FindAllExcluding: %v", err)
	}
	if len(records) != 1 || records[0].SourceURL != "https://x/other" {
		t.Fatalf("self-exclusion broken: %+v", records)
	}
}

func TestBoltStore_FindByKeyword(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.Save(ctx, testRecord("https://x/a", "정부 예산안 발표", now))
	store.Save(ctx, testRecord("https://x/b", "스포츠 경기 결과", now.Add(-time.Minute)))

	records, err := store.FindByKeyword(ctx, "정부")
	if err != nil {
		t.Fatalf("FindByKeyword: %v", err)
	}
	if len(records) != 1 || records[0].SourceURL != "https://x/a" {
		t.Fatalf("keyword filter broken: %+v", records)
	}
}

func TestEmbeddingRecord_VectorParseFailure(t *testing.T) {
	t.Parallel()

	r := EmbeddingRecord{SourceURL: "https://x/bad", RawVector: "not json", Dimension: 3}
	if _, err := r.Vector(); !errors.Is(err, ErrVectorParse) {
		t.Fatalf("expected ErrVectorParse, got %v", err)
	}

	raw, _ := EncodeVector([]float64{1, 2})
	r = EmbeddingRecord{SourceURL: "https://x/mismatch", RawVector: raw, Dimension: 3}
	if _, err := r.Vector(); !errors.Is(err, ErrVectorParse) {
		t.Fatalf("expected ErrVectorParse on dimension mismatch, got %v", err)
	}
}
