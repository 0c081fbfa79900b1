package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medialib/internal/domain"
	"medialib/internal/port"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id, title string, created time.Time) domain.CatalogRecord {
	return domain.CatalogRecord{
		ID:        id,
		Title:     title,
		Type:      domain.TypeMovie,
		Synopsis:  "synopsis of " + title,
		Keywords:  []string{"a", "b"},
		Metadata:  map[string]any{"director": "someone", "year": float64(1999)},
		CreatedAt: created,
	}
}

// exerciseRecordStore runs the behaviour every RecordStore must share.
func exerciseRecordStore(t *testing.T, s port.RecordStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("failed to reset store: %v", err)
	}

	for i, title := range []string{"Heat", "Alien", "Collateral"} {
		rec := sampleRecord(string(rune('a'+i)), title, base.Add(time.Duration(i)*time.Hour))
		if _, err := s.Create(ctx, rec); err != nil {
			t.Fatalf("failed to create %s: %v", title, err)
		}
	}

	if _, err := s.Create(ctx, sampleRecord("a", "dup", base)); !errors.Is(err, port.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate id, got %v", err)
	}

	got, err := s.Get(ctx, "b")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.Title != "Alien" || len(got.Keywords) != 2 || got.Metadata["director"] != "someone" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected preserved createdAt, got %s", got.CreatedAt)
	}

	if _, err := s.Get(ctx, "zzz"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	many, err := s.GetMany(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("failed to get many: %v", err)
	}
	if len(many) != 2 {
		t.Errorf("expected 2 records, got %d", len(many))
	}

	got.Title = "Aliens"
	updated, err := s.Update(ctx, got)
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	if updated.Title != "Aliens" || !updated.CreatedAt.Equal(got.CreatedAt) {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if _, err := s.Update(ctx, sampleRecord("nope", "x", base)); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}

	list, err := s.List(ctx, domain.ListFilter{Sort: domain.SortTitleAsc})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 3 || list[0].Title != "Aliens" || list[2].Title != "Heat" {
		t.Errorf("unexpected title order: %v", titles(list))
	}

	list, _ = s.List(ctx, domain.ListFilter{TitleContains: "coll"})
	if len(list) != 1 || list[0].ID != "c" {
		t.Errorf("expected only Collateral, got %v", titles(list))
	}

	n, _ := s.Count(ctx)
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}

	first, err := s.At(ctx, 0)
	if err != nil || first.ID != "a" {
		t.Errorf("expected oldest record at offset 0, got %v (%v)", first.ID, err)
	}
	if _, err := s.At(ctx, 3); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound past the end, got %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	removed, err := s.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("failed to delete all: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
}

func titles(records []domain.CatalogRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestBoltStore(t *testing.T) {
	exerciseRecordStore(t, newTestBoltStore(t))
}

func TestBoltStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, sampleRecord("x", "Persisted", time.Time{})); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	rec, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("expected record after reopen, got %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected createdAt to be stamped")
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("MEDIALIB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MEDIALIB_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer s.Close()
	exerciseRecordStore(t, s)
}
