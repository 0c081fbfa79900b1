package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"medialib/internal/domain"
	"medialib/internal/port"
)

func TestMemoryStore_CRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := domain.CatalogRecord{ID: "a", Title: "Akira", Type: domain.TypeAnime, Synopsis: "Neo-Tokyo."}
	created, err := s.Create(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if created.CreatedAt.IsZero() || created.Keywords == nil || created.Metadata == nil {
		t.Errorf("expected stamped and normalized record, got %+v", created)
	}

	if _, err := s.Create(ctx, rec); !errors.Is(err, port.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	created.Keywords = append(created.Keywords, "mutated")
	got, _ := s.Get(ctx, "a")
	if len(got.Keywords) != 0 {
		t.Error("expected stored record to be isolated from caller mutation")
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_At(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Create(ctx, domain.CatalogRecord{ID: "new", CreatedAt: base.Add(time.Hour)})
	s.Create(ctx, domain.CatalogRecord{ID: "old", CreatedAt: base})

	rec, err := s.At(ctx, 0)
	if err != nil || rec.ID != "old" {
		t.Errorf("expected oldest first, got %s (%v)", rec.ID, err)
	}
	if _, err := s.At(ctx, 2); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVectorIndex(t *testing.T) {
	v := NewVectorIndex()
	ctx := context.Background()

	v.Upsert(ctx, domain.IndexEntry{ID: "a", Vector: []float32{1, 0}})
	v.Upsert(ctx, domain.IndexEntry{ID: "a", Vector: []float32{0, 1}})
	v.Upsert(ctx, domain.IndexEntry{ID: "b", Vector: []float32{1, 0}})

	if n, _ := v.Count(ctx); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}

	hits, _ := v.Query(ctx, []float32{0, 1}, 1)
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("expected a first, got %+v", hits)
	}

	v.Wipe(ctx)
	hits, err := v.Query(ctx, []float32{0, 1}, 5)
	if err != nil || len(hits) != 0 {
		t.Errorf("expected empty result after wipe, got %v (%v)", hits, err)
	}
}
