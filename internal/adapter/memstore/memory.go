// Package memstore holds in-process implementations of the storage ports,
// used by the memory driver and by tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medialib/internal/domain"
	"medialib/internal/port"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.CatalogRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.CatalogRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrConflict, rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	rec = clone(rec)
	s.records[rec.ID] = rec
	return clone(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	return clone(rec), nil
}

func (s *MemoryStore) GetMany(ctx context.Context, ids []string) ([]domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.ID]
	if !ok {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrNotFound, rec.ID)
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	rec = clone(rec)
	s.records[rec.ID] = rec
	return clone(rec), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = make(map[string]domain.CatalogRecord)
	return n, nil
}

func (s *MemoryStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.CatalogRecord, error) {
	return filter.Apply(s.snapshot()), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) At(ctx context.Context, offset int) (domain.CatalogRecord, error) {
	all := s.snapshot()
	domain.SortByCreation(all)
	if offset < 0 || offset >= len(all) {
		return domain.CatalogRecord{}, fmt.Errorf("%w: offset %d", port.ErrNotFound, offset)
	}
	return all[offset], nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) snapshot() []domain.CatalogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, clone(rec))
	}
	return out
}

// clone copies the collections so callers cannot mutate stored state.
func clone(rec domain.CatalogRecord) domain.CatalogRecord {
	rec.Normalize()
	keywords := make([]string, len(rec.Keywords))
	copy(keywords, rec.Keywords)
	rec.Keywords = keywords

	metadata := make(map[string]any, len(rec.Metadata))
	for k, v := range rec.Metadata {
		metadata[k] = v
	}
	rec.Metadata = metadata
	return rec
}
