package memstore

import (
	"context"
	"sync"

	"medialib/internal/domain"
)

// VectorIndex is an in-memory VectorIndex with brute-force cosine search.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{entries: make(map[string]domain.IndexEntry)}
}

func (v *VectorIndex) EnsureCollection(ctx context.Context) error {
	return ctx.Err()
}

func (v *VectorIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[entry.ID] = entry
	return nil
}

func (v *VectorIndex) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, id)
	return nil
}

func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.RankedHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	hits := make([]domain.RankedHit, 0, len(v.entries))
	for id, e := range v.entries {
		hits = append(hits, domain.RankedHit{ID: id, Distance: domain.CosineDistance(vector, e.Vector)})
	}
	return domain.Nearest(hits, topK), nil
}

func (v *VectorIndex) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = make(map[string]domain.IndexEntry)
	return nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Entry returns the stored entry for id.
func (v *VectorIndex) Entry(id string) (domain.IndexEntry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[id]
	return e, ok
}
