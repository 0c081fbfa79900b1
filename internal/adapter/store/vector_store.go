package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.etcd.io/bbolt"

	"medialib/internal/domain"
)

// BoltVectorIndex implements VectorIndex for one named collection, stored as
// a bucket of the shared bolt file. Search is brute force over an in-memory
// copy of the collection, which is fine at personal-library scale.
type BoltVectorIndex struct {
	db         *bbolt.DB
	collection []byte
	retryDelay time.Duration
	load       func() error // s.open; replaced in tests

	mu      sync.RWMutex
	ready   bool
	vectors map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
	Document string            `json:"d,omitempty"`
}

// NewBoltVectorIndex binds a collection name to db. The collection is created
// on first use.
func NewBoltVectorIndex(db *bbolt.DB, collection string) *BoltVectorIndex {
	s := &BoltVectorIndex{
		db:         db,
		collection: []byte("vectors:" + collection),
		retryDelay: 100 * time.Millisecond,
		vectors:    make(map[string]vectorEntry),
	}
	s.load = s.open
	return s
}

// EnsureCollection gets or creates the collection and loads it. A failure
// resets the cached state and is retried exactly once.
func (s *BoltVectorIndex) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(s.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.load(); err != nil {
			s.reset()
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", s.collection, err)
	}
	s.ready = true
	return nil
}

// open creates the bucket if needed and loads every vector into memory.
// Callers hold mu.
func (s *BoltVectorIndex) open() error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.collection)
		return err
	}); err != nil {
		return err
	}

	vectors := make(map[string]vectorEntry)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			vectors[string(k)] = vectorEntry{vector: stored.Vector, metadata: stored.Metadata}
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.vectors = vectors
	return nil
}

func (s *BoltVectorIndex) reset() {
	s.ready = false
	s.vectors = make(map[string]vectorEntry)
}

func (s *BoltVectorIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(storedVector{
		Vector:   entry.Vector,
		Metadata: entry.Metadata,
		Document: entry.Document,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.collection)
		if err != nil {
			return err
		}
		return b.Put([]byte(entry.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", entry.ID, err)
	}

	s.vectors[entry.ID] = vectorEntry{vector: entry.Vector, metadata: entry.Metadata}
	return nil
}

func (s *BoltVectorIndex) Delete(ctx context.Context, id string) error {
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}

	delete(s.vectors, id)
	return nil
}

// Query returns up to topK entries by ascending cosine distance, ties broken by id.
func (s *BoltVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.RankedHit, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return rank(s.vectors, vector, topK), nil
}

// Wipe drops the collection and recreates it empty. A missing collection is
// not an error.
func (s *BoltVectorIndex) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.collection); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.collection)
		return err
	})
	if err != nil {
		s.reset()
		return fmt.Errorf("failed to wipe collection %s: %w", s.collection, err)
	}

	s.vectors = make(map[string]vectorEntry)
	s.ready = true
	return nil
}

func (s *BoltVectorIndex) Count(ctx context.Context) (int, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Metadata returns the sidecar metadata stored for id.
func (s *BoltVectorIndex) Metadata(ctx context.Context, id string) (map[string]string, bool, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.vectors[id]
	return entry.metadata, ok, nil
}

func rank(vectors map[string]vectorEntry, query []float32, topK int) []domain.RankedHit {
	hits := make([]domain.RankedHit, 0, len(vectors))
	for id, entry := range vectors {
		hits = append(hits, domain.RankedHit{ID: id, Distance: domain.CosineDistance(query, entry.vector)})
	}
	return domain.Nearest(hits, topK)
}
