package port

import (
	"context"

	"medialib/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns the embedding for text. Implementations may degrade to a
	// zero vector instead of failing; callers must not special-case it.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the observed (or default) vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex owns one named collection in a vector store.
type VectorIndex interface {
	// EnsureCollection gets or creates the collection.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or replaces the entry with the same id.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// Delete removes an entry. Absent ids are not an error.
	Delete(ctx context.Context, id string) error

	// Query returns up to topK entries ordered by ascending distance.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.RankedHit, error)

	// Wipe drops the collection and recreates it empty.
	Wipe(ctx context.Context) error

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)
}
