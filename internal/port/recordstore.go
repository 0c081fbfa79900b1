package port

import (
	"context"

	"medialib/internal/domain"
)

// RecordStore is the authoritative store of catalog records.
type RecordStore interface {
	// Create inserts a record with the id it carries. ErrConflict if taken.
	Create(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error)

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id string) (domain.CatalogRecord, error)

	// GetMany returns the records that exist among ids, in no particular order.
	GetMany(ctx context.Context, ids []string) ([]domain.CatalogRecord, error)

	// Update replaces an existing record or returns ErrNotFound.
	Update(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error)

	// Delete removes a record or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every record and returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)

	List(ctx context.Context, filter domain.ListFilter) ([]domain.CatalogRecord, error)

	Count(ctx context.Context) (int, error)

	// At returns the record at offset in creation order.
	At(ctx context.Context, offset int) (domain.CatalogRecord, error)

	Close() error
}
