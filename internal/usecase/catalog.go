package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medialib/internal/domain"
	"medialib/internal/port"
)

// CatalogUseCase is the record CRUD surface. Every committed mutation is
// handed to the Synchronizer; index problems never fail the caller.
type CatalogUseCase struct {
	records port.RecordStore
	sync    *Synchronizer
}

func NewCatalogUseCase(records port.RecordStore, sync *Synchronizer) *CatalogUseCase {
	return &CatalogUseCase{records: records, sync: sync}
}

// Create validates, stores and schedules indexing of a new record.
func (u *CatalogUseCase) Create(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.CatalogRecord{}, err
	}

	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Normalize()

	created, err := u.records.Create(ctx, rec)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("failed to create record: %w", err)
	}

	u.sync.RecordSaved(created)
	return created, nil
}

func (u *CatalogUseCase) Get(ctx context.Context, id string) (domain.CatalogRecord, error) {
	return u.records.Get(ctx, id)
}

func (u *CatalogUseCase) List(ctx context.Context, filter domain.ListFilter) ([]domain.CatalogRecord, error) {
	return u.records.List(ctx, filter)
}

// Update applies patch. The index is refreshed only when an embedded field changed.
func (u *CatalogUseCase) Update(ctx context.Context, id string, patch domain.RecordPatch) (domain.CatalogRecord, error) {
	rec, err := u.records.Get(ctx, id)
	if err != nil {
		return domain.CatalogRecord{}, err
	}

	contentChanged := patch.Apply(&rec)
	if err := rec.Validate(); err != nil {
		return domain.CatalogRecord{}, err
	}

	updated, err := u.records.Update(ctx, rec)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("failed to update record: %w", err)
	}

	if contentChanged {
		u.sync.RecordSaved(updated)
	}
	return updated, nil
}

func (u *CatalogUseCase) Delete(ctx context.Context, id string) error {
	if err := u.records.Delete(ctx, id); err != nil {
		return err
	}
	u.sync.RecordDeleted(id)
	return nil
}

// Backup returns every record, oldest first, in the format Restore accepts.
func (u *CatalogUseCase) Backup(ctx context.Context) ([]domain.CatalogRecord, error) {
	records, err := u.records.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	domain.SortByCreation(records)
	return records, nil
}
