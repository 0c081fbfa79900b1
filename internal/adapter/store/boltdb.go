package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"medialib/internal/domain"
	"medialib/internal/port"
)

var (
	bucketItems = []byte("items")
	bucketMeta  = []byte("index_meta")
)

// BoltStore is a RecordStore backed by a single bbolt file. The same file
// may host vector collections; see DB.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens a bolt file, waiting at most a second for the file lock.
func OpenBolt(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}
	return db, nil
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := OpenBolt(path)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketItems, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Create(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogRecord{}, err
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	rec.Normalize()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("%w: %s", port.ErrConflict, rec.ID)
		}
		return putRecord(b, rec)
	})
	if err != nil {
		return domain.CatalogRecord{}, err
	}
	return rec, nil
}

func (s *BoltStore) Get(ctx context.Context, id string) (domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogRecord{}, err
	}
	var rec domain.CatalogRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketItems).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, id)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

func (s *BoltStore) GetMany(ctx context.Context, ids []string) ([]domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := make([]domain.CatalogRecord, 0, len(ids))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketItems)
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				continue
			}
			var rec domain.CatalogRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to decode record %s: %w", id, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func (s *BoltStore) Update(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogRecord{}, err
	}
	rec.Normalize()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketItems)
		data := b.Get([]byte(rec.ID))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, rec.ID)
		}
		var existing domain.CatalogRecord
		if err := json.Unmarshal(data, &existing); err != nil {
			return err
		}
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = time.Now().UTC()
		return putRecord(b, rec)
	})
	if err != nil {
		return domain.CatalogRecord{}, err
	}
	return rec, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) DeleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketItems).Stats().KeyN
		if err := tx.DeleteBucket(bucketItems); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketItems)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear records: %w", err)
	}
	return n, nil
}

func (s *BoltStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.CatalogRecord, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all), nil
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketItems).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) At(ctx context.Context, offset int) (domain.CatalogRecord, error) {
	all, err := s.all(ctx)
	if err != nil {
		return domain.CatalogRecord{}, err
	}
	domain.SortByCreation(all)
	if offset < 0 || offset >= len(all) {
		return domain.CatalogRecord{}, fmt.Errorf("%w: offset %d", port.ErrNotFound, offset)
	}
	return all[offset], nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) all(ctx context.Context) ([]domain.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []domain.CatalogRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			var rec domain.CatalogRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode record %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

func putRecord(b *bbolt.Bucket, rec domain.CatalogRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put([]byte(rec.ID), data)
}
