package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"medialib/internal/domain"
	"medialib/internal/port"
)

const schemaItems = `
CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	type        TEXT NOT NULL,
	synopsis    TEXT NOT NULL,
	keywords    TEXT[] NOT NULL DEFAULT '{}',
	metadata    JSONB NOT NULL DEFAULT '{}',
	notes       TEXT,
	cover_image TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS items_created_at_idx ON items (created_at);`

const itemColumns = `id, title, type, synopsis, keywords, metadata, notes, cover_image, created_at, updated_at`

// uniqueViolation is the SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

// PostgresStore is a RecordStore backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, verifies it and creates the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaItems); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	rec.Normalize()

	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("encode metadata: %w", err)
	}

	query := `INSERT INTO items (` + itemColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING ` + itemColumns

	out, err := scanRecord(s.db.QueryRowContext(ctx, query,
		rec.ID, rec.Title, string(rec.Type), rec.Synopsis, pq.Array(rec.Keywords), metadata,
		rec.Notes, rec.CoverImage, rec.CreatedAt, rec.UpdatedAt,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrConflict, rec.ID)
		}
		return domain.CatalogRecord{}, fmt.Errorf("create item: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.CatalogRecord, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("get item: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) GetMany(ctx context.Context, ids []string) ([]domain.CatalogRecord, error) {
	if len(ids) == 0 {
		return []domain.CatalogRecord{}, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1)`
	return s.queryRecords(ctx, "get items", query, pq.Array(ids))
}

func (s *PostgresStore) Update(ctx context.Context, rec domain.CatalogRecord) (domain.CatalogRecord, error) {
	rec.Normalize()
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("encode metadata: %w", err)
	}

	query := `UPDATE items SET
	              title = $2, type = $3, synopsis = $4, keywords = $5, metadata = $6,
	              notes = $7, cover_image = $8, updated_at = NOW()
	          WHERE id = $1
	          RETURNING ` + itemColumns

	out, err := scanRecord(s.db.QueryRowContext(ctx, query,
		rec.ID, rec.Title, string(rec.Type), rec.Synopsis, pq.Array(rec.Keywords), metadata,
		rec.Notes, rec.CoverImage,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %s", port.ErrNotFound, rec.ID)
	}
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("update item: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.CatalogRecord, error) {
	query := `SELECT ` + itemColumns + ` FROM items
	          WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
	            AND ($2 = '' OR type = $2)`
	if filter.Sort == domain.SortTitleAsc {
		query += ` ORDER BY LOWER(title) ASC`
	} else {
		query += ` ORDER BY created_at DESC, id ASC`
	}
	return s.queryRecords(ctx, "list items", query, filter.TitleContains, string(filter.Type))
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) At(ctx context.Context, offset int) (domain.CatalogRecord, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at ASC, id ASC OFFSET $1 LIMIT 1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, offset))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogRecord{}, fmt.Errorf("%w: offset %d", port.ErrNotFound, offset)
	}
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("get item at offset: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, op, query string, args ...any) ([]domain.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := []domain.CatalogRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.CatalogRecord, error) {
	var (
		rec      domain.CatalogRecord
		typ      string
		keywords []string
		metadata []byte
		notes    sql.NullString
		cover    sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Title, &typ, &rec.Synopsis, pq.Array(&keywords), &metadata,
		&notes, &cover, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.CatalogRecord{}, err
	}

	rec.Type = domain.MediaType(typ)
	rec.Keywords = keywords
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return domain.CatalogRecord{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	if cover.Valid {
		rec.CoverImage = &cover.String
	}
	rec.Normalize()
	return rec, nil
}
