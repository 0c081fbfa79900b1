package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current index schema version.
// Increment this when making breaking changes to the stored vector format.
const CurrentSchemaVersion = 1

// SchemaInfo records what produced the vectors of a collection.
type SchemaInfo struct {
	Version        int    `json:"schema_version"`
	EmbeddingModel string `json:"embedding_model"`
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

func (s *BoltVectorIndex) schemaKey() []byte {
	return append(append([]byte{}, s.collection...), "/schema"...)
}

// SchemaInfo retrieves the stored schema info. A collection that was never
// stamped returns a zero SchemaInfo.
func (s *BoltVectorIndex) SchemaInfo(ctx context.Context) (*SchemaInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		data := b.Get(s.schemaKey())
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &info)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}
	return &info, nil
}

// SetSchemaInfo stamps the collection.
func (s *BoltVectorIndex) SetSchemaInfo(ctx context.Context, info *SchemaInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return b.Put(s.schemaKey(), data)
	})
}

// CheckMigration compares the stored stamp with the running configuration.
// Vectors from a different embedding model are not comparable with new
// query vectors, so a model change requires a rebuild.
func (s *BoltVectorIndex) CheckMigration(ctx context.Context, model string) (*MigrationResult, error) {
	info, err := s.SchemaInfo(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case info.Version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.Version > CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("index created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return result, nil
	}

	if info.EmbeddingModel != "" && info.EmbeddingModel != model {
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("embedding model changed from %s to %s", info.EmbeddingModel, model)
	}

	return result, nil
}

// Migrate stamps the collection with the current version and model.
func (s *BoltVectorIndex) Migrate(ctx context.Context, model string) error {
	return s.SetSchemaInfo(ctx, &SchemaInfo{
		Version:        CurrentSchemaVersion,
		EmbeddingModel: model,
	})
}
