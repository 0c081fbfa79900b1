package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"medialib/internal/domain"
)

// EncodeBackup renders records in the indented JSON format RestoreJSON reads.
func EncodeBackup(records []domain.CatalogRecord) ([]byte, error) {
	if records == nil {
		records = []domain.CatalogRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// RestoreJSON decodes a backup array and restores it. Elements that do not
// decode as records are reported as failures at their original position;
// anything other than an array is rejected before the library is touched.
func (s *Synchronizer) RestoreJSON(ctx context.Context, data []byte, progress ProgressFunc) (*domain.RestoreResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &domain.ValidationError{Fields: []string{"body"}, Reason: "request body must be an array of items"}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &domain.ValidationError{Fields: []string{"body"}, Reason: "malformed backup: " + err.Error()}
	}

	var (
		items     = make([]domain.CatalogRecord, 0, len(raw))
		positions = make([]int, 0, len(raw))
		undecoded []domain.RestoreFailure
	)
	for i, elem := range raw {
		var rec domain.CatalogRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			undecoded = append(undecoded, domain.RestoreFailure{Index: i, Reason: err.Error()})
			continue
		}
		items = append(items, rec)
		positions = append(positions, i)
	}

	result, err := s.Restore(ctx, items, progress)
	if result == nil {
		return nil, err
	}
	for i := range result.Failed {
		result.Failed[i].Index = positions[result.Failed[i].Index]
	}
	if len(undecoded) > 0 {
		result.Failed = append(result.Failed, undecoded...)
		sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Index < result.Failed[j].Index })
	}
	return result, err
}
