package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"medialib/internal/domain"
)

const unknownTitle = "Unknown"

// Import appends items to the library without touching existing records.
// Each item goes through Create, so it is validated, gets a fresh id and is
// indexed through the synchronizer. Failures are collected per item.
func (u *CatalogUseCase) Import(ctx context.Context, items []domain.CatalogRecord, progress ProgressFunc) *domain.ImportResult {
	result := &domain.ImportResult{}
	for i, item := range items {
		if _, err := u.Create(ctx, item); err != nil {
			result.Errors = append(result.Errors, domain.ImportFailure{Index: i, Title: displayTitle(item.Title), Error: err.Error()})
			slog.Warn("skipping bulk import item", "index", i, "title", item.Title, "error", err)
		} else {
			result.SuccessCount++
		}
		if progress != nil {
			progress(i+1, len(items))
		}
	}
	result.FailureCount = len(result.Errors)
	slog.Info("bulk import complete", "imported", result.SuccessCount, "failed", result.FailureCount)
	return result
}

// ImportJSON decodes a JSON array of items and imports it. Elements that do
// not decode as records fail individually at their original position; a
// non-array is rejected before anything is stored.
func (u *CatalogUseCase) ImportJSON(ctx context.Context, data []byte, progress ProgressFunc) (*domain.ImportResult, error) {
	trimmed := bytes.TrimSpace(data)
	var raw []json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &raw) != nil {
		return nil, &domain.ValidationError{Fields: []string{"items"}, Reason: "items must be an array"}
	}

	var (
		items     = make([]domain.CatalogRecord, 0, len(raw))
		positions = make([]int, 0, len(raw))
		undecoded []domain.ImportFailure
	)
	for i, elem := range raw {
		var rec domain.CatalogRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			undecoded = append(undecoded, domain.ImportFailure{Index: i, Title: titleOf(elem), Error: err.Error()})
			continue
		}
		items = append(items, rec)
		positions = append(positions, i)
	}

	result := u.Import(ctx, items, progress)
	for i := range result.Errors {
		result.Errors[i].Index = positions[result.Errors[i].Index]
	}
	if len(undecoded) > 0 {
		result.Errors = append(result.Errors, undecoded...)
		result.FailureCount = len(result.Errors)
		sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })
	}
	return result, nil
}

// titleOf recovers a title from an element that did not decode as a record.
func titleOf(elem json.RawMessage) string {
	var partial struct {
		Title any `json:"title"`
	}
	if err := json.Unmarshal(elem, &partial); err != nil {
		return unknownTitle
	}
	if s, ok := partial.Title.(string); ok {
		return displayTitle(s)
	}
	return unknownTitle
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return unknownTitle
	}
	return title
}
