package domain

import (
	"sort"
	"strings"
)

// Apply narrows and orders records in memory.
func (f ListFilter) Apply(records []CatalogRecord) []CatalogRecord {
	needle := strings.ToLower(strings.TrimSpace(f.TitleContains))
	out := make([]CatalogRecord, 0, len(records))
	for _, rec := range records {
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.Title), needle) {
			continue
		}
		out = append(out, rec)
	}

	switch f.Sort {
	case SortTitleAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
	}
	return out
}

// SortByCreation orders records oldest first, ties broken by id.
func SortByCreation(records []CatalogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
