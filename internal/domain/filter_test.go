package domain

import (
	"testing"
	"time"
)

func TestListFilter_Apply(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []CatalogRecord{
		{ID: "1", Title: "Blade Runner", Type: TypeMovie, CreatedAt: base},
		{ID: "2", Title: "akira", Type: TypeAnime, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Runaway", Type: TypeMovie, CreatedAt: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		name     string
		filter   ListFilter
		expected []string
	}{
		{"default newest first", ListFilter{}, []string{"3", "2", "1"}},
		{"title asc ignores case", ListFilter{Sort: SortTitleAsc}, []string{"2", "1", "3"}},
		{"type", ListFilter{Type: TypeMovie}, []string{"3", "1"}},
		{"title substring", ListFilter{TitleContains: "RUN"}, []string{"3", "1"}},
		{"no match", ListFilter{TitleContains: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(records)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d records, got %d", len(tt.expected), len(got))
			}
			for i, id := range tt.expected {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestSortByCreation(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []CatalogRecord{
		{ID: "b", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(-time.Hour)},
		{ID: "a", CreatedAt: base},
	}
	SortByCreation(records)
	if records[0].ID != "c" || records[1].ID != "a" || records[2].ID != "b" {
		t.Errorf("unexpected order: %s %s %s", records[0].ID, records[1].ID, records[2].ID)
	}
}
