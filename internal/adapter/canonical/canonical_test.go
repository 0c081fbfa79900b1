package canonical

import (
	"strings"
	"testing"

	"medialib/internal/domain"
)

func TestText_Deterministic(t *testing.T) {
	rec := domain.CatalogRecord{
		Title:    "Dune",
		Type:     domain.TypeBook,
		Synopsis: "Desert planet politics.",
		Keywords: []string{"spice", "sand"},
		Metadata: map[string]any{"year": float64(1965), "author": "Herbert", "pages": float64(412.5), "series": []any{"Dune", "Messiah"}},
	}

	first := Text(rec)
	for i := 0; i < 50; i++ {
		if got := Text(rec); got != first {
			t.Fatalf("expected identical output on run %d\nfirst: %q\ngot:   %q", i, first, got)
		}
	}

	expected := "Title: Dune\nType: BOOK\nSynopsis: Desert planet politics.\nKeywords: spice, sand\n" +
		"Metadata: author: Herbert, pages: 412.5, series: Dune, Messiah, year: 1965"
	if first != expected {
		t.Errorf("expected %q, got %q", expected, first)
	}
}

func TestText_OmitsEmptyKeywordsAndMetadata(t *testing.T) {
	rec := domain.CatalogRecord{Title: "Heat", Type: domain.TypeMovie, Synopsis: "A heist."}
	got := Text(rec)
	expected := "Title: Heat\nType: MOVIE\nSynopsis: A heist."
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestText_Families(t *testing.T) {
	tests := []struct {
		name     string
		rec      domain.CatalogRecord
		expected string
	}{
		{
			name: "screen",
			rec: domain.CatalogRecord{
				Title: "Link Click", Type: domain.TypeDonghua, Synopsis: "Photo time travel.",
				Metadata: map[string]any{"studio": "LAN", "director": "Li Haoling", "genres": []any{"Drama", "Mystery"}},
			},
			expected: "Studio: LAN, Director: Li Haoling, Genres: Drama, Mystery",
		},
		{
			name: "serial",
			rec: domain.CatalogRecord{
				Title: "Solo Leveling", Type: domain.TypeManhwa, Synopsis: "Weakest hunter.",
				Metadata: map[string]any{"author": "Chugong", "publisher": "D&C", "genres": []any{"Action"}},
			},
			expected: "Author: Chugong, Publisher: D&C, Genres: Action",
		},
		{
			name: "performer",
			rec: domain.CatalogRecord{
				Title: "Someone", Type: domain.TypePornstar, Synopsis: "Bio.",
				Metadata: map[string]any{"stageName": "S", "nationality": "US", "awards": []any{"A1", "A2"}},
			},
			expected: "Stage Name: S, Nationality: US, Awards: A1, A2",
		},
		{
			name: "generic nested",
			rec: domain.CatalogRecord{
				Title: "Halo", Type: domain.TypeGame, Synopsis: "Shooter.",
				Metadata: map[string]any{"platform": map[string]any{"b": 2.0, "a": true}, "dlc": nil},
			},
			expected: `Metadata: dlc: null, platform: {"a":true,"b":2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.rec)
			lines := strings.Split(got, "\n")
			last := lines[len(lines)-1]
			if last != tt.expected {
				t.Errorf("expected clause %q, got %q", tt.expected, last)
			}
		})
	}
}

func TestText_FamilyWithoutDetails(t *testing.T) {
	rec := domain.CatalogRecord{
		Title: "Tower of God", Type: domain.TypeWebtoon, Synopsis: "Climb.",
		Metadata: map[string]any{"unrelated": "x", "author": ""},
	}
	got := Text(rec)
	if strings.Contains(got, "Author") || strings.Contains(got, "unrelated") {
		t.Errorf("expected no family clause, got %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("expected three lines, got %q", got)
	}
}
