package usecase

import (
	"context"
	"errors"
	"testing"

	"medialib/internal/domain"
	"medialib/internal/port"
)

func TestImport_AppendsWithoutWiping(t *testing.T) {
	s, records, index, _ := newSync(t, 0)
	u := NewCatalogUseCase(records, s)
	ctx := context.Background()

	existing, err := u.Create(ctx, validRecord("", "Already Here"))
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	result := u.Import(ctx, []domain.CatalogRecord{
		validRecord("", "First"),
		{Title: "", Type: domain.TypeBook, Synopsis: "no title"},
		validRecord("", "Second"),
	}, func(done, total int) { calls++ })

	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Fatalf("expected 2 ok and 1 failed, got %+v", result)
	}
	if f := result.Errors[0]; f.Index != 1 || f.Title != "Unknown" || f.Error == "" {
		t.Errorf("unexpected failure: %+v", f)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}

	if _, err := records.Get(ctx, existing.ID); err != nil {
		t.Errorf("expected existing record to survive import: %v", err)
	}
	if n, _ := records.Count(ctx); n != 3 {
		t.Errorf("expected 3 records, got %d", n)
	}
	if n, _ := index.Count(ctx); n != 3 {
		t.Errorf("expected 3 index entries, got %d", n)
	}
}

func TestImportJSON(t *testing.T) {
	s, records, _, _ := newSync(t, 0)
	u := NewCatalogUseCase(records, s)
	ctx := context.Background()

	result, err := u.ImportJSON(ctx, []byte(`[
		{"title":"Good","type":"MOVIE","synopsis":"s"},
		{"title":"Bad keywords","type":"MOVIE","synopsis":"s","keywords":"not a list"},
		{"title":"Bad type","type":"OPERA","synopsis":"s"},
		{"title":"Also good","type":"GAME","synopsis":"s"}
	]`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 2 || result.FailureCount != 2 {
		t.Fatalf("expected 2 ok and 2 failed, got %+v", result)
	}
	if result.Errors[0].Index != 1 || result.Errors[0].Title != "Bad keywords" {
		t.Errorf("expected decode failure at index 1, got %+v", result.Errors[0])
	}
	if result.Errors[1].Index != 2 || result.Errors[1].Title != "Bad type" {
		t.Errorf("expected validation failure at index 2, got %+v", result.Errors[1])
	}

	for _, body := range []string{`{"title":"x"}`, `"nope"`, ``, `[1,`} {
		if _, err := u.ImportJSON(ctx, []byte(body), nil); !errors.Is(err, port.ErrValidation) {
			t.Errorf("expected validation error for %q, got %v", body, err)
		}
	}
	if n, _ := records.Count(ctx); n != 2 {
		t.Errorf("expected rejected bodies to store nothing, got %d records", n)
	}
}
