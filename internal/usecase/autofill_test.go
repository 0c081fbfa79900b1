package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"medialib/internal/domain"
	"medialib/internal/port"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name  string
		input string
		title string
		ok    bool
	}{
		{"bare object", `{"title":"Dune","type":"BOOK","synopsis":"Spice."}`, "Dune", true},
		{"markdown fence", "```json\n{\"title\":\"Dune\",\"type\":\"book\",\"synopsis\":\"Spice.\",\"metadata\":{\"author\":{\"name\":\"Herbert\"}}}\n```", "Dune", true},
		{"no object", "I could not find that title.", "", false},
		{"broken json", `{"title":"Dune",`, "", false},
		{"missing synopsis", `{"title":"Dune","type":"BOOK"}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.input)
			if !tt.ok {
				if !errors.Is(err, ErrUnusableDraft) {
					t.Fatalf("expected ErrUnusableDraft, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if draft.Title != tt.title || draft.Type != domain.TypeBook {
				t.Errorf("unexpected draft %+v", draft)
			}
			if draft.Keywords == nil || draft.Metadata == nil {
				t.Error("expected collections defaulted")
			}
		})
	}
}

func TestAutofill_SingleCall(t *testing.T) {
	llm := &fakeLLM{response: `Here you go: {"title":"Neon Run","type":"MOVIE","coverImageUrl":"https://img/neon.jpg","synopsis":"A courier races.","keywords":["neon","chase"],"metadata":{"releaseYear":2021}}`}
	u := NewAutofillUseCase(llm)

	draft, err := u.Autofill(context.Background(), "  Neon Run ", "movie")
	if err != nil {
		t.Fatal(err)
	}
	if llm.calls() != 1 {
		t.Errorf("expected one generation call, got %d", llm.calls())
	}
	if !strings.Contains(llm.prompts[0], `Title: "Neon Run"`) || !strings.Contains(llm.prompts[0], `Type: "MOVIE"`) {
		t.Errorf("expected title and type in prompt, got %q", llm.prompts[0])
	}
	if draft.CoverImageURL != "https://img/neon.jpg" || len(draft.Keywords) != 2 || draft.Metadata["releaseYear"] != float64(2021) {
		t.Errorf("unexpected draft %+v", draft)
	}
}

func TestAutofill_UnknownDraftTypeFallsBackToRequested(t *testing.T) {
	u := NewAutofillUseCase(&fakeLLM{response: `{"title":"Dune","type":"NOVEL","synopsis":"Spice."}`})
	draft, err := u.Autofill(context.Background(), "Dune", domain.TypeBook)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Type != domain.TypeBook {
		t.Errorf("expected requested type, got %s", draft.Type)
	}
}

func TestAutofill_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewAutofillUseCase(&fakeLLM{}).Autofill(ctx, "", ""); !errors.Is(err, port.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := NewAutofillUseCase(&fakeLLM{}).Autofill(ctx, "Dune", "NOVEL"); !errors.Is(err, port.ErrValidation) {
		t.Errorf("expected validation error for unknown type, got %v", err)
	}
	if _, err := NewAutofillUseCase(nil).Autofill(ctx, "Dune", domain.TypeBook); !errors.Is(err, port.ErrGenerationDisabled) {
		t.Errorf("expected ErrGenerationDisabled, got %v", err)
	}

	blocked := &fakeLLM{err: fmt.Errorf("%w: SAFETY", port.ErrContentBlocked)}
	if _, err := NewAutofillUseCase(blocked).Autofill(ctx, "Dune", domain.TypeBook); !errors.Is(err, port.ErrContentBlocked) {
		t.Errorf("expected ErrContentBlocked to propagate, got %v", err)
	}

	garbage := &fakeLLM{response: "sorry"}
	if _, err := NewAutofillUseCase(garbage).Autofill(ctx, "Dune", domain.TypeBook); !errors.Is(err, ErrUnusableDraft) {
		t.Errorf("expected ErrUnusableDraft, got %v", err)
	}
}
