package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medialib/internal/port"
)

func TestEnhance(t *testing.T) {
	llm := &fakeLLM{response: "Enhanced Query: \"space opera, found family, rebellion\"\n"}
	u := NewEnhanceUseCase(llm)

	got, err := u.Enhance(context.Background(), "  I want a space show about found family  ")
	if err != nil {
		t.Fatal(err)
	}
	if got.Original != "I want a space show about found family" {
		t.Errorf("expected trimmed original, got %q", got.Original)
	}
	if got.Enhanced != "space opera, found family, rebellion" {
		t.Errorf("expected cleaned rewrite, got %q", got.Enhanced)
	}
	if !strings.Contains(llm.prompts[0], "found family") {
		t.Errorf("expected query in prompt, got:\n%s", llm.prompts[0])
	}
}

func TestEnhance_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewEnhanceUseCase(&fakeLLM{}).Enhance(ctx, " "); !errors.Is(err, port.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := NewEnhanceUseCase(nil).Enhance(ctx, "q"); !errors.Is(err, port.ErrGenerationDisabled) {
		t.Errorf("expected generation disabled, got %v", err)
	}

	boom := errors.New("rate limited")
	if _, err := NewEnhanceUseCase(&fakeLLM{err: boom}).Enhance(ctx, "q"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped generator error, got %v", err)
	}
	if _, err := NewEnhanceUseCase(&fakeLLM{response: "``"}).Enhance(ctx, "q"); err == nil {
		t.Error("expected error for empty rewrite")
	}
}

func TestCleanRewrite(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"plain words", "plain words"},
		{"'quoted'", "quoted"},
		{"Enhanced Query:   `ticks`  ", "ticks"},
	}
	for _, tt := range tests {
		if got := cleanRewrite(tt.in); got != tt.expected {
			t.Errorf("cleanRewrite(%q): expected %q, got %q", tt.in, tt.expected, got)
		}
	}
}
