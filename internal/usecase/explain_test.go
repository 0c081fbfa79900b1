package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medialib/internal/domain"
)

func ranked(ids ...string) []domain.ScoredRecord {
	out := make([]domain.ScoredRecord, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredRecord{Record: validRecord(id, "Title "+id), Distance: float64(i) / 10}
	}
	return out
}

func TestParseExplanations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		ok       bool
	}{
		{"plain", `[{"explanation":"one"},{"explanation":"two"}]`, []string{"one", "two"}, true},
		{"fenced", "```json\n[{\"explanation\":\"one\"}]\n```", []string{"one"}, true},
		{"prose around", "Sure! Here you go:\n[\"a\", \"b\"]\nHope that helps [really].", []string{"a", "b"}, true},
		{"skips broken bracket", "see [note\n[{\"explanation\":\"x\"}]", []string{"x"}, true},
		{"mixed elements", `[{"explanation":" padded "}, 42, "s"]`, []string{"padded", "", "s"}, true},
		{"garbage", "I cannot help with that.", nil, false},
		{"unterminated", `[{"explanation":"one"}`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseExplanations(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("entry %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestExplain_SingleBatchedCall(t *testing.T) {
	llm := &fakeLLM{response: `[{"explanation":"first"},{"explanation":"second"},{"explanation":"third"}]`}
	u := NewExplainUseCase(llm)

	got := u.Explain(context.Background(), "space", ranked("a", "b", "c"))
	if llm.calls() != 1 {
		t.Errorf("expected one generation call, got %d", llm.calls())
	}
	if got[0].Explanation != "first" || got[2].Explanation != "third" {
		t.Errorf("unexpected explanations: %+v", got)
	}
	if got[1].RelevanceScore != 0.1 {
		t.Errorf("expected relevance score to carry distance, got %f", got[1].RelevanceScore)
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, `"space"`) || !strings.Contains(prompt, "ITEM 3:") || !strings.Contains(prompt, "Title c") {
		t.Errorf("prompt missing query or items:\n%s", prompt)
	}
}

func TestExplain_GarbageFallsBack(t *testing.T) {
	u := NewExplainUseCase(&fakeLLM{response: "%%% not json %%%"})
	in := ranked("a", "b", "c")

	got := u.Explain(context.Background(), "q", in)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, r := range got {
		if r.Explanation == "" {
			t.Errorf("result %d has empty explanation", i)
		}
		if r.ID != in[i].Record.ID {
			t.Errorf("order changed at %d: expected %s, got %s", i, in[i].Record.ID, r.ID)
		}
	}
	if got[0].Explanation != FallbackExplanation {
		t.Errorf("expected fallback, got %q", got[0].Explanation)
	}
}

func TestExplain_ShortArrayFallsBackPerItem(t *testing.T) {
	u := NewExplainUseCase(&fakeLLM{response: `[{"explanation":"only one"}, {"explanation":""}]`})

	got := u.Explain(context.Background(), "q", ranked("a", "b", "c"))
	if got[0].Explanation != "only one" {
		t.Errorf("expected first explanation kept, got %q", got[0].Explanation)
	}
	if got[1].Explanation != MissingExplanation || got[2].Explanation != MissingExplanation {
		t.Errorf("expected per-item fallback, got %q / %q", got[1].Explanation, got[2].Explanation)
	}
}

func TestExplain_LongArrayFallsBack(t *testing.T) {
	u := NewExplainUseCase(&fakeLLM{response: `["x", "y", "z"]`})

	got := u.Explain(context.Background(), "q", ranked("a"))
	if got[0].Explanation != FallbackExplanation {
		t.Errorf("expected batch fallback for misaligned answer, got %q", got[0].Explanation)
	}
}

func TestExplain_GenerationErrorFallsBack(t *testing.T) {
	u := NewExplainUseCase(&fakeLLM{err: errors.New("quota exceeded")})

	got := u.Explain(context.Background(), "q", ranked("a", "b"))
	for _, r := range got {
		if r.Explanation != FallbackExplanation {
			t.Errorf("expected fallback, got %q", r.Explanation)
		}
	}
}

func TestExplain_EmptyInputSkipsGeneration(t *testing.T) {
	llm := &fakeLLM{}
	got := NewExplainUseCase(llm).Explain(context.Background(), "q", nil)
	if len(got) != 0 || llm.calls() != 0 {
		t.Errorf("expected no results and no calls, got %d results, %d calls", len(got), llm.calls())
	}
}
