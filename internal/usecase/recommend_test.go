package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medialib/internal/adapter/memstore"
	"medialib/internal/domain"
	"medialib/internal/port"
)

func seedRecords(t *testing.T, titles ...string) *memstore.MemoryStore {
	t.Helper()
	records := memstore.NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range titles {
		rec := validRecord(title, title)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := records.Create(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	return records
}

func TestRecommend_PromptPicksClosest(t *testing.T) {
	records := seedRecords(t, "calm", "loud")
	index := staticIndex{hits: []domain.RankedHit{{ID: "loud", Distance: 0.2}, {ID: "calm", Distance: 0.4}}}
	llm := &fakeLLM{response: "  Turn it up.  "}
	u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, index, records, llm)

	got, err := u.Recommend(context.Background(), "something noisy")
	if err != nil {
		t.Fatal(err)
	}
	if got.Item.ID != "loud" {
		t.Errorf("expected closest item, got %s", got.Item.ID)
	}
	if got.Reason != "Turn it up." {
		t.Errorf("expected trimmed reason, got %q", got.Reason)
	}
	if !strings.Contains(llm.prompts[0], `"something noisy"`) {
		t.Errorf("expected prompt to carry the mood, got:\n%s", llm.prompts[0])
	}
}

func TestRecommend_PromptWithEmptyIndex(t *testing.T) {
	u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, staticIndex{}, seedRecords(t, "a"), &fakeLLM{})

	if _, err := u.Recommend(context.Background(), "anything"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRecommend_PromptIndexDown(t *testing.T) {
	u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, brokenIndex{}, seedRecords(t, "a"), &fakeLLM{})

	if _, err := u.Recommend(context.Background(), "anything"); !errors.Is(err, port.ErrSearchUnavailable) {
		t.Errorf("expected search unavailable, got %v", err)
	}
}

func TestRecommend_RandomUsesOffset(t *testing.T) {
	records := seedRecords(t, "a", "b", "c")
	llm := &fakeLLM{response: "Because."}
	u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, brokenIndex{}, records, llm)

	var bound int
	u.intn = func(n int) int { bound = n; return 2 }

	got, err := u.Recommend(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	if bound != 3 {
		t.Errorf("expected draw over 3 records, got %d", bound)
	}
	if got.Item.ID != "c" {
		t.Errorf("expected third oldest record, got %s", got.Item.ID)
	}
	if !strings.Contains(llm.prompts[0], "picked at random") {
		t.Errorf("expected random pitch prompt, got:\n%s", llm.prompts[0])
	}
}

func TestRecommend_EmptyLibrary(t *testing.T) {
	u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, brokenIndex{}, memstore.NewMemoryStore(), &fakeLLM{})

	if _, err := u.Recommend(context.Background(), ""); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRecommend_ReasonFallback(t *testing.T) {
	records := seedRecords(t, "a")
	tests := []struct {
		name string
		llm  port.LLM
	}{
		{"generation error", &fakeLLM{err: errors.New("boom")}},
		{"blank answer", &fakeLLM{response: "\n\n"}},
		{"no generator", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewRecommendUseCase(fixedEmbedder{vec: []float32{1}}, brokenIndex{}, records, tt.llm)
			got, err := u.Recommend(context.Background(), "")
			if err != nil {
				t.Fatal(err)
			}
			if got.Reason != DefaultReason {
				t.Errorf("expected default reason, got %q", got.Reason)
			}
		})
	}
}
