package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"medialib/internal/domain"
	"medialib/internal/port"
)

const (
	// FallbackExplanation replaces every explanation when generation fails
	// or the answer cannot be aligned with the results.
	FallbackExplanation = "This item matches your search query based on its content and themes."
	// MissingExplanation replaces a single absent or empty entry.
	MissingExplanation = "This item matches your search."
)

// ExplainUseCase annotates ranked records with one generated explanation
// each, using a single generation call per search.
type ExplainUseCase struct {
	llm port.LLM
}

func NewExplainUseCase(llm port.LLM) *ExplainUseCase {
	return &ExplainUseCase{llm: llm}
}

// Explain never fails: ranking is returned unchanged with fallback text when
// the generator misbehaves.
func (u *ExplainUseCase) Explain(ctx context.Context, query string, ranked []domain.ScoredRecord) []domain.SearchResult {
	results, _ := u.explain(ctx, query, ranked)
	return results
}

// explain also reports whether any entry fell back because the generator
// failed or misbehaved. A generator that is switched off is not a failure.
func (u *ExplainUseCase) explain(ctx context.Context, query string, ranked []domain.ScoredRecord) ([]domain.SearchResult, bool) {
	results := make([]domain.SearchResult, len(ranked))
	for i, sr := range ranked {
		results[i] = domain.SearchResult{
			CatalogRecord:  sr.Record,
			Explanation:    FallbackExplanation,
			RelevanceScore: sr.Distance,
		}
	}
	if len(ranked) == 0 || u.llm == nil {
		return results, false
	}

	records := make([]domain.CatalogRecord, len(ranked))
	for i, sr := range ranked {
		records[i] = sr.Record
	}
	prompt, err := renderPrompt("explain.txt", struct {
		Query   string
		Records []domain.CatalogRecord
	}{query, records})
	if err != nil {
		slog.Error("failed to build explanation prompt", "error", err)
		return results, true
	}

	response, err := u.llm.Generate(ctx, prompt)
	if errors.Is(err, port.ErrGenerationDisabled) {
		return results, false
	}
	if err != nil {
		slog.Warn("explanation generation failed, using fallback", "model", u.llm.ModelName(), "error", err)
		return results, true
	}

	explanations, ok := ParseExplanations(response)
	if !ok {
		slog.Warn("could not parse explanations, using fallback", "response", truncate(response, 200))
		return results, true
	}
	if len(explanations) > len(results) {
		slog.Warn("explanation count does not match results, using fallback", "explanations", len(explanations), "results", len(results))
		return results, true
	}

	degraded := false
	for i := range results {
		if i < len(explanations) && explanations[i] != "" {
			results[i].Explanation = explanations[i]
		} else {
			results[i].Explanation = MissingExplanation
			degraded = true
		}
	}
	return results, degraded
}

// ParseExplanations extracts the first JSON array found in text. Elements may
// be objects with an "explanation" field or bare strings; anything else
// yields an empty entry.
func ParseExplanations(text string) ([]string, bool) {
	for i := strings.IndexByte(text, '['); i >= 0; {
		var raw []json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err == nil {
			out := make([]string, len(raw))
			for j, elem := range raw {
				out[j] = explanationOf(elem)
			}
			return out, true
		}

		next := strings.IndexByte(text[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, false
}

func explanationOf(elem json.RawMessage) string {
	var obj struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(elem, &obj); err == nil {
		return strings.TrimSpace(obj.Explanation)
	}
	var s string
	if err := json.Unmarshal(elem, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
