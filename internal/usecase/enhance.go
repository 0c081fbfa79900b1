package usecase

import (
	"context"
	"fmt"
	"strings"

	"medialib/internal/domain"
	"medialib/internal/port"
)

// EnhancedQuery pairs a user query with its keyword rewrite.
type EnhancedQuery struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
}

// EnhanceUseCase rewrites natural-language queries into search keywords.
// Unlike explanations, failures are returned: the caller asked for the rewrite.
type EnhanceUseCase struct {
	llm port.LLM
}

func NewEnhanceUseCase(llm port.LLM) *EnhanceUseCase {
	return &EnhanceUseCase{llm: llm}
}

func (u *EnhanceUseCase) Enhance(ctx context.Context, query string) (*EnhancedQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Fields: []string{"query"}, Reason: "query is required"}
	}
	if u.llm == nil {
		return nil, port.ErrGenerationDisabled
	}

	prompt, err := renderPrompt("enhance.txt", struct{ Query string }{query})
	if err != nil {
		return nil, err
	}

	response, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to enhance query: %w", err)
	}

	enhanced := cleanRewrite(response)
	if enhanced == "" {
		return nil, fmt.Errorf("failed to enhance query: empty response")
	}
	return &EnhancedQuery{Original: query, Enhanced: enhanced}, nil
}

// cleanRewrite strips the wrapping models add despite being told not to.
func cleanRewrite(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Enhanced Query:")
	s = strings.Trim(strings.TrimSpace(s), "\"'`")
	return strings.TrimSpace(s)
}
