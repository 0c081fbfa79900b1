package usecase

import (
	"context"
	"log/slog"
	"time"

	"medialib/internal/domain"
)

// SearchUseCase is retrieval followed by explanation.
type SearchUseCase struct {
	retrieve *RetrieveUseCase
	explain  *ExplainUseCase
}

func NewSearchUseCase(retrieve *RetrieveUseCase, explain *ExplainUseCase) *SearchUseCase {
	return &SearchUseCase{retrieve: retrieve, explain: explain}
}

func (u *SearchUseCase) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	out, err := u.Execute(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Execute runs the search and reports whether the answer is degraded.
func (u *SearchUseCase) Execute(ctx context.Context, query string, maxResults int) (domain.SearchOutcome, error) {
	start := time.Now()

	ranked, zeroQuery, err := u.retrieve.retrieve(ctx, query, maxResults)
	if err != nil {
		return domain.SearchOutcome{}, err
	}

	results, fallback := u.explain.explain(ctx, query, ranked)
	out := domain.SearchOutcome{Results: results, Degraded: zeroQuery || fallback}
	slog.Info("search complete", "query", query, "results", len(results), "degraded", out.Degraded, "duration", time.Since(start))
	return out, nil
}
