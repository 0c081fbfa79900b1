package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"medialib/internal/domain"
	"medialib/internal/port"
)

// DefaultReason is used when no pitch could be generated.
const DefaultReason = "This is a random pick from your library!"

// Recommendation is one picked record with a pitch.
type Recommendation struct {
	Item   domain.CatalogRecord `json:"item"`
	Reason string               `json:"reason"`
}

// RecommendUseCase picks one record, either closest to a prompt or uniformly
// at random, and asks the generator why it is worth watching.
type RecommendUseCase struct {
	embedder port.Embedder
	index    port.VectorIndex
	records  port.RecordStore
	llm      port.LLM
	intn     func(n int) int
}

func NewRecommendUseCase(embedder port.Embedder, index port.VectorIndex, records port.RecordStore, llm port.LLM) *RecommendUseCase {
	return &RecommendUseCase{
		embedder: embedder,
		index:    index,
		records:  records,
		llm:      llm,
		intn:     rand.IntN,
	}
}

func (u *RecommendUseCase) Recommend(ctx context.Context, prompt string) (*Recommendation, error) {
	prompt = strings.TrimSpace(prompt)

	var (
		rec domain.CatalogRecord
		err error
	)
	if prompt != "" {
		rec, err = u.closest(ctx, prompt)
	} else {
		rec, err = u.random(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Recommendation{Item: rec, Reason: u.reason(ctx, prompt, rec)}, nil
}

func (u *RecommendUseCase) closest(ctx context.Context, prompt string) (domain.CatalogRecord, error) {
	vec, err := u.embedder.Embed(ctx, prompt)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("failed to embed prompt: %w", err)
	}
	hits, err := u.index.Query(ctx, vec, 1)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("%w: %v", port.ErrSearchUnavailable, err)
	}
	if len(hits) == 0 {
		return domain.CatalogRecord{}, fmt.Errorf("%w: no items found in your library", port.ErrNotFound)
	}
	return u.records.Get(ctx, hits[0].ID)
}

func (u *RecommendUseCase) random(ctx context.Context) (domain.CatalogRecord, error) {
	n, err := u.records.Count(ctx)
	if err != nil {
		return domain.CatalogRecord{}, fmt.Errorf("failed to count records: %w", err)
	}
	if n == 0 {
		return domain.CatalogRecord{}, fmt.Errorf("%w: your library is empty", port.ErrNotFound)
	}
	return u.records.At(ctx, u.intn(n))
}

func (u *RecommendUseCase) reason(ctx context.Context, prompt string, rec domain.CatalogRecord) string {
	if u.llm == nil {
		return DefaultReason
	}
	text, err := renderPrompt("recommend.txt", struct {
		Prompt string
		Record domain.CatalogRecord
	}{prompt, rec})
	if err != nil {
		slog.Error("failed to build recommendation prompt", "error", err)
		return DefaultReason
	}

	reason, err := u.llm.Generate(ctx, text)
	if err != nil {
		slog.Warn("recommendation reason failed, using default", "id", rec.ID, "error", err)
		return DefaultReason
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return DefaultReason
	}
	return reason
}
