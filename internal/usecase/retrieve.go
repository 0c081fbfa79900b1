package usecase

import (
	"context"
	"fmt"
	"strings"

	"medialib/internal/domain"
	"medialib/internal/port"
)

// RetrieveOptions tunes semantic search.
type RetrieveOptions struct {
	Overfetch          int     // candidates requested from the index
	RelevanceThreshold float64 // max cosine distance kept
	MaxResults         int     // default cap
}

// RetrieveUseCase runs thresholded nearest-neighbour search and hydrates
// the surviving hits from the record store.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    port.VectorIndex
	records  port.RecordStore
	opts     RetrieveOptions
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, index port.VectorIndex, records port.RecordStore, opts RetrieveOptions) *RetrieveUseCase {
	if opts.Overfetch <= 0 {
		opts.Overfetch = 10
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	return &RetrieveUseCase{
		embedder: embedder,
		index:    index,
		records:  records,
		opts:     opts,
	}
}

// Retrieve returns at most maxResults records ordered by ascending distance.
// An empty result with a nil error means nothing was relevant enough.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, maxResults int) ([]domain.ScoredRecord, error) {
	ranked, _, err := u.retrieve(ctx, query, maxResults)
	return ranked, err
}

// retrieve also reports whether the query embedding degraded to zeros.
func (u *RetrieveUseCase) retrieve(ctx context.Context, query string, maxResults int) ([]domain.ScoredRecord, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, &domain.ValidationError{Fields: []string{"query"}, Reason: "query must not be empty"}
	}
	if maxResults <= 0 {
		maxResults = u.opts.MaxResults
	}

	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to embed query: %w", err)
	}
	degraded := domain.IsZeroVector(vec)

	hits, err := u.index.Query(ctx, vec, u.opts.Overfetch)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", port.ErrSearchUnavailable, err)
	}

	hits = SelectHits(hits, u.opts.RelevanceThreshold, maxResults)
	if len(hits) == 0 {
		return []domain.ScoredRecord{}, degraded, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	records, err := u.records.GetMany(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records: %w", err)
	}

	return Hydrate(hits, records), degraded, nil
}

// SelectHits keeps hits within threshold, then caps the result. Filtering
// first means the cap only ever trims relevant candidates.
func SelectHits(hits []domain.RankedHit, threshold float64, maxResults int) []domain.RankedHit {
	kept := make([]domain.RankedHit, 0, len(hits))
	for _, h := range hits {
		if h.Distance <= threshold {
			kept = append(kept, h)
		}
	}
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}

// Hydrate pairs hits with their records in rank order. Hits without a
// record are dropped.
func Hydrate(hits []domain.RankedHit, records []domain.CatalogRecord) []domain.ScoredRecord {
	byID := make(map[string]domain.CatalogRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	out := make([]domain.ScoredRecord, 0, len(hits))
	for _, h := range hits {
		rec, ok := byID[h.ID]
		if !ok {
			continue
		}
		out = append(out, domain.ScoredRecord{Record: rec, Distance: h.Distance})
	}
	return out
}
