package cache

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"medialib/internal/domain"
)

// Searcher runs an explained semantic search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// Executor runs a search and reports whether the answer is degraded.
type Executor interface {
	Execute(ctx context.Context, query string, maxResults int) (domain.SearchOutcome, error)
}

// CachedSearcher serves repeated queries from a QueryCache and collapses
// concurrent identical queries into one execution.
type CachedSearcher struct {
	executor Executor
	cache    *QueryCache
	group    singleflight.Group
}

func NewCachedSearcher(executor Executor, cache *QueryCache) *CachedSearcher {
	return &CachedSearcher{
		executor: executor,
		cache:    cache,
	}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if results, hit := s.cache.Get(query, maxResults); hit {
		return results, nil
	}

	key := strconv.Itoa(maxResults) + "\x00" + strings.TrimSpace(query)
	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.cache.Generation()
		out, err := s.executor.Execute(ctx, query, maxResults)
		if err != nil {
			return nil, err
		}
		if !out.Degraded {
			s.cache.Put(query, maxResults, gen, out.Results)
		}
		return out.Results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.SearchResult), nil
}

// Invalidate drops cached results. The synchronizer calls it after every
// index mutation.
func (s *CachedSearcher) Invalidate() {
	s.cache.Invalidate()
}
