package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medialib/internal/domain"
)

// fixedEmbedder returns the same vector for every text.
type fixedEmbedder struct {
	vec []float32
}

func (e fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out := make([]float32, len(e.vec))
	copy(out, e.vec)
	return out, nil
}
func (e fixedEmbedder) Dimension() int    { return len(e.vec) }
func (e fixedEmbedder) ModelName() string { return "fixed" }

// mapEmbedder returns vectors by exact text, zeros otherwise.
type mapEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (e mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, e.dim), nil
}
func (e mapEmbedder) Dimension() int    { return e.dim }
func (e mapEmbedder) ModelName() string { return "map" }

// gatedEmbedder blocks on texts containing hold until release is closed.
type gatedEmbedder struct {
	hold    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedEmbedder(hold string) *gatedEmbedder {
	return &gatedEmbedder{hold: hold, entered: make(chan struct{}), release: make(chan struct{})}
}

func (e *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, e.hold) {
		e.once.Do(func() { close(e.entered) })
		<-e.release
	}
	return []float32{1, 0}, nil
}
func (e *gatedEmbedder) Dimension() int    { return 2 }
func (e *gatedEmbedder) ModelName() string { return "gated" }

var errIndexDown = errors.New("index unreachable")

// brokenIndex fails every operation, optionally except Wipe.
type brokenIndex struct {
	wipeOK bool
}

func (b brokenIndex) EnsureCollection(ctx context.Context) error             { return errIndexDown }
func (b brokenIndex) Upsert(ctx context.Context, e domain.IndexEntry) error  { return errIndexDown }
func (b brokenIndex) Delete(ctx context.Context, id string) error            { return errIndexDown }
func (b brokenIndex) Count(ctx context.Context) (int, error)                 { return 0, errIndexDown }
func (b brokenIndex) Query(ctx context.Context, v []float32, k int) ([]domain.RankedHit, error) {
	return nil, errIndexDown
}
func (b brokenIndex) Wipe(ctx context.Context) error {
	if b.wipeOK {
		return nil
	}
	return errIndexDown
}

// staticIndex returns canned hits.
type staticIndex struct {
	brokenIndex
	hits []domain.RankedHit
}

func (s staticIndex) Query(ctx context.Context, v []float32, k int) ([]domain.RankedHit, error) {
	if k < len(s.hits) {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

// fakeLLM returns a canned response and records prompts.
type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}
func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func validRecord(id, title string) domain.CatalogRecord {
	return domain.CatalogRecord{
		ID:       id,
		Title:    title,
		Type:     domain.TypeMovie,
		Synopsis: "synopsis of " + title,
		Keywords: []string{"k"},
	}
}
