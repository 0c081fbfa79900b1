package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockEmbedder derives deterministic vectors from the words of the text.
// Texts sharing words land close together, which is enough for tests.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension}
}

// Embed degrades to a zero vector on a cancelled context, like the real
// providers do on failure.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	if ctx.Err() != nil {
		return vec, nil
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,:;!?\"'")))
		vec[h.Sum32()%uint32(e.dimension)]++
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
