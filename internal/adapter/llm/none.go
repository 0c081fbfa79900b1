package llm

import (
	"context"

	"medialib/internal/port"
)

// Disabled is used when no generation provider is configured.
// Callers fall back to their static text.
type Disabled struct{}

func (Disabled) Generate(ctx context.Context, prompt string) (string, error) {
	return "", port.ErrGenerationDisabled
}

func (Disabled) ModelName() string {
	return "none"
}
