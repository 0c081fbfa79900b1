package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"medialib/internal/domain"
	"medialib/internal/port"
)

// ErrUnusableDraft is returned when the generator answered but the answer
// is not a usable record draft.
var ErrUnusableDraft = errors.New("invalid AI response structure")

// AutofillDraft is a generated record the user reviews before saving.
type AutofillDraft struct {
	Title         string           `json:"title"`
	Type          domain.MediaType `json:"type"`
	CoverImageURL string           `json:"coverImageUrl,omitempty"`
	Synopsis      string           `json:"synopsis"`
	Keywords      []string         `json:"keywords"`
	Metadata      map[string]any   `json:"metadata"`
}

// AutofillUseCase drafts catalog fields from a title and type with one
// generation call. Nothing is stored.
type AutofillUseCase struct {
	llm port.LLM
}

func NewAutofillUseCase(llm port.LLM) *AutofillUseCase {
	return &AutofillUseCase{llm: llm}
}

func (u *AutofillUseCase) Autofill(ctx context.Context, title string, mediaType domain.MediaType) (*AutofillDraft, error) {
	title = strings.TrimSpace(title)
	mediaType = domain.MediaType(strings.ToUpper(strings.TrimSpace(string(mediaType))))

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if mediaType == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing, Reason: "missing required fields"}
	}
	if !mediaType.Valid() {
		return nil, &domain.ValidationError{Fields: []string{"type"}, Reason: fmt.Sprintf("unknown type %q", mediaType)}
	}
	if u.llm == nil {
		return nil, port.ErrGenerationDisabled
	}

	prompt, err := renderPrompt("autofill.txt", struct {
		Title string
		Type  domain.MediaType
	}{title, mediaType})
	if err != nil {
		return nil, err
	}

	response, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to autofill %q: %w", title, err)
	}

	draft, err := ParseDraft(response)
	if err != nil {
		return nil, err
	}
	if !draft.Type.Valid() {
		draft.Type = mediaType
	}
	return draft, nil
}

// ParseDraft decodes the outermost JSON object in text. Title, type and
// synopsis are required; collections default to empty.
func ParseDraft(text string) (*AutofillDraft, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrUnusableDraft)
	}

	var draft AutofillDraft
	if err := json.Unmarshal([]byte(text[start:end+1]), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableDraft, err)
	}

	draft.Type = domain.MediaType(strings.ToUpper(string(draft.Type)))
	if strings.TrimSpace(draft.Title) == "" || draft.Type == "" || strings.TrimSpace(draft.Synopsis) == "" {
		return nil, fmt.Errorf("%w: title, type and synopsis are required", ErrUnusableDraft)
	}
	if draft.Keywords == nil {
		draft.Keywords = []string{}
	}
	if draft.Metadata == nil {
		draft.Metadata = map[string]any{}
	}
	return &draft, nil
}
