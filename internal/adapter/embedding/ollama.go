package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DimensionCache remembers the dimension of the first successful embedding.
// It is set once; later writers are ignored.
type DimensionCache struct {
	mu       sync.RWMutex
	observed int
	fallback int
}

func NewDimensionCache(fallback int) *DimensionCache {
	return &DimensionCache{fallback: fallback}
}

// Observe records n if no dimension has been recorded yet.
func (c *DimensionCache) Observe(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.observed == 0 {
		c.observed = n
	}
	c.mu.Unlock()
}

// Get returns the observed dimension, or the fallback before any observation.
func (c *DimensionCache) Get() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.observed > 0 {
		return c.observed
	}
	return c.fallback
}

// OllamaEmbedder calls the Ollama embeddings endpoint. It never fails:
// provider errors degrade to a zero vector of the cached dimension.
type OllamaEmbedder struct {
	model        string
	baseURL      string
	client       *http.Client
	pingTimeout time.Duration
	dims         *DimensionCache
	pingOnce    sync.Once
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewOllamaEmbedder creates an embedder for model served at baseURL.
func NewOllamaEmbedder(model, baseURL string, timeout, pingTimeout time.Duration, defaultDimension int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if defaultDimension <= 0 {
		defaultDimension = 768
	}

	return &OllamaEmbedder{
		model:        model,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: timeout},
		pingTimeout: pingTimeout,
		dims:         NewDimensionCache(defaultDimension),
	}
}

// Embed returns the embedding for text, or a zero vector when the provider
// is unreachable or answers with something unusable.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.pingOnce.Do(func() { e.ping(ctx) })

	vec, err := e.embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed, using zero vector", "model", e.model, "dimension", e.dims.Get(), "error", err)
		return make([]float32, e.dims.Get()), nil
	}

	e.dims.Observe(len(vec))
	return vec, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:  e.model,
		Prompt: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	if embResp.Error != "" {
		return nil, fmt.Errorf("API error: %s", embResp.Error)
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("API returned an empty embedding")
	}

	return embResp.Embedding, nil
}

// ping checks that the provider answers. The result is only logged.
func (e *OllamaEmbedder) ping(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, e.pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		slog.Warn("embedding provider unreachable", "url", e.baseURL, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("embedding provider ping failed", "url", e.baseURL, "status", resp.StatusCode)
		return
	}
	slog.Debug("embedding provider reachable", "url", e.baseURL, "model", e.model)
}

func (e *OllamaEmbedder) Dimension() int {
	return e.dims.Get()
}

func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
