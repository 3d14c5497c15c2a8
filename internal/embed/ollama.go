package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/common"
)

// ollamaEmbedder implements service.Embedder using a local Ollama server.
type ollamaEmbedder struct {
	httpClient *http.Client
	model      string
	baseURL    string
	dimension  int
}

// newOllamaEmbedder creates a new Ollama embeddings client.
func newOllamaEmbedder(cfg Config) (*ollamaEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 768
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	return &ollamaEmbedder{
		model:     model,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Embed returns the embedding vector for the given text.
func (e *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	requestBody := map[string]any{
		"model":  e.model,
		"prompt": text,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	if len(response.Embedding) != e.dimension {
		return nil, fmt.Errorf("%w: embedding dimension %d, expected %d",
			common.ErrConfigMismatch, len(response.Embedding), e.dimension)
	}

	vector := make([]float32, len(response.Embedding))
	for i, v := range response.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Dimension returns the fixed output dimension of this embedder.
func (e *ollamaEmbedder) Dimension() int {
	return e.dimension
}
