package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Config contains LLM client configuration.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
	CacheTTL          time.Duration
	Timeout           time.Duration
}
