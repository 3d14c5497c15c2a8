package llm

import (
	"context"
	"fmt"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/service"
)

// Generator wraps a provider client with rate limiting, response caching,
// and retry behavior. It implements service.Generator.
type Generator struct {
	client      Client
	rateLimiter *rateLimiter
	cache       *responseCache
	retryOpts   service.RetryOptions
}

// NewGenerator creates a production generator from configuration.
func NewGenerator(cfg Config) (*Generator, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Generator{
		client:      client,
		rateLimiter: newRateLimiter(cfg.RequestsPerMinute),
		cache:       newResponseCache(cfg.CacheTTL),
		retryOpts:   service.RetryOptions{},
	}, nil
}

// Generate produces a completion for the prompt pair, consulting the
// cache first and retrying transient provider failures.
func (g *Generator) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	key := cacheKey(prompt, systemPrompt)
	if response, ok := g.cache.get(key); ok {
		return response, nil
	}

	if err := g.rateLimiter.wait(ctx); err != nil {
		return "", err
	}

	var response string
	err := common.WithRetry(ctx, func() error {
		var genErr error
		response, genErr = g.client.Generate(ctx, prompt, systemPrompt)
		return genErr
	}, g.retryOpts)
	if err != nil {
		return "", err
	}

	g.cache.set(key, response)
	return response, nil
}

// Close releases the generator's background resources.
func (g *Generator) Close() {
	g.rateLimiter.Close()
	g.cache.Close()
}
