package embed

import (
	"fmt"
	"strings"

	"github.com/jobtrail/jobtrail/internal/service"
)

// NewEmbedder creates an embedding client based on the provided configuration.
func NewEmbedder(cfg Config) (service.Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIEmbedder(cfg)
	case "ollama":
		return newOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
