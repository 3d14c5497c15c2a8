package main

import (
	"fmt"
	"os"

	"github.com/jobtrail/jobtrail/internal/embed"
	"github.com/jobtrail/jobtrail/internal/llm"
	"github.com/jobtrail/jobtrail/internal/service"
	"github.com/spf13/viper"
)

// createGenerator creates an LLM generator based on configuration.
// This function is shared by the extract, run, and ask commands.
func createGenerator() (*llm.Generator, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai" // default provider
	}

	cfg := llm.Config{
		Provider:          provider,
		Model:             viper.GetString("llm.model"),
		BaseURL:           viper.GetString("llm.base_url"),
		Temperature:       viper.GetFloat64("llm.temperature"),
		MaxTokens:         viper.GetInt("llm.max_tokens"),
		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
		CacheTTL:          viper.GetDuration("llm.cache_ttl"),
		Timeout:           viper.GetDuration("llm.timeout"),
	}

	apiKey, err := providerAPIKey(provider, "llm")
	if err != nil {
		return nil, err
	}
	cfg.APIKey = apiKey

	return llm.NewGenerator(cfg)
}

// createEmbedder creates the embedding client used at both index-build
// time and query time.
func createEmbedder() (service.Embedder, error) {
	provider := viper.GetString("embedding.provider")
	if provider == "" {
		provider = "openai"
	}

	cfg := embed.Config{
		Provider:  provider,
		Model:     viper.GetString("embedding.model"),
		BaseURL:   viper.GetString("embedding.base_url"),
		Dimension: viper.GetInt("embedding.dimension"),
		Timeout:   viper.GetDuration("embedding.timeout"),
	}

	apiKey, err := providerAPIKey(provider, "embedding")
	if err != nil {
		return nil, err
	}
	cfg.APIKey = apiKey

	return embed.NewEmbedder(cfg)
}

// providerAPIKey resolves the API key for a provider, checking viper
// config first and then the conventional environment variable. Ollama
// runs locally and needs none.
func providerAPIKey(provider, section string) (string, error) {
	switch provider {
	case "openai":
		apiKey := viper.GetString(section + ".openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return "", fmt.Errorf("OpenAI API key not found in config or OPENAI_API_KEY environment variable")
		}
		return apiKey, nil

	case "anthropic":
		apiKey := viper.GetString(section + ".anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return "", fmt.Errorf("anthropic API key not found in config or ANTHROPIC_API_KEY environment variable")
		}
		return apiKey, nil

	case "ollama":
		// Ollama doesn't need an API key
		return "", nil

	default:
		return "", fmt.Errorf("unsupported %s provider: %s", section, provider)
	}
}
