package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientProviders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "sk-test"}, false},
		{"anthropic", Config{Provider: "anthropic", APIKey: "sk-ant"}, false},
		{"ollama without key", Config{Provider: "ollama"}, false},
		{"openai missing key", Config{Provider: "openai"}, true},
		{"unknown provider", Config{Provider: "bard"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"company":"Initech"}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	content, err := client.Generate(context.Background(), "extract fields", "respond with JSON")
	require.NoError(t, err)
	assert.Equal(t, `{"company":"Initech"}`, content)
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))

		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": "answer text"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)

	content, err := client.Generate(context.Background(), "question", "system")
	require.NoError(t, err)
	assert.Equal(t, "answer text", content)
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "local answer", "done": true})
	}))
	defer server.Close()

	client, err := newOllamaClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	content, err := client.Generate(context.Background(), "question", "system")
	require.NoError(t, err)
	assert.Equal(t, "local answer", content)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", "system")
	assert.Error(t, err)
}

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	content := "Here is the result:\n{\"company\": \"Hooli\"}\nLet me know if you need more."
	assert.Equal(t, `{"company": "Hooli"}`, ExtractJSONObject(content))
}

func TestResponseCache(t *testing.T) {
	cache := newResponseCache(50 * time.Millisecond)
	defer cache.Close()

	key := cacheKey("prompt", "system")
	_, ok := cache.get(key)
	assert.False(t, ok)

	cache.set(key, "response")
	got, ok := cache.get(key)
	assert.True(t, ok)
	assert.Equal(t, "response", got)

	time.Sleep(80 * time.Millisecond)
	_, ok = cache.get(key)
	assert.False(t, ok)
}

func TestRateLimiterAcquire(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire())
}

func TestRateLimiterWaitCanceled(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()
	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	assert.Error(t, err)
}

type staticClient struct {
	response string
	calls    int
}

func (s *staticClient) Generate(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.response, nil
}

func TestGeneratorCachesResponses(t *testing.T) {
	client := &staticClient{response: "cached answer"}
	g := &Generator{
		client:      client,
		rateLimiter: newRateLimiter(60),
		cache:       newResponseCache(time.Minute),
	}
	defer g.Close()

	ctx := context.Background()
	first, err := g.Generate(ctx, "prompt", "system")
	require.NoError(t, err)
	second, err := g.Generate(ctx, "prompt", "system")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls)
}
