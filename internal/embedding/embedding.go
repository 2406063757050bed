package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// Embedder turns text into fixed-length vectors. Satisfied by langchaingo's
// EmbedderImpl; tests substitute a deterministic fake.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ProviderID identifies the configured provider and model, e.g.
// "ollama/nomic-embed-text". It is persisted with the index so a provider
// switch without reindexing is detected instead of silently corrupting
// similarity scores.
func ProviderID(cfg *config.EmbedderConfig) string {
	return cfg.Provider + "/" + cfg.Model
}

// NewEmbedder builds the configured embedding client. The ollama provider is
// the local runtime used by default; openai reaches any OpenAI-compatible
// embeddings endpoint.
func NewEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	switch cfg.Embedder.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.Embedder.BaseURL),
			ollama.WithModel(cfg.Embedder.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm)
	case "openai":
		baseURL := cfg.Embedder.BaseURL
		if baseURL == "" {
			baseURL = cfg.OpenAIBaseURL
		}
		llm, err := openai.New(
			openai.WithBaseURL(baseURL),
			openai.WithToken(strings.TrimPrefix(cfg.OpenAIKey, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Embedder.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedder.Provider)
	}
}
