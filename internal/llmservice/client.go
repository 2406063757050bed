package llmservice

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// NewClient builds the chat completion client for the configured
// OpenAI-compatible endpoint.
func NewClient(cfg *config.Config) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.OpenAIKey, "Bearer ")),
		openai.WithModel(cfg.LLMModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	return llm, nil
}
