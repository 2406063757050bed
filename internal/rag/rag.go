package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
)

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]models.SearchResult, error)
}

// Answerer produces grounded answers: embed the question, retrieve the top-K
// chunks, assemble the prompt and call the model. A single failure at any
// stage aborts the question; no retries.
type Answerer struct {
	embedder embedding.Embedder
	store    Searcher
	model    llms.Model
	cfg      *config.Config
}

func New(embedder embedding.Embedder, store Searcher, model llms.Model, cfg *config.Config) *Answerer {
	return &Answerer{embedder: embedder, store: store, model: model, cfg: cfg}
}

// Answer runs one question through the pipeline. The returned sources are
// what was retrieved and placed in context, not necessarily what the model
// cited. An empty index answers "don't know" with no sources and no model
// call.
func (a *Answerer) Answer(ctx context.Context, question string) (models.Answer, error) {
	queryVector, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := a.store.Search(ctx, queryVector, a.cfg.RetrievalK)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		return models.Answer{Text: models.NoContextAnswer, Sources: []models.Source{}}, nil
	}

	var contextText strings.Builder
	sources := make([]models.Source, 0, len(results))
	for _, res := range results {
		contextText.WriteString(res.Chunk.Content)
		contextText.WriteString("\n\n")
		sources = append(sources, models.Source{
			Filename: res.Chunk.Source,
			Page:     res.Chunk.Page,
			Content:  res.Chunk.Content,
		})
	}

	prompt := fmt.Sprintf(models.QAPromptTemplate, strings.TrimSpace(contextText.String()), question)

	resp, err := a.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(a.cfg.Temperature),
		llms.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		return models.Answer{}, fmt.Errorf("%w: %v", models.ErrLLMRequest, err)
	}
	if len(resp.Choices) == 0 {
		return models.Answer{}, fmt.Errorf("%w: model returned no choices", models.ErrLLMRequest)
	}

	log.Debug().Int("retrieved", len(results)).Msg("Answered question")
	return models.Answer{Text: resp.Choices[0].Content, Sources: sources}, nil
}
