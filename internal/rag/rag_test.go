package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embedding runtime down")
}

type fakeSearcher struct {
	results []models.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, _ int) ([]models.SearchResult, error) {
	return f.results, f.err
}

type fakeModel struct {
	prompt    string
	reply     string
	err       error
	noChoices bool
	calls     int
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoices {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func testConfig() *config.Config {
	return &config.Config{RetrievalK: 4, Temperature: 0.3, MaxTokens: 500}
}

func skyResults() []models.SearchResult {
	return []models.SearchResult{
		{
			Chunk:      models.Chunk{Content: "The sky is blue.", Source: "weather.pdf", Page: "2", ChunkIndex: 3},
			Similarity: 0.93,
		},
		{
			Chunk:      models.Chunk{Content: "Clouds are made of water vapor.", Source: "weather.pdf", Page: "1", ChunkIndex: 0},
			Similarity: 0.71,
		},
	}
}

func TestAnswerGroundedInRetrievedChunks(t *testing.T) {
	model := &fakeModel{reply: "The sky is blue, according to weather.pdf."}
	a := New(fakeEmbedder{}, &fakeSearcher{results: skyResults()}, model, testConfig())

	answer, err := a.Answer(context.Background(), "What color is the sky?")
	require.NoError(t, err)

	assert.Equal(t, "The sky is blue, according to weather.pdf.", answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "weather.pdf", answer.Sources[0].Filename)
	assert.Equal(t, "2", answer.Sources[0].Page)

	// the prompt carries every retrieved chunk and the verbatim question
	assert.Contains(t, model.prompt, "The sky is blue.")
	assert.Contains(t, model.prompt, "Clouds are made of water vapor.")
	assert.Contains(t, model.prompt, "What color is the sky?")
	assert.Contains(t, model.prompt, "don't know")
}

func TestAnswerEmptyIndex(t *testing.T) {
	model := &fakeModel{reply: "should never be used"}
	a := New(fakeEmbedder{}, &fakeSearcher{}, model, testConfig())

	answer, err := a.Answer(context.Background(), "Anything in there?")
	require.NoError(t, err)

	assert.Equal(t, models.NoContextAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, model.calls, "empty index must not reach the model")
}

func TestAnswerEmbeddingFailure(t *testing.T) {
	model := &fakeModel{}
	a := New(failingEmbedder{}, &fakeSearcher{results: skyResults()}, model, testConfig())

	_, err := a.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, model.calls)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	model := &fakeModel{}
	a := New(fakeEmbedder{}, &fakeSearcher{err: errors.New("index unavailable")}, model, testConfig())

	_, err := a.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, model.calls)
}

func TestAnswerLLMFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	a := New(fakeEmbedder{}, &fakeSearcher{results: skyResults()}, model, testConfig())

	_, err := a.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, models.ErrLLMRequest)
}

func TestAnswerNoChoices(t *testing.T) {
	model := &fakeModel{noChoices: true}
	a := New(fakeEmbedder{}, &fakeSearcher{results: skyResults()}, model, testConfig())

	_, err := a.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, models.ErrLLMRequest)
}
