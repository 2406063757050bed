package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.Equal(t, "./data/vector_store", cfg.VectorStorePath)
	assert.Equal(t, "./data/pdfs", cfg.PDFStorageDir)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
	assert.False(t, cfg.StrictIndexLoad)
}

func TestLoadMissingAPIKeyFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load("")
	assert.ErrorIs(t, err, models.ErrConfig)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("STRICT_INDEX_LOAD", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.True(t, cfg.StrictIndexLoad)
}

func TestLoadYAMLOverlayEnvWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MAX_TOKENS", "900")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm_model: from-yaml\nmax_tokens: 123\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.LLMModel, "yaml overrides defaults")
	assert.Equal(t, 900, cfg.MaxTokens, "environment overrides yaml")
}

func TestLoadMissingYAMLIsFine(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
}

func TestValidateTemperatureRange(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("TEMPERATURE", "2.5")

	_, err := Load("")
	assert.ErrorIs(t, err, models.ErrConfig)
}

func TestValidateOverlapBounds(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := Load("")
	assert.ErrorIs(t, err, models.ErrConfig)
}

func TestValidateUnknownProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("EMBEDDING_PROVIDER", "faiss")

	_, err := Load("")
	assert.ErrorIs(t, err, models.ErrConfig)
}
