package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdf-rag/internal/models"
)

// EmbedderConfig selects the embedding provider. The provider identity is
// persisted next to the vector index; querying an index built by a different
// provider is refused.
type EmbedderConfig struct {
	Provider string `yaml:"provider" env:"EMBEDDING_PROVIDER"` // "ollama" or "openai"
	Model    string `yaml:"model" env:"EMBEDDING_MODEL"`
	BaseURL  string `yaml:"base_url" env:"EMBEDDING_BASE_URL"`
}

// BackupConfig holds the object-storage side-channel settings. The core never
// touches these; only the backup commands do.
type BackupConfig struct {
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET"`
	Region        string `yaml:"region" env:"S3_REGION"`
	AccessKey     string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UseSSL        bool   `yaml:"use_ssl" env:"S3_USE_SSL"`
	RetentionDays int    `yaml:"retention_days" env:"BACKUP_RETENTION_DAYS"`
}

type Config struct {
	OpenAIKey     string  `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	LLMModel      string  `yaml:"llm_model" env:"LLM_MODEL"`
	Temperature   float64 `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens     int     `yaml:"max_tokens" env:"MAX_TOKENS"`

	ChunkSize    int `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap int `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	RetrievalK   int `yaml:"retrieval_top_k" env:"RETRIEVAL_TOP_K"`

	VectorStorePath string `yaml:"vector_store_path" env:"VECTOR_STORE_PATH"`
	PDFStorageDir   string `yaml:"pdf_storage_dir" env:"PDF_STORAGE_DIR"`
	MaxFileSize     int64  `yaml:"max_file_size" env:"MAX_FILE_SIZE"`

	// StrictIndexLoad makes a corrupt persisted index fatal at startup instead
	// of falling back to an empty one.
	StrictIndexLoad bool `yaml:"strict_index_load" env:"STRICT_INDEX_LOAD"`

	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Embedder EmbedderConfig `yaml:"embedder"`
	Backup   BackupConfig   `yaml:"backup"`
}

func defaultConfig() *Config {
	return &Config{
		OpenAIBaseURL:   "https://api.openai.com/v1",
		LLMModel:        "gpt-4o-mini",
		Temperature:     0.3,
		MaxTokens:       500,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		RetrievalK:      4,
		VectorStorePath: "./data/vector_store",
		PDFStorageDir:   "./data/pdfs",
		MaxFileSize:     50 << 20,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		Embedder: EmbedderConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Backup: BackupConfig{
			Region:        "us-east-1",
			RetentionDays: 7,
		},
	}
}

// Load builds the configuration: built-in defaults, then an optional YAML file
// at path, then the environment. Later layers win. A .env file is loaded into
// the environment first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: reading %s: %v", models.ErrConfig, path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", models.ErrConfig, path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", models.ErrConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature %v out of range [0,2]", models.ErrConfig, c.Temperature)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", models.ErrConfig)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", models.ErrConfig)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("%w: retrieval top-k must be positive", models.ErrConfig)
	}
	switch c.Embedder.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfig, c.Embedder.Provider)
	}
	return nil
}
