package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"quiz-rag/internal/usage"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	BackendFlat    = "flat"
	BackendChromem = "chromem"
)

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize             int    `yaml:"chunk_size"`
	ChunkOverlap          int    `yaml:"chunk_overlap"`
	EmbeddingBatchSize    int    `yaml:"embedding_batch_size"`
	EmbeddingWorkers      int    `yaml:"embedding_workers"`
	MinTextLength         int    `yaml:"min_text_length"`
	MaxFlashcardsPerChunk int    `yaml:"max_flashcards_per_chunk"`
	LocalVectorStorePath  string `yaml:"local_vector_store_path"`
	IndexBackend          string `yaml:"index_backend"`
	IndexCacheSize        int    `yaml:"index_cache_size"`
	Compress              bool   `yaml:"compress"`
	EncryptionKey         string `yaml:"encryption_key"`
	// 0 seeds from the clock
	RandomSeed uint64 `yaml:"random_seed"`
}

type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	RateLimitPerSecond float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM      LLMConfig    `yaml:"llm"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	Server   ServerConfig `yaml:"server"`
	Log      LogConfig    `yaml:"log"`
}

// Default returns the configuration used when no file overrides a field.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    string(usage.GPT4oMini),
		},
		EmbedLLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    string(usage.TextEmbedding3Small),
		},
		RAG: RAGConfig{
			ChunkSize:             1000,
			ChunkOverlap:          100,
			EmbeddingBatchSize:    10,
			EmbeddingWorkers:      4,
			MinTextLength:         100,
			MaxFlashcardsPerChunk: 4,
			IndexBackend:          BackendFlat,
			IndexCacheSize:        16,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
			AllowedOrigins: []string{
				"https://quiz-tonic.flutterflow.app",
				"http://quiztonic.app",
			},
			RateLimitPerSecond: 1,
			RateLimitBurst:     5,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       5 * time.Minute,
			ShutdownTimeout:    10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig reads the yaml file at path on top of the defaults, then applies
// environment overrides. A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.LLM.Key == "" {
			c.LLM.Key = v
		}
		if c.EmbedLLM.Key == "" {
			c.EmbedLLM.Key = v
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		c.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("QUIZ_RAG_VECTOR_STORE_PATH"); v != "" {
		c.RAG.LocalVectorStorePath = v
	}
	if v := os.Getenv("QUIZ_RAG_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
}

// Validate checks every field the pipeline depends on before any model is built.
func (c *Config) Validate() error {
	for name, l := range map[string]LLMConfig{"llm": c.LLM, "embed_llm": c.EmbedLLM} {
		if l.Provider != ProviderOpenAI && l.Provider != ProviderOllama {
			return fmt.Errorf("%s.provider must be %q or %q, got %q", name, ProviderOpenAI, ProviderOllama, l.Provider)
		}
		if _, err := usage.ParseModel(l.Model); err != nil {
			return fmt.Errorf("%s.model: %w", name, err)
		}
	}

	r := c.RAG
	if r.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size)")
	}
	if r.EmbeddingBatchSize <= 0 || r.EmbeddingWorkers <= 0 {
		return fmt.Errorf("rag.embedding_batch_size and rag.embedding_workers must be positive")
	}
	if r.IndexCacheSize <= 0 {
		return fmt.Errorf("rag.index_cache_size must be positive")
	}
	if r.MaxFlashcardsPerChunk <= 0 {
		return fmt.Errorf("rag.max_flashcards_per_chunk must be positive")
	}
	if r.MinTextLength < 0 {
		return fmt.Errorf("rag.min_text_length must not be negative")
	}
	if r.IndexBackend != BackendFlat && r.IndexBackend != BackendChromem {
		return fmt.Errorf("rag.index_backend must be %q or %q, got %q", BackendFlat, BackendChromem, r.IndexBackend)
	}
	if n := len(r.EncryptionKey); n != 0 && n != 32 {
		return fmt.Errorf("rag.encryption_key must be empty or 32 bytes, got %d", n)
	}

	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server rate limits must not be negative")
	}
	return nil
}
