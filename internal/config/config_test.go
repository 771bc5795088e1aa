package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-rag/internal/usage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: ollama
  base_url: http://localhost:11434
  model: llama3.1
embed_llm:
  provider: ollama
  model: nomic-embed-text
rag:
  chunk_size: 500
  chunk_overlap: 50
server:
  write_timeout: 2m
`)
	t.Setenv("QUIZ_RAG_VECTOR_STORE_PATH", "/tmp/index")
	t.Setenv("EMBEDDING_BASE_URL", "http://embed:11434")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, string(usage.Llama31), cfg.LLM.Model)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 10, cfg.RAG.EmbeddingBatchSize)
	assert.Equal(t, BackendFlat, cfg.RAG.IndexBackend)
	assert.Equal(t, "/tmp/index", cfg.RAG.LocalVectorStorePath)
	assert.Equal(t, "http://embed:11434", cfg.EmbedLLM.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown llm model", func(c *Config) { c.LLM.Model = "gpt-unknown" }},
		{"unknown provider", func(c *Config) { c.EmbedLLM.Provider = "bedrock" }},
		{"overlap not below size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"zero workers", func(c *Config) { c.RAG.EmbeddingWorkers = 0 }},
		{"unknown backend", func(c *Config) { c.RAG.IndexBackend = "hnsw" }},
		{"zero index cache", func(c *Config) { c.RAG.IndexCacheSize = 0 }},
		{"short encryption key", func(c *Config) { c.RAG.EncryptionKey = "short" }},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
