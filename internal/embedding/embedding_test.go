package embedding

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-rag/internal/config"
	"quiz-rag/internal/testutil"
	"quiz-rag/internal/usage"
)

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk number %d", i)
	}
	return out
}

func TestEmbedBatches_KeepsOrder(t *testing.T) {
	fake := testutil.NewEmbedder(8)
	in := texts(23)

	vectors, err := EmbedBatches(context.Background(), fake, in, 5, 3)
	require.NoError(t, err)
	require.Len(t, vectors, len(in))
	assert.Equal(t, 5, fake.DocumentCalls())

	for i, text := range in {
		want, err := fake.EmbedQuery(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, want, vectors[i], "vector %d", i)
	}
}

func TestEmbedBatches_FailureFailsAll(t *testing.T) {
	fake := testutil.NewEmbedder(4)
	in := texts(10)
	fake.FailOn = in[7]

	vectors, err := EmbedBatches(context.Background(), fake, in, 2, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrEmbed)
	assert.Nil(t, vectors)
}

func TestEmbedBatches_Empty(t *testing.T) {
	vectors, err := EmbedBatches(context.Background(), testutil.NewEmbedder(4), nil, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestTracking_CountsTokens(t *testing.T) {
	gen := usage.NewGenerationContext("run", usage.GPT4oMini, usage.TextEmbedding3Small)
	words := func(_, text string) int { return len(text) }
	tracked := NewTracking(testutil.NewEmbedder(4), gen, words)

	_, err := tracked.EmbedQuery(context.Background(), "hello world")
	require.NoError(t, err)
	_, err = EmbedBatches(context.Background(), tracked, []string{"abc", "de", "f"}, 2, 2)
	require.NoError(t, err)

	_, _, embedding := gen.Tokens()
	assert.Equal(t, int64(11+3+2+1), embedding)
}

func TestTracking_FailedCallIsNotCounted(t *testing.T) {
	gen := usage.NewGenerationContext("run", usage.GPT4oMini, usage.TextEmbedding3Small)
	fake := testutil.NewEmbedder(4)
	fake.FailOn = "boom"
	tracked := NewTracking(fake, gen, func(_, text string) int { return 100 })

	_, err := tracked.EmbedQuery(context.Background(), "boom")
	require.Error(t, err)
	_, _, embedding := gen.Tokens()
	assert.Zero(t, embedding)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "bedrock", Model: "x"}, 10)
	assert.Error(t, err)
}

func TestNewEmbedder_Ollama(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434", Model: "nomic-embed-text"}, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, e.BatchSize)
}
