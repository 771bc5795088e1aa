package embedding

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"

	"quiz-rag/internal/metrics"
	"quiz-rag/internal/usage"
)

// Tracking counts the tokens of every embedded text into a GenerationContext.
type Tracking struct {
	embedder embeddings.Embedder
	model    string
	count    usage.TokenCounter
	gen      *usage.GenerationContext
}

var _ embeddings.Embedder = (*Tracking)(nil)

func NewTracking(embedder embeddings.Embedder, gen *usage.GenerationContext, count usage.TokenCounter) *Tracking {
	if count == nil {
		count = usage.TiktokenCounter
	}
	return &Tracking{
		embedder: embedder,
		model:    string(gen.EmbeddingModel),
		count:    count,
		gen:      gen,
	}
}

func (t *Tracking) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := t.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, text := range texts {
		t.add(text)
	}
	return vectors, nil
}

func (t *Tracking) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := t.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	t.add(text)
	return vector, nil
}

func (t *Tracking) add(text string) {
	n := t.count(t.model, text)
	t.gen.AddEmbedding(n)
	metrics.AddTokens("embedding", n)
}
