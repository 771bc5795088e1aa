package vectorindex

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"quiz-rag/internal/embedding"
	"quiz-rag/internal/helper"
	"quiz-rag/internal/models"
)

const (
	collectionName = "chunks"
	metaIndex      = "index"
)

// Chromem keeps chunks in an in-memory chromem-go collection ranked by cosine
// similarity, and snapshots it with chromem's export format.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
	opts       Options
	embedder   embeddings.Embedder
	dim        int
}

func embeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func newChromem(embedder embeddings.Embedder, opts Options, dim int) (*Chromem, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &Chromem{db: db, collection: c, opts: opts, embedder: embedder, dim: dim}, nil
}

func (m *Chromem) Len() int       { return m.collection.Count() }
func (m *Chromem) Dimension() int { return m.dim }

func (m *Chromem) WithEmbedder(embedder embeddings.Embedder) Index {
	view := *m
	view.embedder = embedder
	return &view
}

func (m *Chromem) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedding.EmbedBatches(ctx, m.embedder, texts, m.opts.BatchSize, m.opts.Workers)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := checkDimensions(vectors, m.dim); err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("chunk-%d", c.Index),
			Content:   c.Text,
			Metadata:  map[string]string{metaIndex: strconv.Itoa(c.Index)},
			Embedding: vectors[i],
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, max(m.opts.Workers, 1)); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	log.Debug().Int("added", len(docs)).Int("total", m.collection.Count()).Msg("chunks indexed")
	return nil
}

func (m *Chromem) Query(ctx context.Context, text string, k int) ([]models.Chunk, error) {
	n := min(k, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}
	q, err := m.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(q) != m.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), m.dim)
	}

	results, err := m.collection.QueryEmbedding(ctx, q, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	out := make([]models.Chunk, 0, len(results))
	for _, r := range results {
		idx, err := strconv.Atoi(r.Metadata[metaIndex])
		if err != nil {
			return nil, fmt.Errorf("document %s has no chunk index: %v", r.ID, err)
		}
		out = append(out, models.Chunk{Text: r.Content, Index: idx})
	}
	return out, nil
}

func (m *Chromem) Persist(path string) error {
	if err := helper.CreateFolder(path); err != nil {
		return err
	}
	file := chromemSnapshotFile(path, m.opts)
	log.Debug().Str("path", file).Bool("compress", m.opts.Compress).Msg("exporting collection")
	if err := m.db.ExportToFile(file, m.opts.Compress, m.opts.EncryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

func loadChromem(ctx context.Context, path string, embedder embeddings.Embedder, opts Options, dim int) (*Chromem, error) {
	db := chromem.NewDB()
	if err := db.ImportFromFile(chromemSnapshotFile(path, opts), opts.EncryptionKey, collectionName); err != nil {
		return nil, fmt.Errorf("failed to import database: %v", err)
	}
	c := db.GetCollection(collectionName, embeddingFunc(embedder))
	if c == nil {
		return nil, fmt.Errorf("snapshot has no %q collection", collectionName)
	}

	if c.Count() > 0 {
		// stored vectors are normalized, only their length can be checked
		res, err := c.QueryEmbedding(ctx, unitVector(dim), 1, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
		}
		if len(res) == 1 && len(res[0].Embedding) != dim {
			return nil, fmt.Errorf("%w: snapshot has %d, embedder has %d", ErrDimensionMismatch, len(res[0].Embedding), dim)
		}
	}
	return &Chromem{db: db, collection: c, opts: opts, embedder: embedder, dim: dim}, nil
}

func unitVector(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1
	return v
}

func chromemSnapshotFile(path string, opts Options) string {
	name := "index.chromem.gob"
	if opts.Compress {
		name += ".gz"
	}
	if opts.EncryptionKey != "" {
		name += ".enc"
	}
	return filepath.Join(path, name)
}

func chromemSnapshotExists(path string, opts Options) bool {
	return helper.FileExists(chromemSnapshotFile(path, opts))
}
