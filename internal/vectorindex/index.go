package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
	"quiz-rag/internal/models"
)

// ErrDimensionMismatch is returned when a vector does not have the index dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// sample text used to fix the index dimension
const sampleText = "hello world"

// Index is a nearest-neighbour index over document chunks.
type Index interface {
	// AddChunks embeds every chunk and adds them all, or none on error.
	AddChunks(ctx context.Context, chunks []models.Chunk) error
	// Query returns up to k chunks nearest to text, nearest first.
	Query(ctx context.Context, text string, k int) ([]models.Chunk, error)
	// Persist writes a snapshot into the directory at path, replacing any previous one.
	Persist(path string) error
	// WithEmbedder returns a view of the same entries that embeds queries with
	// embedder. The view must not be added to.
	WithEmbedder(embedder embeddings.Embedder) Index
	Len() int
	Dimension() int
}

type Options struct {
	Backend       string
	BatchSize     int
	Workers       int
	Compress      bool
	EncryptionKey string
}

func OptionsFromConfig(rag config.RAGConfig) Options {
	return Options{
		Backend:       rag.IndexBackend,
		BatchSize:     rag.EmbeddingBatchSize,
		Workers:       rag.EmbeddingWorkers,
		Compress:      rag.Compress,
		EncryptionKey: rag.EncryptionKey,
	}
}

// Create embeds a sample text once for the vector dimension and returns an empty index.
func Create(ctx context.Context, embedder embeddings.Embedder, opts Options) (Index, error) {
	dim, err := measureDimension(ctx, embedder)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("backend", opts.Backend).Int("dimension", dim).Msg("creating vector index")

	switch opts.Backend {
	case config.BackendChromem:
		return newChromem(embedder, opts, dim)
	case config.BackendFlat, "":
		return newFlatL2(embedder, opts, dim), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", opts.Backend)
	}
}

// Load reads the snapshot in the directory at path. Missing, corrupt or
// incompatible snapshots are reported as an IndexLoad error.
func Load(ctx context.Context, path string, embedder embeddings.Embedder, opts Options) (Index, error) {
	dim, err := measureDimension(ctx, embedder)
	if err != nil {
		return nil, apperr.IndexLoad(err)
	}

	var idx Index
	switch opts.Backend {
	case config.BackendChromem:
		idx, err = loadChromem(ctx, path, embedder, opts, dim)
	case config.BackendFlat, "":
		idx, err = loadFlatL2(path, embedder, opts, dim)
	default:
		err = fmt.Errorf("unknown index backend %q", opts.Backend)
	}
	if err != nil {
		return nil, apperr.IndexLoad(err)
	}

	log.Info().Str("path", path).Int("chunks", idx.Len()).Msg("loaded vector index snapshot")
	return idx, nil
}

// SnapshotExists reports whether a snapshot for the backend exists under path.
func SnapshotExists(path string, opts Options) bool {
	if path == "" {
		return false
	}
	if opts.Backend == config.BackendChromem {
		return chromemSnapshotExists(path, opts)
	}
	return flatSnapshotExists(path)
}

func measureDimension(ctx context.Context, embedder embeddings.Embedder) (int, error) {
	v, err := embedder.EmbedQuery(ctx, sampleText)
	if err != nil {
		return 0, fmt.Errorf("failed to measure embedding dimension: %w", err)
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("embedder returned an empty vector")
	}
	return len(v), nil
}

func checkDimensions(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d, index has %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
