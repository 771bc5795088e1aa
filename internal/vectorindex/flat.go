package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/vmihailenco/msgpack/v5"

	"quiz-rag/internal/embedding"
	"quiz-rag/internal/helper"
	"quiz-rag/internal/models"
)

const (
	flatSnapshotFile    = "index.msgpack"
	flatSnapshotVersion = 1
)

type flatEntry struct {
	Chunk  models.Chunk `msgpack:"chunk"`
	Vector []float32    `msgpack:"vector"`
}

type flatSnapshot struct {
	Version   int         `msgpack:"version"`
	Dimension int         `msgpack:"dimension"`
	Entries   []flatEntry `msgpack:"entries"`
}

// FlatL2 is a brute-force index ranking chunks by euclidean distance.
// Position i of entries is both the vector and the chunk it came from.
type FlatL2 struct {
	embedder embeddings.Embedder
	opts     Options
	dim      int
	entries  []flatEntry
}

func newFlatL2(embedder embeddings.Embedder, opts Options, dim int) *FlatL2 {
	return &FlatL2{embedder: embedder, opts: opts, dim: dim}
}

func (f *FlatL2) Len() int       { return len(f.entries) }
func (f *FlatL2) Dimension() int { return f.dim }

func (f *FlatL2) WithEmbedder(embedder embeddings.Embedder) Index {
	view := *f
	view.embedder = embedder
	view.entries = f.entries[:len(f.entries):len(f.entries)]
	return &view
}

func (f *FlatL2) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedding.EmbedBatches(ctx, f.embedder, texts, f.opts.BatchSize, f.opts.Workers)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := checkDimensions(vectors, f.dim); err != nil {
		return err
	}

	for i, c := range chunks {
		f.entries = append(f.entries, flatEntry{Chunk: c, Vector: vectors[i]})
	}
	log.Debug().Int("added", len(chunks)).Int("total", len(f.entries)).Msg("chunks indexed")
	return nil
}

func (f *FlatL2) Query(ctx context.Context, text string, k int) ([]models.Chunk, error) {
	if k <= 0 || len(f.entries) == 0 {
		return nil, nil
	}
	q, err := f.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(q) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), f.dim)
	}

	order := make([]int, len(f.entries))
	dist := make([]float64, len(f.entries))
	for i, e := range f.entries {
		order[i] = i
		dist[i] = squaredL2(q, e.Vector)
	}
	// stable so equal distances keep insertion order
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })

	k = min(k, len(order))
	out := make([]models.Chunk, k)
	for i := 0; i < k; i++ {
		out[i] = f.entries[order[i]].Chunk
	}
	return out, nil
}

func (f *FlatL2) Persist(path string) error {
	if err := helper.CreateFolder(path); err != nil {
		return err
	}
	data, err := msgpack.Marshal(flatSnapshot{
		Version:   flatSnapshotVersion,
		Dimension: f.dim,
		Entries:   f.entries,
	})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	file := filepath.Join(path, flatSnapshotFile)
	if err := helper.WriteFileAtomic(file, data); err != nil {
		return err
	}
	log.Info().Str("path", file).Int("chunks", len(f.entries)).Msg("vector index persisted")
	return nil
}

func loadFlatL2(path string, embedder embeddings.Embedder, opts Options, dim int) (*FlatL2, error) {
	data, err := os.ReadFile(filepath.Join(path, flatSnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read index snapshot: %w", err)
	}
	var snap flatSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode index snapshot: %w", err)
	}
	if snap.Version != flatSnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Dimension != dim {
		return nil, fmt.Errorf("%w: snapshot has %d, embedder has %d", ErrDimensionMismatch, snap.Dimension, dim)
	}
	for i, e := range snap.Entries {
		if len(e.Vector) != snap.Dimension {
			return nil, fmt.Errorf("%w: snapshot entry %d", ErrDimensionMismatch, i)
		}
	}
	return &FlatL2{embedder: embedder, opts: opts, dim: snap.Dimension, entries: snap.Entries}, nil
}

func flatSnapshotExists(path string) bool {
	return helper.FileExists(filepath.Join(path, flatSnapshotFile))
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
