package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/sync/singleflight"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/document"
	"quiz-rag/internal/embedding"
	"quiz-rag/internal/llmservice"
	"quiz-rag/internal/metrics"
	"quiz-rag/internal/models"
	"quiz-rag/internal/quiz"
	"quiz-rag/internal/usage"
	"quiz-rag/internal/vectorindex"
)

const (
	strategyRetrieval    = "retrieval"
	strategyDistribution = "distribution"
	strategyPerChunk     = "per_chunk"
)

var (
	questionPrompt   = prompts.NewPromptTemplate(models.QuestionPromptTemplate, []string{"num_questions", "content"})
	flashcardsPrompt = prompts.NewPromptTemplate(models.FlashcardsPromptTemplate, []string{"max_flashcards", "content"})

	quizSchema = llmservice.Schema{
		Name:        models.QuizToolName,
		Description: "Submit the generated multiple-choice quiz",
		Parameters:  models.QuizSchema,
	}
	flashcardsSchema = llmservice.Schema{
		Name:        models.FlashcardsToolName,
		Description: "Submit the generated flashcards",
		Parameters:  models.FlashcardSetSchema,
	}
)

type Options struct {
	Index vectorindex.Options
	// SnapshotRoot holds one index snapshot directory per distinct document. Empty disables snapshots.
	SnapshotRoot          string
	MaxFlashcardsPerChunk int
	// CacheSize bounds how many loaded or built indexes stay in memory.
	CacheSize    int
	TokenCounter usage.TokenCounter
}

const defaultCacheSize = 16

// RAG drives generation calls for one document at a time. The most recently
// used indexes are kept in memory; concurrent requests for the same snapshot
// share one load or build, requests for different snapshots run in parallel.
type RAG struct {
	completer llmservice.Completer
	embedder  embeddings.Embedder
	opts      Options

	cache  *lru.Cache[string, vectorindex.Index]
	flight singleflight.Group
}

func NewRAG(completer llmservice.Completer, embedder embeddings.Embedder, opts Options) *RAG {
	if opts.TokenCounter == nil {
		opts.TokenCounter = usage.TiktokenCounter
	}
	if opts.MaxFlashcardsPerChunk <= 0 {
		opts.MaxFlashcardsPerChunk = 4
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	// only fails on a non-positive size
	cache, _ := lru.New[string, vectorindex.Index](opts.CacheSize)
	return &RAG{
		completer: completer,
		embedder:  embedder,
		opts:      opts,
		cache:     cache,
	}
}

type assignment struct {
	chunk models.Chunk
	quota int
}

// GenerateQuiz generates numQuestions questions from doc. When the document has
// more chunks than questions, the chunks closest to the retrieval query get one
// question each; otherwise questions are distributed over every chunk.
// Any failure discards partial results and is returned as a QuizGeneration error.
func (r *RAG) GenerateQuiz(ctx context.Context, doc *document.Document, numQuestions int, gen *usage.GenerationContext) (models.Quiz, error) {
	start := time.Now()
	strategy := strategyDistribution
	if len(doc.Chunks) > numQuestions {
		strategy = strategyRetrieval
	}

	q, err := r.generateQuiz(ctx, doc, numQuestions, strategy, gen)
	metrics.CaptureGeneration("quiz", strategy, err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Str("run_id", gen.RunID).Str("strategy", strategy).Msg("quiz generation failed")
		return models.Quiz{}, apperr.QuizGeneration(err)
	}
	log.Info().
		Str("run_id", gen.RunID).
		Str("strategy", strategy).
		Int("chunks", len(doc.Chunks)).
		Int("questions", len(q.Questions)).
		Dur("elapsed", time.Since(start)).
		Msg("quiz generated")
	return q, nil
}

func (r *RAG) generateQuiz(ctx context.Context, doc *document.Document, numQuestions int, strategy string, gen *usage.GenerationContext) (models.Quiz, error) {
	if numQuestions <= 0 {
		return models.Quiz{}, fmt.Errorf("number of questions must be positive, got %d", numQuestions)
	}
	if len(doc.Chunks) == 0 {
		return models.Quiz{}, fmt.Errorf("document has no content to generate questions from")
	}

	var plan []assignment
	if strategy == strategyRetrieval {
		idx, err := r.index(ctx, doc, gen)
		if err != nil {
			return models.Quiz{}, err
		}
		selected, err := idx.Query(ctx, models.RetrievalQuery, numQuestions)
		if err != nil {
			return models.Quiz{}, fmt.Errorf("failed to retrieve relevant chunks: %w", err)
		}
		for _, c := range selected {
			plan = append(plan, assignment{chunk: c, quota: 1})
		}
		gen.Update(func(g *usage.GenerationContext) { g.UsedRetrieval = true })
	} else {
		for i, n := range Distribute(len(doc.Chunks), numQuestions) {
			if n > 0 {
				plan = append(plan, assignment{chunk: doc.Chunks[i], quota: n})
			}
		}
	}

	parts := make([]models.Quiz, 0, len(plan))
	for _, a := range plan {
		part, err := r.generateQuestions(ctx, a.chunk, a.quota, gen)
		if err != nil {
			return models.Quiz{}, err
		}
		parts = append(parts, part)
	}

	merged := quiz.Merge(parts)
	gen.Update(func(g *usage.GenerationContext) { g.NumQuestions = len(merged.Questions) })
	return merged, nil
}

func (r *RAG) generateQuestions(ctx context.Context, chunk models.Chunk, n int, gen *usage.GenerationContext) (models.Quiz, error) {
	prompt, err := questionPrompt.Format(map[string]any{"num_questions": n, "content": chunk.Text})
	if err != nil {
		return models.Quiz{}, fmt.Errorf("failed to format question prompt: %w", err)
	}

	out, raw, err := llmservice.CompleteInto[models.GeneratedQuiz](ctx, r.completer, prompt, quizSchema)
	r.trackCompletion(gen, prompt, raw, err)
	if err != nil {
		return models.Quiz{}, fmt.Errorf("failed to generate questions for chunk %d: %w", chunk.Index, err)
	}

	q := out.ToQuiz()
	if len(q.Questions) > n {
		q.Questions = q.Questions[:n]
	} else if len(q.Questions) < n {
		log.Warn().Int("chunk", chunk.Index).Int("requested", n).Int("got", len(q.Questions)).Msg("model returned fewer questions than requested")
	}
	return q, nil
}

// GenerateFlashcards asks for up to MaxFlashcardsPerChunk cards from every chunk, in order.
func (r *RAG) GenerateFlashcards(ctx context.Context, doc *document.Document, gen *usage.GenerationContext) (models.FlashcardSet, error) {
	start := time.Now()
	set, err := r.generateFlashcards(ctx, doc, gen)
	metrics.CaptureGeneration("flashcards", strategyPerChunk, err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Str("run_id", gen.RunID).Msg("flashcards generation failed")
		return models.FlashcardSet{}, apperr.FlashcardsGeneration(err)
	}
	log.Info().
		Str("run_id", gen.RunID).
		Int("chunks", len(doc.Chunks)).
		Int("flashcards", len(set.Flashcards)).
		Dur("elapsed", time.Since(start)).
		Msg("flashcards generated")
	return set, nil
}

func (r *RAG) generateFlashcards(ctx context.Context, doc *document.Document, gen *usage.GenerationContext) (models.FlashcardSet, error) {
	if len(doc.Chunks) == 0 {
		return models.FlashcardSet{}, fmt.Errorf("document has no content to generate flashcards from")
	}

	parts := make([]models.FlashcardSet, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		prompt, err := flashcardsPrompt.Format(map[string]any{"max_flashcards": r.opts.MaxFlashcardsPerChunk, "content": c.Text})
		if err != nil {
			return models.FlashcardSet{}, fmt.Errorf("failed to format flashcards prompt: %w", err)
		}

		out, raw, err := llmservice.CompleteInto[models.GeneratedFlashcards](ctx, r.completer, prompt, flashcardsSchema)
		r.trackCompletion(gen, prompt, raw, err)
		if err != nil {
			return models.FlashcardSet{}, fmt.Errorf("failed to generate flashcards for chunk %d: %w", c.Index, err)
		}

		cards := out.Flashcards
		if len(cards) > r.opts.MaxFlashcardsPerChunk {
			cards = cards[:r.opts.MaxFlashcardsPerChunk]
		}
		parts = append(parts, models.FlashcardSet{Flashcards: cards})
	}

	merged := quiz.MergeFlashcards(parts)
	gen.Update(func(g *usage.GenerationContext) { g.NumFlashcards = len(merged.Flashcards) })
	return merged, nil
}

// trackCompletion counts tokens of a call that reached the model, including
// answers that carried no structured output.
func (r *RAG) trackCompletion(gen *usage.GenerationContext, prompt string, raw []byte, err error) {
	if raw == nil && !errors.Is(err, llmservice.ErrNoStructuredOutput) {
		return
	}
	model := string(gen.LLMModel)
	promptTokens := r.opts.TokenCounter(model, prompt)
	responseTokens := r.opts.TokenCounter(model, string(raw))
	gen.AddCompletion(promptTokens, responseTokens)
	metrics.AddTokens("prompt", promptTokens)
	metrics.AddTokens("response", responseTokens)
}

// index returns the vector index for doc. A snapshot for the same document is
// reused when one exists; otherwise the index is built and, when snapshots are
// enabled, persisted. A snapshot that fails to load is rebuilt.
func (r *RAG) index(ctx context.Context, doc *document.Document, gen *usage.GenerationContext) (vectorindex.Index, error) {
	tracked := embedding.NewTracking(r.embedder, gen, r.opts.TokenCounter)

	path := r.snapshotPath(doc, gen)
	if path == "" {
		return r.buildIndex(ctx, doc, tracked)
	}

	if idx, ok := r.cache.Get(path); ok {
		log.Debug().Str("path", path).Msg("reusing cached vector index")
		return idx.WithEmbedder(tracked), nil
	}

	v, err, _ := r.flight.Do(path, func() (any, error) {
		if idx, ok := r.cache.Get(path); ok {
			return idx, nil
		}
		idx, err := r.loadOrBuild(ctx, path, doc, tracked)
		if err != nil {
			return nil, err
		}
		r.cache.Add(path, idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	// callers that joined another request's build query with their own embedder
	return v.(vectorindex.Index).WithEmbedder(tracked), nil
}

func (r *RAG) loadOrBuild(ctx context.Context, path string, doc *document.Document, embedder embeddings.Embedder) (vectorindex.Index, error) {
	if vectorindex.SnapshotExists(path, r.opts.Index) {
		idx, err := vectorindex.Load(ctx, path, embedder, r.opts.Index)
		if err == nil {
			return idx, nil
		}
		log.Warn().Err(err).Str("path", path).Msg("failed to load vector index snapshot, rebuilding")
	}

	idx, err := r.buildIndex(ctx, doc, embedder)
	if err != nil {
		return nil, err
	}
	if err := idx.Persist(path); err != nil {
		return nil, fmt.Errorf("failed to persist vector index: %w", err)
	}
	return idx, nil
}

func (r *RAG) buildIndex(ctx context.Context, doc *document.Document, embedder embeddings.Embedder) (vectorindex.Index, error) {
	log.Info().Int("chunks", len(doc.Chunks)).Msg("creating embeddings from extracted chunks")
	idx, err := vectorindex.Create(ctx, embedder, r.opts.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	if err := idx.AddChunks(ctx, doc.Chunks); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	return idx, nil
}

// snapshotPath names the snapshot directory of doc under SnapshotRoot. The name
// hashes the embedding model, backend and chunks so different documents never
// share a snapshot.
func (r *RAG) snapshotPath(doc *document.Document, gen *usage.GenerationContext) string {
	if r.opts.SnapshotRoot == "" {
		return ""
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00", gen.EmbeddingModel, r.opts.Index.Backend, doc.ChunkSize, doc.ChunkOverlap)
	for _, c := range doc.Chunks {
		h.Write([]byte(c.Text))
		h.Write([]byte{0})
	}
	return filepath.Join(r.opts.SnapshotRoot, hex.EncodeToString(h.Sum(nil))[:16])
}
