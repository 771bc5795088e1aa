package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
	"quiz-rag/internal/document"
	"quiz-rag/internal/embedding"
	"quiz-rag/internal/helper"
	"quiz-rag/internal/llmservice"
	"quiz-rag/internal/models"
	"quiz-rag/internal/parser"
	"quiz-rag/internal/quiz"
	"quiz-rag/internal/usage"
	"quiz-rag/internal/vectorindex"
)

// Response is what a generation request returns.
type Response struct {
	QuizName      string             `json:"quizName,omitempty"`
	QuestionCards []models.Question  `json:"questionCards,omitempty"`
	Flashcards    []models.Flashcard `json:"flashcards,omitempty"`
	QuizContext   usage.Report       `json:"quizContext"`
}

// Service runs a whole request: extraction, chunking, generation and assembly.
type Service struct {
	extractor      parser.TextExtractor
	rag            *RAG
	llmModel       usage.Model
	embeddingModel usage.Model
	minTextLength  int
	seed           uint64
}

func NewService(extractor parser.TextExtractor, r *RAG, cfg *config.Config) (*Service, error) {
	llmModel, err := usage.ParseModel(cfg.LLM.Model)
	if err != nil {
		return nil, err
	}
	embeddingModel, err := usage.ParseModel(cfg.EmbedLLM.Model)
	if err != nil {
		return nil, err
	}
	return &Service{
		extractor:      extractor,
		rag:            r,
		llmModel:       llmModel,
		embeddingModel: embeddingModel,
		minTextLength:  cfg.RAG.MinTextLength,
		seed:           cfg.RAG.RandomSeed,
	}, nil
}

// Generate produces a quiz when NumQuestions is positive and flashcards when
// requested. Both share one generation context.
func (s *Service) Generate(ctx context.Context, settings config.Settings) (*Response, error) {
	start := time.Now()

	runID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	gen := usage.NewGenerationContext(runID, s.llmModel, s.embeddingModel)
	logger := log.With().Str("run_id", runID).Logger()

	texts, err := parser.ExtractAll(ctx, s.extractor, settings.Sources)
	if err != nil {
		return nil, err
	}
	length := 0
	for _, t := range texts {
		length += utf8.RuneCountInString(strings.TrimSpace(t))
	}
	if length < s.minTextLength {
		return nil, apperr.InvalidInput("Extracted text is too short: %d characters, need at least %d", length, s.minTextLength)
	}

	doc, err := document.New(texts, settings.ChunkSize, settings.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	gen.Update(func(g *usage.GenerationContext) {
		g.ContentSource = settings.SourceNames()
		g.ContentLength = doc.TotalLength
		g.ChunkSize = doc.ChunkSize
		g.ChunkOverlap = doc.ChunkOverlap
		g.NumChunks = len(doc.Chunks)
	})
	logger.Info().
		Str("sources", settings.SourceNames()).
		Int("length", doc.TotalLength).
		Int("chunks", len(doc.Chunks)).
		Msg("document chunked")

	rnd := quiz.NewRand(s.seed)
	resp := &Response{}

	if settings.NumQuestions > 0 {
		q, err := s.rag.GenerateQuiz(ctx, doc, settings.NumQuestions, gen)
		if err != nil {
			return nil, err
		}
		quiz.Randomize(&q, rnd)
		resp.QuizName = q.Name
		resp.QuestionCards = q.Questions
	}

	if settings.GenerateFlashcards {
		set, err := s.rag.GenerateFlashcards(ctx, doc, gen)
		if err != nil {
			return nil, err
		}
		quiz.RandomizeFlashcards(&set, rnd)
		resp.Flashcards = set.Flashcards
	}

	if resp.QuizContext, err = gen.Report(); err != nil {
		return nil, err
	}
	logger.Info().
		Str("total_cost", resp.QuizContext.TotalCost).
		Dur("elapsed", time.Since(start)).
		Msg("generation finished")
	return resp, nil
}

// NewServiceFromConfig builds the model clients, the orchestrator and the
// extractors described by cfg.
func NewServiceFromConfig(cfg *config.Config) (*Service, error) {
	completer, err := llmservice.NewClientFromConfig(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM, cfg.RAG.EmbeddingBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.RAG.LocalVectorStorePath != "" {
		if err := helper.CreateFolder(cfg.RAG.LocalVectorStorePath); err != nil {
			return nil, fmt.Errorf("failed to create vector store folder: %w", err)
		}
	}

	r := NewRAG(completer, embedder, Options{
		Index:                 vectorindex.OptionsFromConfig(cfg.RAG),
		SnapshotRoot:          cfg.RAG.LocalVectorStorePath,
		MaxFlashcardsPerChunk: cfg.RAG.MaxFlashcardsPerChunk,
		CacheSize:             cfg.RAG.IndexCacheSize,
	})
	return NewService(parser.NewParser(nil), r, cfg)
}
