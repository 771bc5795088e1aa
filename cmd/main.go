package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"quiz-rag/internal/config"
	"quiz-rag/internal/helper"
	"quiz-rag/internal/parser"
	"quiz-rag/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a text, markdown, pdf, docx or xlsx document")
	url := flag.String("url", "", "Web page to generate from")
	text := flag.String("text", "", "Raw text to generate from")
	numQuestions := flag.Int("questions", 5, "Number of quiz questions, 0 for none")
	flashcards := flag.Bool("flashcards", false, "Also generate flashcards")
	indexDir := flag.String("index-dir", "", "Directory for vector index snapshots (overrides config)")
	chunkSize := flag.Int("chunk-size", 0, "Chunk size in characters (overrides config)")
	chunkOverlap := flag.Int("chunk-overlap", -1, "Chunk overlap in characters (overrides config)")
	flag.Parse()

	helper.SetupLogger(os.Stderr, "debug", "console")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if *indexDir != "" {
		cfg.RAG.LocalVectorStorePath = *indexDir
	}
	if *chunkSize > 0 {
		cfg.RAG.ChunkSize = *chunkSize
	}
	if *chunkOverlap >= 0 {
		cfg.RAG.ChunkOverlap = *chunkOverlap
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid settings")
	}

	settings := config.Settings{
		NumQuestions:       *numQuestions,
		GenerateFlashcards: *flashcards,
		ChunkSize:          cfg.RAG.ChunkSize,
		ChunkOverlap:       cfg.RAG.ChunkOverlap,
	}
	if *text != "" {
		settings.Sources = append(settings.Sources, config.Source{Name: config.SourceText, Data: []byte(*text)})
	}
	if *url != "" {
		settings.Sources = append(settings.Sources, config.Source{Name: config.SourceWeb, Data: []byte(*url)})
	}
	if *filePath != "" {
		src, err := parser.SourceFromFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error reading document")
		}
		settings.Sources = append(settings.Sources, src)
	}
	if len(settings.Sources) == 0 {
		log.Fatal().Msg("Please provide a document with -file, a page with -url or content with -text")
	}
	if settings.NumQuestions <= 0 && !settings.GenerateFlashcards {
		log.Fatal().Msg("Nothing to generate: set -questions above 0 or pass -flashcards")
	}

	log.Debug().Interface("config", cfg).Msg("Loaded config")

	svc, err := rag.NewServiceFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := svc.Generate(ctx, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating quiz")
	}
	helper.PrettyPrint(resp)
}
