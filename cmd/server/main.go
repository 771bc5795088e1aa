package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"quiz-rag/internal/api"
	"quiz-rag/internal/config"
	"quiz-rag/internal/helper"
	"quiz-rag/internal/rag"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	flag.Parse()

	helper.SetupLogger(os.Stdout, "info", "console")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	svc, err := rag.NewServiceFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation service")
	}

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      api.NewRouter(cfg, svc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", cfg.Server.ListenAddr).
			Str("llm", cfg.LLM.Model).
			Str("embedding", cfg.EmbedLLM.Model).
			Str("index_backend", cfg.RAG.IndexBackend).
			Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
