package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
	"quiz-rag/internal/rag"
)

// base64 files make requests large
const maxRequestBytes = 64 << 20

// Generator runs one validated generation request.
type Generator interface {
	Generate(ctx context.Context, settings config.Settings) (*rag.Response, error)
}

type errorBody = apperr.Body

type QuizHandler struct {
	cfg       *config.Config
	generator Generator
}

func NewQuizHandler(cfg *config.Config, generator Generator) *QuizHandler {
	return &QuizHandler{cfg: cfg, generator: generator}
}

func (h *QuizHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req config.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, apperr.InvalidInput("Invalid request body: %v", err))
		return
	}

	settings, err := req.Validate(h.cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.generator.Generate(r.Context(), settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperr.Response(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
