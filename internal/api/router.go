package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"quiz-rag/internal/config"
)

// NewRouter wires the quiz endpoint behind CORS and the per-IP limiter.
func NewRouter(cfg *config.Config, generator Generator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.Server.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Server.RateLimitPerSecond > 0 {
			limiter := NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), cfg.Server.RateLimitBurst)
			r.Use(limiter.Middleware)
		}
		r.Method(http.MethodPost, "/generate-quiz", NewQuizHandler(cfg, generator))
	})

	return r
}
