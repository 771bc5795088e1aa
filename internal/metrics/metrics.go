package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quiz_rag_http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var generationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quiz_rag_generation_runs_total",
	Help: "Generation runs labelled by kind (quiz, flashcards), strategy and outcome",
}, []string{"kind", "strategy", "outcome"})

var generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "quiz_rag_generation_duration_seconds",
	Help:    "Time spent in one generation run.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"kind"})

var modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "quiz_rag_model_call_duration_seconds",
	Help:    "Latency of completion and embedding calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"call"})

var tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quiz_rag_tokens_total",
	Help: "Tokens sent to or received from models, by kind (prompt, response, embedding)",
}, []string{"kind"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func CaptureGeneration(kind, strategy string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	generationRuns.WithLabelValues(kind, strategy, outcome).Inc()
	generationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func CaptureModelCall(call string, elapsed time.Duration) {
	modelLatency.WithLabelValues(call).Observe(elapsed.Seconds())
}

func AddTokens(kind string, n int) {
	tokensTotal.WithLabelValues(kind).Add(float64(n))
}
