package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
	"quiz-rag/internal/models"
	"quiz-rag/internal/rag"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, settings config.Settings) (*rag.Response, error) {
	args := m.Called(ctx, settings)
	resp, _ := args.Get(0).(*rag.Response)
	return resp, args.Error(1)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.RateLimitPerSecond = 0
	return cfg
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate-quiz", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Body {
	t.Helper()
	var body apperr.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGenerateQuiz_OK(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(s config.Settings) bool {
		return s.NumQuestions == 3 && len(s.Sources) == 1 && s.Sources[0].Name == config.SourceText
	})).Return(&rag.Response{
		QuizName: "Volcanoes",
		QuestionCards: []models.Question{
			{Text: "What rises?", Choices: []string{"magma", "ice"}, CorrectChoiceIndex: 0, Explanation: "heat"},
		},
	}, nil)

	w := post(t, NewRouter(testConfig(), gen), `{"text_content":"volcanoes erupt","num_questions":3}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Volcanoes", got["quizName"])
	cards := got["questionCards"].([]any)
	require.Len(t, cards, 1)
	card := cards[0].(map[string]any)
	assert.Equal(t, "What rises?", card["questionText"])
	assert.EqualValues(t, 0, card["questionAnswerIndex"])
	assert.Contains(t, got, "quizContext")
	gen.AssertExpectations(t)
}

func TestGenerateQuiz_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		genErr   error
		wantCode int
		wantKind apperr.Kind
	}{
		{"malformed json", `{"text_content":`, nil, http.StatusBadRequest, apperr.KindInvalidInput},
		{"no source", `{"num_questions":3}`, nil, http.StatusBadRequest, apperr.KindInvalidInput},
		{"youtube", `{"youtube_url":"https://youtu.be/x","num_questions":3}`, nil, http.StatusPaymentRequired, apperr.KindNotImplemented},
		{"generation failed", `{"text_content":"abc","num_questions":1}`, apperr.QuizGeneration(errors.New("model down")), http.StatusUnauthorized, apperr.KindQuizGeneration},
		{"web page", `{"web_url":"https://example.com","num_questions":1}`, apperr.WebPage("Failed to extract web content with status code 404"), http.StatusForbidden, apperr.KindWebPage},
		{"unexpected", `{"text_content":"abc","num_questions":1}`, errors.New("disk full"), http.StatusInternalServerError, apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			if tt.genErr != nil {
				gen.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.genErr)
			}

			w := post(t, NewRouter(testConfig(), gen), tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, string(tt.wantKind), body.Error)
			assert.Equal(t, tt.wantCode, body.StatusCode)
			if tt.genErr == nil {
				gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := NewRouter(testConfig(), &mockGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/generate-quiz", nil)
	req.Header.Set("Origin", "http://quiztonic.app")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://quiztonic.app", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitPerSecond = 0.001
	cfg.Server.RateLimitBurst = 2

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(&rag.Response{}, nil)
	h := NewRouter(cfg, gen)

	body := `{"text_content":"abc","num_questions":1}`
	assert.Equal(t, http.StatusOK, post(t, h, body).Code)
	assert.Equal(t, http.StatusOK, post(t, h, body).Code)

	w := post(t, h, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusTooManyRequests, decodeError(t, w).StatusCode)
	gen.AssertNumberOfCalls(t, "Generate", 2)

	// health checks are not limited
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiter_SeparatesClients(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.False(t, l.GetLimiter("10.0.0.1").Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(testConfig(), &mockGenerator{})
	post(t, h, `{}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz_rag_http_requests_total")
}

func TestIPRateLimiter_ForgetsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.GetLimiter("10.0.0.1")
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	now = now.Add(limiterIdleTTL / 2)
	l.GetLimiter("10.0.0.2")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	l.GetLimiter("10.0.0.3")
	assert.Equal(t, 2, l.Len(), "10.0.0.1 was idle past the ttl")

	// a forgotten client starts with a fresh burst
	now = now.Add(2 * limiterIdleTTL)
	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.Equal(t, 1, l.Len())
}
