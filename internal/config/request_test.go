package config

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-rag/internal/apperr"
)

func TestRequest_Validate(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name     string
		body     string
		wantKind error
		check    func(t *testing.T, s Settings)
	}{
		{
			name:     "no source",
			body:     `{"num_questions": 3}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "blank source",
			body:     `{"text_content": "   ", "num_questions": 3}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "missing num_questions",
			body:     `{"text_content": "hello"}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "zero num_questions",
			body:     `{"text_content": "hello", "num_questions": 0}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "non integer num_questions",
			body:     `{"text_content": "hello", "num_questions": 2.5}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "overlap not below size",
			body:     `{"text_content": "hello", "num_questions": 1, "chunk_size": 100, "chunk_overlap": 100}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:     "negative overlap",
			body:     `{"text_content": "hello", "num_questions": 1, "chunk_overlap": -1}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name: "zero overlap",
			body: `{"text_content": "hello", "num_questions": 1, "chunk_overlap": 0}`,
			check: func(t *testing.T, s Settings) {
				assert.Zero(t, s.ChunkOverlap)
				assert.Equal(t, cfg.RAG.ChunkSize, s.ChunkSize)
			},
		},
		{
			name:     "youtube",
			body:     `{"youtube_url": "https://youtu.be/x", "num_questions": 1}`,
			wantKind: apperr.ErrNotImplemented,
		},
		{
			name:     "bad base64",
			body:     `{"pdf_file": "%%%", "num_questions": 1}`,
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name: "string numbers",
			body: `{"text_content": "hello", "num_questions": "4", "chunk_size": "200", "chunk_overlap": "20"}`,
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, 4, s.NumQuestions)
				assert.Equal(t, 200, s.ChunkSize)
				assert.Equal(t, 20, s.ChunkOverlap)
			},
		},
		{
			name: "flashcards only",
			body: `{"text_content": "hello", "generate_flashcards": true}`,
			check: func(t *testing.T, s Settings) {
				assert.Zero(t, s.NumQuestions)
				assert.True(t, s.GenerateFlashcards)
				assert.Equal(t, cfg.RAG.ChunkSize, s.ChunkSize)
			},
		},
		{
			name: "several sources keep order",
			body: `{"pdf_file": "` + base64.StdEncoding.EncodeToString([]byte("%PDF")) + `", "text_content": "hello", "web_url": "https://example.com", "num_questions": 2}`,
			check: func(t *testing.T, s Settings) {
				require.Len(t, s.Sources, 3)
				assert.Equal(t, "text_content,web_url,pdf_file", s.SourceNames())
				assert.Equal(t, []byte("%PDF"), s.Sources[2].Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			s, err := req.Validate(cfg)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}
