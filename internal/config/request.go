package config

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"quiz-rag/internal/apperr"
)

// Request is the body of a generation request. Every recognised field is
// listed here; numeric fields accept a JSON number or a numeric string.
type Request struct {
	TextContent        string      `json:"text_content,omitempty"`
	MarkdownContent    string      `json:"markdown_content,omitempty"`
	WebURL             string      `json:"web_url,omitempty"`
	PDFFile            string      `json:"pdf_file,omitempty"`
	DocxFile           string      `json:"docx_file,omitempty"`
	XlsxFile           string      `json:"xlsx_file,omitempty"`
	YoutubeURL         string      `json:"youtube_url,omitempty"`
	VideoFile          string      `json:"video_file,omitempty"`
	NumQuestions       json.Number `json:"num_questions,omitempty"`
	GenerateFlashcards bool        `json:"generate_flashcards,omitempty"`
	ChunkSize          json.Number `json:"chunk_size,omitempty"`
	ChunkOverlap       json.Number `json:"chunk_overlap,omitempty"`
}

// Source names, in the order their content is chunked.
const (
	SourceText     = "text_content"
	SourceMarkdown = "markdown_content"
	SourceWeb      = "web_url"
	SourcePDF      = "pdf_file"
	SourceDocx     = "docx_file"
	SourceXlsx     = "xlsx_file"
	SourceYoutube  = "youtube_url"
	SourceVideo    = "video_file"
)

// Source is one content source of a request. Data holds decoded bytes for
// file sources and the raw value otherwise.
type Source struct {
	Name string
	Data []byte
}

// Settings is a validated request.
type Settings struct {
	Sources            []Source
	NumQuestions       int
	GenerateFlashcards bool
	ChunkSize          int
	ChunkOverlap       int
}

// SourceNames joins the source names for reporting.
func (s Settings) SourceNames() string {
	names := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		names[i] = src.Name
	}
	return strings.Join(names, ",")
}

// Validate checks the request before any model is called.
func (r Request) Validate(cfg *Config) (Settings, error) {
	s := Settings{
		GenerateFlashcards: r.GenerateFlashcards,
		ChunkSize:          cfg.RAG.ChunkSize,
		ChunkOverlap:       cfg.RAG.ChunkOverlap,
	}

	if strings.TrimSpace(r.YoutubeURL) != "" {
		return Settings{}, apperr.NotImplemented("youtube_url source")
	}
	if strings.TrimSpace(r.VideoFile) != "" {
		return Settings{}, apperr.NotImplemented("video_file source")
	}

	plain := []struct {
		name, value string
	}{
		{SourceText, r.TextContent},
		{SourceMarkdown, r.MarkdownContent},
		{SourceWeb, r.WebURL},
	}
	for _, p := range plain {
		if strings.TrimSpace(p.value) != "" {
			s.Sources = append(s.Sources, Source{Name: p.name, Data: []byte(p.value)})
		}
	}

	files := []struct {
		name, value string
	}{
		{SourcePDF, r.PDFFile},
		{SourceDocx, r.DocxFile},
		{SourceXlsx, r.XlsxFile},
	}
	for _, f := range files {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(f.value)
		if err != nil {
			return Settings{}, apperr.InvalidInput("%s is not valid base64: %v", f.name, err)
		}
		s.Sources = append(s.Sources, Source{Name: f.name, Data: data})
	}

	if len(s.Sources) == 0 {
		return Settings{}, apperr.InvalidInput("no content source provided")
	}

	var err error
	if r.NumQuestions != "" {
		if s.NumQuestions, err = positiveInt("num_questions", r.NumQuestions); err != nil {
			return Settings{}, err
		}
	} else if !r.GenerateFlashcards {
		return Settings{}, apperr.InvalidInput("num_questions is required")
	}

	if r.ChunkSize != "" {
		if s.ChunkSize, err = positiveInt("chunk_size", r.ChunkSize); err != nil {
			return Settings{}, err
		}
	}
	if r.ChunkOverlap != "" {
		if s.ChunkOverlap, err = nonNegativeInt("chunk_overlap", r.ChunkOverlap); err != nil {
			return Settings{}, err
		}
	}
	if s.ChunkOverlap >= s.ChunkSize {
		return Settings{}, apperr.InvalidInput("chunk_overlap (%d) must be smaller than chunk_size (%d)", s.ChunkOverlap, s.ChunkSize)
	}
	return s, nil
}

func positiveInt(field string, n json.Number) (int, error) {
	v, err := parseInt(field, n)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, apperr.InvalidInput("%s must be positive, got %d", field, v)
	}
	return v, nil
}

// overlap may be zero, like in the base config
func nonNegativeInt(field string, n json.Number) (int, error) {
	v, err := parseInt(field, n)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, apperr.InvalidInput("%s must not be negative, got %d", field, v)
	}
	return v, nil
}

func parseInt(field string, n json.Number) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(n.String()))
	if err != nil {
		return 0, apperr.InvalidInput("%s must be an integer, got %q", field, n.String())
	}
	return v, nil
}
