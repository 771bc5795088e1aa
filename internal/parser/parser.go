package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/config"
)

// TextExtractor turns one content source into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, src config.Source) (string, error)
}

// Parser extracts text from every supported source kind.
type Parser struct {
	web *WebExtractor
}

var _ TextExtractor = (*Parser)(nil)

func NewParser(web *WebExtractor) *Parser {
	if web == nil {
		web = NewWebExtractor(nil)
	}
	return &Parser{web: web}
}

func (p *Parser) Extract(ctx context.Context, src config.Source) (string, error) {
	var (
		text string
		err  error
	)
	switch src.Name {
	case config.SourceText:
		text = string(src.Data)
	case config.SourceMarkdown:
		text, err = ParseMarkdown(src.Data)
	case config.SourceWeb:
		// web failures already carry their kind
		return p.web.Extract(ctx, strings.TrimSpace(string(src.Data)))
	case config.SourcePDF:
		text, err = ParsePDF(src.Data)
	case config.SourceDocx:
		text, err = ParseDOCX(src.Data)
	case config.SourceXlsx:
		text, err = ParseXLSX(src.Data)
	case config.SourceYoutube, config.SourceVideo:
		return "", apperr.NotImplemented(src.Name + " source")
	default:
		return "", apperr.InvalidInput("unsupported content source %q", src.Name)
	}
	if err != nil {
		return "", apperr.DocumentParsing(fmt.Errorf("failed to parse %s: %w", src.Name, err))
	}
	log.Debug().Str("source", src.Name).Int("length", utf8.RuneCountInString(text)).Msg("extracted text")
	return text, nil
}

// ExtractAll extracts every source in order.
func ExtractAll(ctx context.Context, ex TextExtractor, sources []config.Source) ([]string, error) {
	texts := make([]string, 0, len(sources))
	for _, src := range sources {
		text, err := ex.Extract(ctx, src)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// SourceFromFile reads a local file as the source its extension maps to.
func SourceFromFile(path string) (config.Source, error) {
	var name string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		name = config.SourcePDF
	case ".docx":
		name = config.SourceDocx
	case ".xlsx":
		name = config.SourceXlsx
	case ".md", ".markdown":
		name = config.SourceMarkdown
	case ".txt", "":
		name = config.SourceText
	default:
		return config.Source{}, fmt.Errorf("unsupported file format: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config.Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return config.Source{Name: name, Data: data}, nil
}
