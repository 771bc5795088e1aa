package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"quiz-rag/internal/apperr"
	"quiz-rag/internal/models"
)

// paragraph, line, sentence, word, then hard character cut
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Document is the chunked form of one request's source content.
type Document struct {
	Chunks       []models.Chunk
	TotalLength  int
	ChunkSize    int
	ChunkOverlap int
}

// Texts returns the chunk texts in order.
func (d *Document) Texts() []string {
	texts := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		texts[i] = c.Text
	}
	return texts
}

// Split chunks a single text.
func Split(text string, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	doc, err := New([]string{text}, chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return doc.Chunks, nil
}

// New splits every text independently, in order, and numbers the chunks
// sequentially across all of them.
func New(texts []string, chunkSize, chunkOverlap int) (*Document, error) {
	if chunkSize <= 0 {
		return nil, apperr.InvalidInput("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, apperr.InvalidInput("chunk overlap (%d) must be in [0, chunk size %d)", chunkOverlap, chunkSize)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)

	doc := &Document{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
	for i, text := range texts {
		doc.TotalLength += utf8.RuneCountInString(text)

		parts, err := splitter.SplitText(text)
		if err != nil {
			return nil, apperr.DocumentParsing(fmt.Errorf("failed to split text %d: %w", i, err))
		}
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			doc.Chunks = append(doc.Chunks, models.Chunk{Text: p, Index: len(doc.Chunks)})
		}
	}

	log.Debug().
		Int("texts", len(texts)).
		Int("chunks", len(doc.Chunks)).
		Int("chunk_size", chunkSize).
		Int("chunk_overlap", chunkOverlap).
		Msg("document chunked")
	return doc, nil
}
