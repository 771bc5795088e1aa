// Package testutil holds deterministic test doubles for the model collaborators.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrEmbed = errors.New("fake embedder failure")

// Embedder returns hash-seeded vectors, or fixed ones from Vectors when the
// text is listed there.
type Embedder struct {
	Dim     int
	Vectors map[string][]float32
	// FailOn makes any batch containing this text fail.
	FailOn string

	mu        sync.Mutex
	Embedded  []string
	docCalls  atomic.Int64
	queryCall atomic.Int64
}

func NewEmbedder(dim int) *Embedder {
	return &Embedder{Dim: dim, Vectors: map[string][]float32{}}
}

func (e *Embedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.docCalls.Add(1)
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if e.FailOn != "" && t == e.FailOn {
			return nil, ErrEmbed
		}
		out = append(out, e.vector(t))
	}
	e.mu.Lock()
	e.Embedded = append(e.Embedded, texts...)
	e.mu.Unlock()
	return out, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.queryCall.Add(1)
	if e.FailOn != "" && text == e.FailOn {
		return nil, ErrEmbed
	}
	return e.vector(text), nil
}

// DocumentCalls is the number of EmbedDocuments calls so far.
func (e *Embedder) DocumentCalls() int { return int(e.docCalls.Load()) }

// QueryCalls is the number of EmbedQuery calls so far.
func (e *Embedder) QueryCalls() int { return int(e.queryCall.Load()) }

func (e *Embedder) vector(text string) []float32 {
	if v, ok := e.Vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	vec := make([]float32, e.Dim)
	seed := []byte(text)
	for i := range vec {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return vec
}
