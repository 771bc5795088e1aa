package usage

import (
	"errors"
	"fmt"
)

var ErrUnknownModel = errors.New("unknown model")

// Model is a model identifier that has a known price.
type Model string

const (
	GPT4oMini           Model = "gpt-4o-mini"
	GPT4o               Model = "gpt-4o"
	GPT41Mini           Model = "gpt-4.1-mini"
	GPT41Nano           Model = "gpt-4.1-nano"
	TextEmbedding3Small Model = "text-embedding-3-small"
	TextEmbedding3Large Model = "text-embedding-3-large"
	TextEmbeddingAda002 Model = "text-embedding-ada-002"
	// local models served through ollama cost nothing
	Llama31         Model = "llama3.1"
	NomicEmbedText  Model = "nomic-embed-text"
	MxbaiEmbedLarge Model = "mxbai-embed-large"
)

// Price is expressed in dollars per million tokens.
type Price struct {
	Input  float64
	Output float64
}

var priceTable = map[Model]Price{
	GPT4oMini:           {Input: 0.15, Output: 0.60},
	GPT4o:               {Input: 2.50, Output: 10.00},
	GPT41Mini:           {Input: 0.40, Output: 1.60},
	GPT41Nano:           {Input: 0.10, Output: 0.40},
	TextEmbedding3Small: {Input: 0.02},
	TextEmbedding3Large: {Input: 0.13},
	TextEmbeddingAda002: {Input: 0.10},
	Llama31:             {},
	NomicEmbedText:      {},
	MxbaiEmbedLarge:     {},
}

// ParseModel returns the model id for name, or ErrUnknownModel.
func ParseModel(name string) (Model, error) {
	m := Model(name)
	if _, ok := priceTable[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// PriceOf looks up the price of m.
func PriceOf(m Model) (Price, error) {
	p, ok := priceTable[m]
	if !ok {
		return Price{}, fmt.Errorf("%w: %q", ErrUnknownModel, string(m))
	}
	return p, nil
}

func tokenCost(tokens int64, perMillion float64) float64 {
	return float64(tokens) * perMillion / 1_000_000
}
