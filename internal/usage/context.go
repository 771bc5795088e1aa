package usage

import (
	"fmt"
	"sync"
)

// GenerationContext accumulates token usage for one generation run.
// Embedding batches report concurrently, so every mutation is locked.
type GenerationContext struct {
	mu sync.Mutex

	RunID          string
	ContentSource  string
	ContentLength  int
	ChunkSize      int
	ChunkOverlap   int
	NumChunks      int
	LLMModel       Model
	EmbeddingModel Model
	UsedRetrieval  bool
	NumQuestions   int
	NumFlashcards  int

	promptTokens    int64
	responseTokens  int64
	embeddingTokens int64
}

func NewGenerationContext(runID string, llmModel, embeddingModel Model) *GenerationContext {
	return &GenerationContext{
		RunID:          runID,
		LLMModel:       llmModel,
		EmbeddingModel: embeddingModel,
	}
}

func (g *GenerationContext) AddCompletion(promptTokens, responseTokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promptTokens += int64(promptTokens)
	g.responseTokens += int64(responseTokens)
}

func (g *GenerationContext) AddEmbedding(tokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.embeddingTokens += int64(tokens)
}

// Update runs fn under the context lock, for setting descriptive fields.
func (g *GenerationContext) Update(fn func(g *GenerationContext)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

// Tokens returns prompt, response and embedding token counts.
func (g *GenerationContext) Tokens() (prompt, response, embedding int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.promptTokens, g.responseTokens, g.embeddingTokens
}

// Costs is the priced view of a GenerationContext.
type Costs struct {
	Prompt    float64
	Response  float64
	Embedding float64
}

func (c Costs) Total() float64 {
	return c.Prompt + c.Response + c.Embedding
}

// Costs prices the accumulated tokens. Unknown models are an error, never zero.
func (g *GenerationContext) Costs() (Costs, error) {
	llmPrice, err := PriceOf(g.LLMModel)
	if err != nil {
		return Costs{}, err
	}
	embedPrice, err := PriceOf(g.EmbeddingModel)
	if err != nil {
		return Costs{}, err
	}
	prompt, response, embedding := g.Tokens()
	return Costs{
		Prompt:    tokenCost(prompt, llmPrice.Input),
		Response:  tokenCost(response, llmPrice.Output),
		Embedding: tokenCost(embedding, embedPrice.Input),
	}, nil
}

// Report is the JSON form returned to clients as quizContext.
type Report struct {
	RunID           string `json:"runId"`
	ContentSource   string `json:"contentSource"`
	ContentLength   int    `json:"contentLength"`
	ChunkSize       int    `json:"chunkSize"`
	ChunkOverlap    int    `json:"chunkOverlap"`
	NumChunks       int    `json:"numChunks"`
	LLMModel        string `json:"llmModel"`
	EmbeddingModel  string `json:"embeddingModel"`
	UsedRetrieval   bool   `json:"usedRetrieval"`
	NumQuestions    int    `json:"numQuestions"`
	NumFlashcards   int    `json:"numFlashcards"`
	PromptTokens    int64  `json:"promptTokens"`
	ResponseTokens  int64  `json:"responseTokens"`
	EmbeddingTokens int64  `json:"embeddingTokens"`
	PromptCost      string `json:"promptCost"`
	ResponseCost    string `json:"responseCost"`
	EmbeddingCost   string `json:"embeddingCost"`
	TotalCost       string `json:"totalCost"`
}

// Report snapshots the context. It is meant to be read once the run is over.
func (g *GenerationContext) Report() (Report, error) {
	costs, err := g.Costs()
	if err != nil {
		return Report{}, err
	}
	prompt, response, embedding := g.Tokens()

	g.mu.Lock()
	defer g.mu.Unlock()
	return Report{
		RunID:           g.RunID,
		ContentSource:   g.ContentSource,
		ContentLength:   g.ContentLength,
		ChunkSize:       g.ChunkSize,
		ChunkOverlap:    g.ChunkOverlap,
		NumChunks:       g.NumChunks,
		LLMModel:        string(g.LLMModel),
		EmbeddingModel:  string(g.EmbeddingModel),
		UsedRetrieval:   g.UsedRetrieval,
		NumQuestions:    g.NumQuestions,
		NumFlashcards:   g.NumFlashcards,
		PromptTokens:    prompt,
		ResponseTokens:  response,
		EmbeddingTokens: embedding,
		PromptCost:      FormatCost(costs.Prompt),
		ResponseCost:    FormatCost(costs.Response),
		EmbeddingCost:   FormatCost(costs.Embedding),
		TotalCost:       FormatCost(costs.Total()),
	}, nil
}

// FormatCost renders a dollar amount with six decimals.
func FormatCost(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
