package usage

import "github.com/tmc/langchaingo/llms"

// TokenCounter counts the tokens of text under model's tokenizer.
type TokenCounter func(model, text string) int

// TiktokenCounter uses the tiktoken encoding for model. Unknown models fall
// back to the gpt2 encoding.
func TiktokenCounter(model, text string) int {
	return llms.CountTokens(model, text)
}
