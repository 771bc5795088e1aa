package llmservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"quiz-rag/internal/config"
	"quiz-rag/internal/metrics"
)

var (
	// ErrNoStructuredOutput means the model answered without filling the schema.
	ErrNoStructuredOutput = errors.New("model returned no structured output")
	// ErrMalformedResult means the structured output did not decode or validate.
	ErrMalformedResult = errors.New("malformed structured output")
)

// Schema names the structured result a completion must produce.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completer turns a prompt into a JSON document matching schema.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error)
}

// NewModel creates the chat model for the configured provider.
func NewModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().Interface("config", map[string]string{
		"provider": llmConfig.Provider,
		"base_url": llmConfig.BaseURL,
		"model":    llmConfig.Model,
	}).Msg("Creating llm")

	switch llmConfig.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		return ollama.New(opts...)
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", llmConfig.Provider)
	}
}

// Client is a Completer backed by a langchaingo model. Tool-calling models are
// forced to call a function whose parameters are the schema; JSON mode models
// get the schema in the prompt instead.
type Client struct {
	model    llms.Model
	jsonMode bool
}

var _ Completer = (*Client)(nil)

func NewClient(model llms.Model, jsonMode bool) *Client {
	return &Client{model: model, jsonMode: jsonMode}
}

// NewClientFromConfig builds the model and picks the structured output mode
// the provider supports.
func NewClientFromConfig(llmConfig *config.LLMConfig) (*Client, error) {
	model, err := NewModel(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	return NewClient(model, llmConfig.Provider == config.ProviderOllama), nil
}

func (c *Client) Complete(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	var opts []llms.CallOption
	if c.jsonMode {
		schemaJSON, err := json.Marshal(schema.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema %s: %w", schema.Name, err)
		}
		prompt = fmt.Sprintf("%s\nRespond only with a JSON object matching this JSON schema:\n%s\n", prompt, schemaJSON)
		opts = append(opts, llms.WithJSONMode())
	} else {
		opts = append(opts,
			llms.WithTools([]llms.Tool{{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        schema.Name,
					Description: schema.Description,
					Parameters:  schema.Parameters,
				},
			}}),
			llms.WithToolChoice(llms.ToolChoice{
				Type:     "function",
				Function: &llms.FunctionReference{Name: schema.Name},
			}),
		)
	}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	metrics.CaptureModelCall("completion", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoStructuredOutput
	}

	choice := resp.Choices[0]
	for _, call := range choice.ToolCalls {
		if call.FunctionCall != nil && call.FunctionCall.Name == schema.Name {
			return json.RawMessage(call.FunctionCall.Arguments), nil
		}
	}
	if raw := extractJSON(choice.Content); raw != nil {
		return raw, nil
	}

	log.Warn().Str("schema", schema.Name).Str("stop_reason", choice.StopReason).Msg("no structured output in response")
	return nil, ErrNoStructuredOutput
}

// extractJSON returns the JSON object in content, dropping markdown fences.
func extractJSON(content string) json.RawMessage {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}
