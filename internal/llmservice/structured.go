package llmservice

import (
	"context"
	"encoding/json"
	"fmt"
)

// Validator is implemented by structured results that validate themselves.
type Validator interface {
	Validate() error
}

// CompleteInto runs a completion and decodes it into T. Transport failures are
// returned as is; undecodable or invalid output wraps ErrMalformedResult.
func CompleteInto[T Validator](ctx context.Context, c Completer, prompt string, schema Schema) (T, json.RawMessage, error) {
	var out T
	raw, err := c.Complete(ctx, prompt, schema)
	if err != nil {
		return out, nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, raw, fmt.Errorf("%w: %s: %v", ErrMalformedResult, schema.Name, err)
	}
	if err := out.Validate(); err != nil {
		return out, raw, fmt.Errorf("%w: %s: %v", ErrMalformedResult, schema.Name, err)
	}
	return out, raw, nil
}
