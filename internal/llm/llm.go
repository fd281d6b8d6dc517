// Package llm calls a hosted chat-completions model.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer turns a prompt into the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrMissingAPIKey is returned when the configured API key variable is unset.
var ErrMissingAPIKey = errors.New("LLM API key not configured")

// APIError is a non-200 response from the completions endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}
