package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the completion carries no content
var ErrEmptyResponse = errors.New("no content received from openai")

// ErrUnavailable is returned while the circuit breaker is open
var ErrUnavailable = errors.New("completion service unavailable")

// Client is the interface for chat completion clients
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Model() string
}

// ChatMessage represents a chat message
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	// JSONMode asks the model for a single JSON object
	JSONMode bool `json:"json_mode,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	Message      string `json:"message"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

var _ Client = (*OpenAIClient)(nil)
