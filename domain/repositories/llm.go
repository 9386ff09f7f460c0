package repositories

import (
	"context"
	"errors"
	"fmt"
)

// ChatCompleter abstracts a remote chat-completion model.
type ChatCompleter interface {
	// Complete sends the conversation and returns the model's reply content.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ChatMessage is a single message in a model conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender.
type Role string

const (
	SystemRole    Role = "system"
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// ErrRateLimited marks an upstream rate-limit rejection, distinct from other
// upstream failures so callers can surface it separately.
var ErrRateLimited = errors.New("model rate limit reached")

// UpstreamError is a non-success response from the model endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model API error: %d %s", e.StatusCode, e.Body)
}
