package api

import (
	"time"

	"github.com/voxgate/server/domain/entities"
)

// IntentRequest is a command-generation request: the spoken/typed command
// plus optional world-state context forwarded to the model for grounding.
type IntentRequest struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

// IntentResponse carries the validated intent and where it came from.
type IntentResponse struct {
	Intent entities.Intent `json:"intent"`
	Source string          `json:"source"`
}

// TokenRequest asks for a streaming token using the pre-shared gateway secret.
type TokenRequest struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

// TokenResponse carries a signed streaming token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse reports strict-mode schema failures field by field.
type ValidationErrorResponse struct {
	Error  string                `json:"error"`
	Fields []entities.FieldError `json:"fields"`
}
