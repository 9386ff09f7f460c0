package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/voxgate/server/domain/repositories"
)

// GeminiCompleter implements ChatCompleter using Google's Gemini API. It is
// the alternative generation backend; Cerebras is the default.
type GeminiCompleter struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiCompleter creates a Gemini-backed completer.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCompleter{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// Complete sends the conversation and returns the model's reply text.
// Gemini has no system role in content lists, so system messages are carried
// as user turns, mirroring the rest of the conversation order.
func (g *GeminiCompleter) Complete(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == repositories.AssistantRole {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusTooManyRequests {
				return "", repositories.ErrRateLimited
			}
			return "", &repositories.UpstreamError{
				StatusCode: apiErr.Code,
				Body:       apiErr.Message,
			}
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", &repositories.UpstreamError{
			StatusCode: http.StatusOK,
			Body:       "no candidates in response",
		}
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}

	g.logger.Debug("gemini completion succeeded",
		zap.String("model", g.model),
		zap.Int("responseBytes", len(text)))
	return text, nil
}
