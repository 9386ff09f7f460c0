package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
)

const defaultTimeout = 30 * time.Second

// CerebrasClient talks to the Cerebras OpenAI-compatible chat-completions
// endpoint. Temperature is kept low because the caller parses the reply as
// strict JSON.
type CerebrasClient struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewCerebrasClient creates a completer for the given model.
func NewCerebrasClient(baseURL, apiKey, model string, logger *zap.Logger) *CerebrasClient {
	return &CerebrasClient{
		client:      &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: 0.2,
		logger:      logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the assistant's content.
// A 429 maps to repositories.ErrRateLimited; any other non-2xx status maps to
// a repositories.UpstreamError carrying status and body.
func (c *CerebrasClient) Complete(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: c.temperature,
		Stream:      false,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat completion response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", repositories.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &repositories.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", &repositories.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       "no choices in response",
		}
	}

	c.logger.Debug("chat completion succeeded",
		zap.String("model", c.model),
		zap.Int("responseBytes", len(parsed.Choices[0].Message.Content)))
	return parsed.Choices[0].Message.Content, nil
}
