package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
)

func testConversation() []repositories.ChatMessage {
	return []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: "You translate commands."},
		{Role: repositories.UserRole, Content: "alpha flank left"},
	}
}

func TestCerebrasComplete(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"action":"flank"}`}},
			},
		})
	}))
	defer server.Close()

	client := NewCerebrasClient(server.URL, "test-key", "gpt-oss-120b", zap.NewNop())
	content, err := client.Complete(context.Background(), testConversation())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"action":"flank"}` {
		t.Errorf("content = %q", content)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody.Model != "gpt-oss-120b" || gotBody.Stream {
		t.Errorf("request = %+v", gotBody)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
}

func TestCerebrasRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewCerebrasClient(server.URL, "k", "m", zap.NewNop())
	_, err := client.Complete(context.Background(), testConversation())
	if !errors.Is(err, repositories.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestCerebrasUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewCerebrasClient(server.URL, "k", "m", zap.NewNop())
	_, err := client.Complete(context.Background(), testConversation())

	var upstream *repositories.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", upstream.StatusCode)
	}
	if upstream.Body != "upstream exploded" {
		t.Errorf("body = %q", upstream.Body)
	}
}

func TestCerebrasEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewCerebrasClient(server.URL, "k", "m", zap.NewNop())
	_, err := client.Complete(context.Background(), testConversation())

	var upstream *repositories.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
}
