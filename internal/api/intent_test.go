package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/config"
	"github.com/voxgate/server/usecase"
)

type stubCompleter struct {
	replies []string
	err     error
	calls   int
}

func (s *stubCompleter) Complete(context.Context, []repositories.ChatMessage) (string, error) {
	n := s.calls
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if n >= len(s.replies) {
		n = len(s.replies) - 1
	}
	return s.replies[n], nil
}

func postIntentRequest(t *testing.T, completer repositories.ChatCompleter, validation, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	deps := Deps{
		Generator: usecase.NewGenerator(completer, true, zap.NewNop()),
		Config:    &config.Config{IntentValidation: validation},
		Logger:    zap.NewNop(),
	}
	return rec, postIntent(c, deps)
}

func TestPostIntentSuccess(t *testing.T) {
	completer := &stubCompleter{replies: []string{
		`{"targets":["alpha"],"action":"flank","formation":"wedge","direction":"left","speed":5}`,
	}}

	rec, err := postIntentRequest(t, completer, "permissive", `{"text":"alpha flank left"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Intent map[string]any `json:"intent"`
		Source string         `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "llm" {
		t.Errorf("source = %q, want llm", resp.Source)
	}
	if resp.Intent["action"] != "flank" {
		t.Errorf("intent = %v", resp.Intent)
	}
}

func TestPostIntentMissingText(t *testing.T) {
	rec, err := postIntentRequest(t, &stubCompleter{}, "permissive", `{}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostIntentPermissiveFallback(t *testing.T) {
	// Parseable JSON that fails command decoding: speed as a string. Two
	// identical replies so the repair attempt sees the same bad output.
	completer := &stubCompleter{replies: []string{`{"speed":"fast"}`}}

	rec, err := postIntentRequest(t, completer, "permissive", `{"text":"go fast"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 in permissive mode", rec.Code)
	}

	var resp struct {
		Intent map[string]any `json:"intent"`
		Source string         `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "fallback" {
		t.Errorf("source = %q, want fallback", resp.Source)
	}
	if len(resp.Intent) != 0 {
		t.Errorf("fallback intent = %v, want the empty command", resp.Intent)
	}
}

func TestPostIntentStrictValidation(t *testing.T) {
	completer := &stubCompleter{replies: []string{
		`{"targets":["alpha"],"action":"dance","formation":"wedge","direction":"left","speed":5}`,
	}}

	rec, err := postIntentRequest(t, completer, "strict", `{"text":"alpha dance"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Errorf("error = %q", resp.Error)
	}
	if len(resp.Fields) == 0 || resp.Fields[0].Field != "action" {
		t.Errorf("fields = %v, want an action error", resp.Fields)
	}
}

func TestPostIntentStrictDecodeFailure(t *testing.T) {
	completer := &stubCompleter{replies: []string{`{"speed":"fast"}`}}

	rec, err := postIntentRequest(t, completer, "strict", `{"text":"go fast"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "speed") {
		t.Errorf("body %s does not name the bad field", rec.Body)
	}
}

func TestPostIntentGenerationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"rate limited", repositories.ErrRateLimited, http.StatusServiceUnavailable, "rate_limited"},
		{"upstream failure", &repositories.UpstreamError{StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "upstream_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := postIntentRequest(t, &stubCompleter{err: tt.err}, "permissive", `{"text":"hold"}`)
			if err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestPostIntentRepairFailure(t *testing.T) {
	completer := &stubCompleter{replies: []string{"nonsense", "more nonsense"}}

	rec, err := postIntentRequest(t, completer, "permissive", `{"text":"hold"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if completer.calls != 2 {
		t.Errorf("made %d model calls, want 2", completer.calls)
	}
}
