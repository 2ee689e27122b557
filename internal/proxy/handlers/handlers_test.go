package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexavoss/gravitygate/internal/chat"
	"github.com/lexavoss/gravitygate/internal/upstream"
)

func newTestRelay(t *testing.T, gen *stubGenerator) *Relay {
	t.Helper()
	return NewRelay(testPool(t, 3), &stubTokens{}, &stubResolver{}, gen, 3)
}

func TestOpenAIChatHandler_Success(t *testing.T) {
	gen := &stubGenerator{results: []generateResult{{resp: chat.Response{
		Segments:     []string{"Hello!"},
		InputTokens:  4,
		OutputTokens: 2,
		TotalTokens:  6,
		FinishReason: "stop",
	}}}}
	handler := OpenAIChatHandler(newTestRelay(t, gen))

	body := `{"model":"gemini-3-flash","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "chatcmpl-") {
		t.Errorf("ID prefix mismatch: %q", resp.ID)
	}
	if resp.Object != "chat.completion" || resp.Model != "gemini-3-flash" {
		t.Errorf("Envelope mismatch: object=%q model=%q", resp.Object, resp.Model)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "Hello!" {
		t.Errorf("Choices mismatch: %+v", resp.Choices)
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason mismatch: %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 6 {
		t.Errorf("Usage mismatch: %d", resp.Usage.TotalTokens)
	}
}

func TestOpenAIChatHandler_MissingMessages(t *testing.T) {
	gen := &stubGenerator{}
	handler := OpenAIChatHandler(newTestRelay(t, gen))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"gemini-3-flash"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing messages field") {
		t.Errorf("Error body mismatch: %s", rec.Body.String())
	}
	if len(gen.calls) != 0 {
		t.Errorf("A rejected request must never reach the upstream, got %d calls", len(gen.calls))
	}
}

func TestOpenAIChatHandler_GatewayErrorStatus(t *testing.T) {
	gen := &stubGenerator{results: []generateResult{
		{err: &upstream.StatusError{Code: 429, Body: "x"}},
		{err: &upstream.StatusError{Code: 429, Body: "x"}},
		{err: &upstream.StatusError{Code: 429, Body: "x"}},
	}}
	handler := OpenAIChatHandler(newTestRelay(t, gen))

	body := `{"model":"gemini-3-flash","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 after exhausting the pool, got %d", rec.Code)
	}
	var resp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Type != "api_error" {
		t.Errorf("Error type mismatch: %q", resp.Error.Type)
	}
	if !strings.Contains(resp.Error.Message, "all accounts exhausted") {
		t.Errorf("Error message mismatch: %q", resp.Error.Message)
	}
}

func TestClaudeMessagesHandler_Success(t *testing.T) {
	gen := &stubGenerator{results: []generateResult{{resp: chat.Response{
		Segments:     []string{"Hi there"},
		InputTokens:  3,
		OutputTokens: 2,
		FinishReason: "stop",
	}}}}
	handler := ClaudeMessagesHandler(newTestRelay(t, gen))

	body := `{"model":"claude-sonnet-4-5","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "msg_") || resp.Type != "message" || resp.Role != "assistant" {
		t.Errorf("Envelope mismatch: id=%q type=%q role=%q", resp.ID, resp.Type, resp.Role)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "Hi there" {
		t.Errorf("Content mismatch: %+v", resp.Content)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("stop_reason mismatch: %q", resp.StopReason)
	}
	if resp.Usage.InputTokens != 3 || resp.Usage.OutputTokens != 2 {
		t.Errorf("Usage mismatch: %+v", resp.Usage)
	}
	if gen.calls[0].envelope.Model != "gemini-2.0-flash-exp" {
		t.Errorf("Model translation mismatch: %q", gen.calls[0].envelope.Model)
	}
}

func TestClaudeMessagesHandler_ErrorShape(t *testing.T) {
	gen := &stubGenerator{}
	handler := ClaudeMessagesHandler(newTestRelay(t, gen))

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-sonnet-4-5"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var resp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Type != "error" || resp.Error.Type != "invalid_request_error" {
		t.Errorf("Error shape mismatch: %+v", resp)
	}
}

func TestRequestIDHonorsHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.Header.Set("X-Request-ID", "client-supplied-7")
	if got := requestIDFor(req); got != "client-supplied-7" {
		t.Errorf("Client request id should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	if got := requestIDFor(req); !strings.HasPrefix(got, "agent-") {
		t.Errorf("Generated id prefix mismatch: %q", got)
	}
}

func TestModelsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ModelsHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Object string `json:"object"`
		Data   []struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if resp.Object != "list" || len(resp.Data) == 0 {
		t.Fatalf("Catalog mismatch: %+v", resp)
	}
	ids := map[string]string{}
	for _, m := range resp.Data {
		ids[m.ID] = m.OwnedBy
		if m.Object != "model" {
			t.Errorf("Model object mismatch for %s: %q", m.ID, m.Object)
		}
	}
	if ids["gemini-3-flash"] != "google" {
		t.Errorf("gemini-3-flash owner mismatch: %q", ids["gemini-3-flash"])
	}
	if ids["claude-sonnet-4-5"] != "anthropic" {
		t.Errorf("claude-sonnet-4-5 owner mismatch: %q", ids["claude-sonnet-4-5"])
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler("gravitygate")(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ok" || resp["service"] != "gravitygate" {
		t.Errorf("Health body mismatch: %v", resp)
	}
}

func TestAccountsHandler_NoTokenMaterial(t *testing.T) {
	rec := httptest.NewRecorder()
	AccountsHandler(testPool(t, 2))(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Accounts []map[string]string `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(resp.Accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(resp.Accounts))
	}
	if resp.Accounts[0]["email"] != "a@example.com" {
		t.Errorf("Account email mismatch: %v", resp.Accounts[0])
	}
	body := rec.Body.String()
	for _, secret := range []string{"access_token", "refresh_token", "expires_at"} {
		if strings.Contains(body, secret) {
			t.Errorf("Account listing leaked %s", secret)
		}
	}
}
