package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatCompletionHandler(t *testing.T, wantPath string, check func(r *http.Request, body map[string]any)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if check != nil {
			check(r, body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   body["model"],
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "Overall verdict: PASS"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     10,
				"completion_tokens": 5,
				"total_tokens":      15,
			},
		})
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "/v1/chat/completions", func(r *http.Request, body map[string]any) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v, want gpt-4o", body["model"])
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 2 {
			t.Fatalf("messages = %d, want 2 (system + user)", len(msgs))
		}
		first, _ := msgs[0].(map[string]any)
		if first["role"] != "system" || first["content"] != "be strict" {
			t.Errorf("messages[0] = %v, want system prompt", first)
		}
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider("test-key", WithBaseURL(server.URL+"/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System:   "be strict",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Model:    "gpt-4o",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Overall verdict: PASS" {
		t.Errorf("content = %q, want verdict", resp.Content)
	}
	if resp.InputTokens != 10 {
		t.Errorf("input_tokens = %d, want 10", resp.InputTokens)
	}
	if resp.OutputTokens != 5 {
		t.Errorf("output_tokens = %d, want 5", resp.OutputTokens)
	}
}

func TestOpenAIProvider_DefaultModel(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "/chat/completions", func(_ *http.Request, body map[string]any) {
		if body["model"] != "deepseek-chat" {
			t.Errorf("model = %v, want deepseek-chat", body["model"])
		}
	}))
	defer server.Close()

	provider, err := NewDeepSeekProvider("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewDeepSeekProvider() error = %v", err)
	}

	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestOpenRouterProvider_Headers(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "/chat/completions", func(r *http.Request, _ map[string]any) {
		if r.Header.Get("X-Title") == "" {
			t.Error("X-Title header missing")
		}
		if r.Header.Get("HTTP-Referer") == "" {
			t.Error("HTTP-Referer header missing")
		}
	}))
	defer server.Close()

	provider, err := NewOpenRouterProvider("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewOpenRouterProvider() error = %v", err)
	}

	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("Complete() error = %v, want ErrRateLimit", err)
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error": {"message": "upstream down", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	var un *ErrUnavailable
	if !errors.As(err, &un) {
		t.Fatalf("Complete() error = %v, want ErrUnavailable", err)
	}
	if un.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", un.Status)
	}
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(""); err == nil {
		t.Fatal("NewOpenAIProvider() should fail without an API key")
	}
}

func TestOpenAIProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "list", "data": []}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
