package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

const openAIOK = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-test",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "  [{\"line\":1}]  "}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 40, "completion_tokens": 2, "total_tokens": 42}
}`

func TestOpenAI_Review(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openAIOK))
	}))
	defer server.Close()

	o := newOpenAI(OpenAI, "test-key", "gpt-test", option.WithBaseURL(server.URL+"/v1/"))
	resp, err := o.Review(context.Background(), ReviewRequest{SystemPrompt: "sys", UserPrompt: "user"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != `[{"line":1}]` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	o := newOpenAI(OpenAI, "k", "m", option.WithBaseURL(server.URL+"/v1/"))
	if _, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "u"}); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	fastBackoff(t)
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	o := newOpenAI(OpenAI, "k", "m", option.WithBaseURL(server.URL+"/v1/"))
	_, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "u"})
	if err == nil {
		t.Fatal("Expected error after retries")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	o := newOpenAI(OpenAI, "k", "m", option.WithBaseURL(server.URL+"/v1/"))
	_, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "u"})
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestOllama_UsesOpenAICompatibleAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openAIOK))
	}))
	defer server.Close()

	t.Setenv("OLLAMA_HOST", server.URL+"/v1")
	o, err := NewOllama("llama3.1")
	if err != nil {
		t.Fatalf("NewOllama error: %v", err)
	}
	if o.Name() != "ollama" {
		t.Errorf("Name() = %q, want ollama", o.Name())
	}
	if _, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "u"}); err != nil {
		t.Fatalf("Review error: %v", err)
	}
}
