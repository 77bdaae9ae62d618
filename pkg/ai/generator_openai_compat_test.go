package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateText(t *testing.T) {
	var gotAuth string
	var gotReq oaiChatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  refined text  "}},
			},
		})
	}))
	defer ts.Close()

	gen := NewOpenAICompatGenerator(ts.URL+"/v1", "sk-test", "test-model", 500, 0.7, time.Second)
	out, err := gen.GenerateText(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "refined text" {
		t.Fatalf("out = %q, want trimmed reply", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 500 || gotReq.Temperature != 0.7 {
		t.Fatalf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
}

func TestGenerateTextAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer ts.Close()

	gen := NewOpenAICompatGenerator(ts.URL+"/v1", "", "test-model", 0, 0, time.Second)
	if _, err := gen.GenerateText(context.Background(), "", "user prompt"); err == nil {
		t.Fatalf("expected error from provider")
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer ts.Close()

	gen := NewOpenAICompatGenerator(ts.URL+"/v1", "", "test-model", 0, 0, time.Second)
	if _, err := gen.GenerateText(context.Background(), "", "user prompt"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestGenerateTextRequiresModel(t *testing.T) {
	gen := NewOpenAICompatGenerator("http://localhost", "", "", 0, 0, time.Second)
	if _, err := gen.GenerateText(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
