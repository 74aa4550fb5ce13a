package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicClientComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "SELECT COUNT(*) FROM customers;"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	client, err := NewAnthropic(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}
	resp, err := client.Complete(context.Background(), Request{System: "generate sql", MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "SELECT COUNT(*) FROM customers;" || resp.Provider != ProviderAnthropic {
		t.Fatalf("unexpected response: %+v", resp)
	}

	messages, _ := body["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %v", body["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "user" {
		t.Fatalf("role = %v", first["role"])
	}
	content, _ := first["content"].([]any)
	block, _ := content[0].(map[string]any)
	if block["text"] != "generate sql" {
		t.Fatalf("system-only request should be sent as the user turn, got %v", block["text"])
	}
	if body["max_tokens"] != float64(500) {
		t.Fatalf("max_tokens = %v", body["max_tokens"])
	}
}

func TestAnthropicClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client, err := NewAnthropic(Config{BaseURL: srv.URL + "/v1", APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error")
	}
}
