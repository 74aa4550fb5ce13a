package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gsk-test" {
			t.Fatalf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama-3.1-8b-instant","choices":[{"message":{"content":"  SELECT 1;\n"}}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI(Config{BaseURL: srv.URL + "/", APIKey: "gsk-test"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	resp, err := client.Complete(context.Background(), Request{
		System:      "act as a MySQL generator",
		Temperature: 0,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "SELECT 1;" || resp.Provider != ProviderOpenAI || resp.Model != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.MaxTokens != 500 || got.Temperature != 0 {
		t.Fatalf("unexpected sampling: max_tokens=%d temperature=%v", got.MaxTokens, got.Temperature)
	}
}

func TestOpenAIClientSendsSystemAndUserTurns(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", Model: "custom"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{System: "s", Prompt: "p", Model: "override"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Model != "override" || len(got.Messages) != 2 || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `{"error":"rate limited"}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"})
			if err != nil {
				t.Fatalf("NewOpenAI() error = %v", err)
			}
			if _, err := client.Complete(context.Background(), Request{Prompt: "q"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	for _, provider := range []string{"", "openai", "anthropic"} {
		_, err := New(Config{Provider: provider, BaseURL: "https://api.groq.com/openai"})
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("New(%q) error = %v, want ErrMissingAPIKey", provider, err)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "palm", APIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "palm") {
		t.Fatalf("New() error = %v", err)
	}
}

func TestWithMetricsPassesThrough(t *testing.T) {
	inner := ClientFunc(func(_ context.Context, req Request) (Response, error) {
		return Response{Text: req.Prompt + "!"}, nil
	})
	resp, err := WithMetrics(inner, ProviderOpenAI).Complete(context.Background(), Request{Purpose: "sql", Prompt: "hi"})
	if err != nil || resp.Text != "hi!" {
		t.Fatalf("Complete() = %+v, %v", resp, err)
	}
}
