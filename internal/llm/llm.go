// Package llm is the boundary to the language model. Callers describe one
// completion with a Request; providers translate it to their wire format.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	ErrMissingAPIKey = errors.New("language model api key is required")
	ErrEmptyResponse = errors.New("language model returned an empty response")
)

type Request struct {
	// Purpose labels the call in metrics and logs, e.g. "sql" or "chart".
	Purpose     string
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type Response struct {
	Text     string
	Model    string
	Provider string
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the client for cfg.Provider. A missing API key is an error so
// that startup fails before any question is accepted.
func New(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI, "groq":
		return NewOpenAI(cfg)
	case ProviderAnthropic:
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unsupported language model provider %q", cfg.Provider)
	}
}
