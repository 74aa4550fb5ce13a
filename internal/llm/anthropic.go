package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropic(cfg Config) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(&http.Client{Timeout: timeout})}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, anthropic.WithBaseURL(base))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(strings.TrimSpace(cfg.APIKey), opts...),
		model:  model,
	}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := c.model
	if strings.TrimSpace(req.Model) != "" {
		model = strings.TrimSpace(req.Model)
	}

	// The messages API needs at least one user turn; a system-only request
	// is sent as the user message instead.
	system, prompt := req.System, req.Prompt
	if prompt == "" {
		system, prompt = "", req.System
	}
	if prompt == "" {
		return Response{}, fmt.Errorf("prompt is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := float32(req.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("create message: %w", err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text = strings.TrimSpace(*block.Text)
			break
		}
	}
	if text == "" {
		return Response{}, ErrEmptyResponse
	}
	if resp.Model != "" {
		model = string(resp.Model)
	}
	return Response{Text: text, Model: model, Provider: ProviderAnthropic}, nil
}
