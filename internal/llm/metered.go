package llm

import (
	"context"
	"time"

	"github.com/sqler/sqler/internal/observability"
)

type meteredClient struct {
	next     Client
	provider string
}

// WithMetrics records latency and outcome of every completion.
func WithMetrics(next Client, provider string) Client {
	if provider == "" {
		provider = ProviderOpenAI
	}
	return &meteredClient{next: next, provider: provider}
}

func (m *meteredClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := m.next.Complete(ctx, req)
	purpose := req.Purpose
	if purpose == "" {
		purpose = "unspecified"
	}
	observability.ObserveLLMRequest(m.provider, purpose, time.Since(start), err)
	return resp, err
}
