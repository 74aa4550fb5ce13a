package chart

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqler/sqler/internal/llm"
	"github.com/sqler/sqler/internal/query"
)

const (
	Temperature      = 0
	DefaultMaxTokens = 200
)

// Chart is a rendered PNG and the spec it was drawn from.
type Chart struct {
	Spec  Spec
	Image []byte
}

type Synthesizer struct {
	Client    llm.Client
	Renderer  Renderer
	Model     string
	MaxTokens int
}

// Synthesize asks the model for a chart spec and renders it. Callers skip
// empty results; an empty result here is ErrNoData.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, result query.Result) (Chart, error) {
	if result.Empty() {
		return Chart{}, ErrNoData
	}
	spec, err := s.Plan(ctx, question, result.Columns)
	if err != nil {
		return Chart{}, err
	}
	image, drawn, err := s.Renderer.Render(spec, result)
	if err != nil {
		return Chart{}, err
	}
	return Chart{Spec: drawn, Image: image}, nil
}

// Plan returns the model's chart spec for question without rendering it.
func (s *Synthesizer) Plan(ctx context.Context, question string, columns []string) (Spec, error) {
	if s.Client == nil {
		return Spec{}, fmt.Errorf("language model client is required")
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	resp, err := s.Client.Complete(ctx, llm.Request{
		Purpose:     "chart",
		Prompt:      BuildPrompt(question, columns),
		Model:       s.Model,
		Temperature: Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Spec{}, fmt.Errorf("chart specification: %w", err)
	}
	spec, err := ParseSpec(resp.Text)
	if err != nil {
		return Spec{}, fmt.Errorf("%w (response: %q)", err, truncate(resp.Text, 200))
	}
	return spec, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
