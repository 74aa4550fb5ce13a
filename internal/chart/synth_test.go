package chart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqler/sqler/internal/llm"
)

func stubModel(text string, err error, seen *llm.Request) llm.Client {
	return llm.ClientFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		if seen != nil {
			*seen = req
		}
		if err != nil {
			return llm.Response{}, err
		}
		return llm.Response{Text: text, Provider: "stub", Model: req.Model}, nil
	})
}

func TestSynthesizeScenarioProducesChartFile(t *testing.T) {
	var seen llm.Request
	synth := &Synthesizer{
		Client:   stubModel(scenarioJSON, nil, &seen),
		Renderer: Renderer{Width: 800, Height: 600, Currency: "€"},
		Model:    "llama-3.1-8b-instant",
	}

	chart, err := synth.Synthesize(context.Background(), "Top products by sales", productSales())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	path, err := WriteFile(filepath.Join(t.TempDir(), "chart.png"), chart.Image)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("chart file missing: %v", err)
	}
	if chart.Spec.Kind != KindBar || chart.Spec.Title != "T" {
		t.Fatalf("chart spec = %+v", chart.Spec)
	}

	if seen.Purpose != "chart" || seen.Temperature != 0 || seen.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected request: purpose=%q temperature=%v max=%d", seen.Purpose, seen.Temperature, seen.MaxTokens)
	}
	if seen.System != "" {
		t.Fatalf("chart prompt must be sent as the user turn, got system %q", seen.System)
	}
	if !strings.Contains(seen.Prompt, "User Question: Top products by sales") || !strings.Contains(seen.Prompt, "Data Columns: productName, totalSales") {
		t.Fatalf("prompt missing question or columns:\n%s", seen.Prompt)
	}
}

func TestSynthesizeFailsWhenColumnIsAbsent(t *testing.T) {
	result := productSales()
	result.Columns = []string{"productName", "quantity"}
	synth := &Synthesizer{Client: stubModel(scenarioJSON, nil, nil)}

	_, err := synth.Synthesize(context.Background(), "Top products by sales", result)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Synthesize() error = %v, want ErrMissingColumn", err)
	}
}

func TestSynthesizeFailures(t *testing.T) {
	modelErr := errors.New("rate limited")
	tests := []struct {
		name   string
		client llm.Client
		want   error
	}{
		{name: "model error", client: stubModel("", modelErr, nil), want: modelErr},
		{name: "no json", client: stubModel("I cannot chart this.", nil, nil), want: ErrNoJSON},
		{name: "missing key", client: stubModel(`{"chart_type":"bar"}`, nil, nil), want: ErrMissingKey},
		{name: "unsupported", client: stubModel(`{"chart_type":"radar","x_column":"productName","y_column":"totalSales"}`, nil, nil), want: ErrUnsupportedKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &Synthesizer{Client: tt.client}
			if _, err := synth.Synthesize(context.Background(), "q", productSales()); !errors.Is(err, tt.want) {
				t.Fatalf("Synthesize() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSynthesizeSkipsModelForEmptyResult(t *testing.T) {
	called := false
	synth := &Synthesizer{Client: llm.ClientFunc(func(context.Context, llm.Request) (llm.Response, error) {
		called = true
		return llm.Response{}, nil
	})}
	result := productSales()
	result.Rows = nil
	if _, err := synth.Synthesize(context.Background(), "q", result); !errors.Is(err, ErrNoData) {
		t.Fatalf("Synthesize() error = %v, want ErrNoData", err)
	}
	if called {
		t.Fatal("model called for an empty result")
	}
}
