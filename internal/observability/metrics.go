package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages reported by ObserveStage.
const (
	StageIntrospect = "introspect"
	StageSynthesize = "synthesize"
	StageGuard      = "guard"
	StageExecute    = "execute"
	StageChart      = "chart"
	StageExamples   = "examples"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqler_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqler_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqler_questions_total",
			Help: "Total number of questions processed, by outcome.",
		},
		[]string{"outcome"},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqler_stage_duration_seconds",
			Help:    "Latency of each pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)
	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqler_llm_requests_total",
			Help: "Total number of completion requests sent to the language model.",
		},
		[]string{"provider", "purpose", "status"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqler_llm_request_duration_seconds",
			Help:    "Language model completion latency by purpose.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "purpose", "status"},
	)
	resultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqler_result_rows",
			Help:    "Number of rows returned per executed query.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)
	truncatedResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqler_truncated_results_total",
			Help: "Total number of results cut at the configured row limit.",
		},
	)
	chartsRenderedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqler_charts_rendered_total",
			Help: "Total number of charts rendered, by chart type.",
		},
		[]string{"chart_type"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		questionsTotal,
		stageDurationSeconds,
		llmRequestsTotal,
		llmRequestDurationSeconds,
		resultRows,
		truncatedResultsTotal,
		chartsRenderedTotal,
	)
}

func ObserveQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveStage(stage string, elapsed time.Duration, err error) {
	stageDurationSeconds.WithLabelValues(stage, statusLabel(err)).Observe(elapsed.Seconds())
}

func ObserveLLMRequest(provider, purpose string, elapsed time.Duration, err error) {
	status := statusLabel(err)
	llmRequestsTotal.WithLabelValues(provider, purpose, status).Inc()
	llmRequestDurationSeconds.WithLabelValues(provider, purpose, status).Observe(elapsed.Seconds())
}

func ObserveResult(rows int, truncated bool) {
	if rows < 0 {
		rows = 0
	}
	resultRows.Observe(float64(rows))
	if truncated {
		truncatedResultsTotal.Inc()
	}
}

func ObserveChart(chartType string) {
	chartsRenderedTotal.WithLabelValues(chartType).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
