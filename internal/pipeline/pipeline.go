// Package pipeline runs one question cycle: synthesize SQL, guard it,
// execute it, format the rows and, when there are rows, draw a chart.
// Failures after startup never escape Ask; they become absent parts of the
// Outcome.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqler/sqler/internal/chart"
	"github.com/sqler/sqler/internal/export"
	"github.com/sqler/sqler/internal/formatter"
	"github.com/sqler/sqler/internal/nl2sql"
	"github.com/sqler/sqler/internal/observability"
	"github.com/sqler/sqler/internal/query"
	"github.com/sqler/sqler/internal/schema"
	"github.com/sqler/sqler/internal/storage"
)

type Status string

const (
	StatusAnswered  Status = "answered"
	StatusEmpty     Status = "empty"
	StatusNoQuery   Status = "no_query"
	StatusRejected  Status = "rejected"
	StatusExecError Status = "execution_failed"
)

type SchemaSource interface {
	Get(ctx context.Context) (schema.Schema, error)
}

type QuerySynthesizer interface {
	Generate(ctx context.Context, question string, sch schema.Schema) (nl2sql.Result, error)
}

type Guard interface {
	Check(sql string) (string, error)
}

type ChartSynthesizer interface {
	Synthesize(ctx context.Context, question string, result query.Result) (chart.Chart, error)
}

type ChartPublisher interface {
	Publish(ctx context.Context, id string, image []byte) (storage.Published, error)
}

type Pipeline struct {
	Schema SchemaSource
	SQL    QuerySynthesizer
	Guard  Guard
	Engine query.Engine
	// Charts is optional; nil disables chart synthesis.
	Charts ChartSynthesizer
	// ChartPath is the file overwritten by every cycle. ChartDir, when set,
	// gives each cycle its own <id>.png instead.
	ChartPath string
	ChartDir  string
	Publisher ChartPublisher
	AutoOpen  bool
	Open      func(path string) error
	Exporter  *export.Exporter
	Logger    *slog.Logger
	NewID     func() string
}

type Options struct {
	SkipChart bool
	Export    bool
}

// Outcome is everything a front end shows for one question. Err and
// ChartErr carry internal causes for logs and are not meant for display.
type Outcome struct {
	ID        string        `json:"id"`
	Question  string        `json:"question"`
	Status    Status        `json:"status"`
	SQL       string        `json:"sql,omitempty"`
	Result    *query.Result `json:"result,omitempty"`
	Table     string        `json:"table,omitempty"`
	Chart     *chart.Spec   `json:"chart,omitempty"`
	ChartPath string        `json:"-"`
	ChartKey  string        `json:"chart_key,omitempty"`
	ChartURL  string        `json:"chart_url,omitempty"`
	Export    string        `json:"export,omitempty"`
	ExportURL string        `json:"export_url,omitempty"`
	Duration  time.Duration `json:"-"`
	Err       error         `json:"-"`
	ChartErr  error         `json:"-"`
}

func (o Outcome) HasChart() bool {
	return o.ChartPath != "" || o.ChartKey != ""
}

func (p *Pipeline) Ask(ctx context.Context, question string, opts Options) (out Outcome) {
	started := time.Now()
	out = Outcome{ID: p.newID(), Question: strings.TrimSpace(question)}
	logger := p.logger().With("question_id", out.ID)
	if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	defer func() {
		out.Duration = time.Since(started)
		observability.ObserveQuestion(string(out.Status))
		logger.Info("question answered", "status", out.Status, "duration_ms", out.Duration.Milliseconds(), "chart", out.HasChart())
	}()

	if out.Question == "" {
		out.Status, out.Err = StatusNoQuery, nl2sql.ErrEmptyQuestion
		return out
	}

	sql, err := p.synthesize(ctx, out.Question)
	if err != nil {
		logger.Warn("query synthesis failed", "error", err)
		out.Status, out.Err = StatusNoQuery, err
		return out
	}
	out.SQL = sql

	checked, err := p.guard(sql)
	if err != nil {
		logger.Warn("query rejected", "error", err, "sql", sql)
		out.Status, out.Err = StatusRejected, err
		return out
	}

	result, err := p.execute(ctx, checked)
	if err != nil {
		logger.Error("query execution failed", "error", err, "sql", checked)
		out.Status, out.Err = StatusExecError, err
		out.Table = formatter.NoResultsMessage
		return out
	}
	out.Result = &result
	out.Table = formatter.Markdown(result)
	observability.ObserveResult(len(result.Rows), result.Truncated)

	if result.Empty() {
		out.Status = StatusEmpty
		return out
	}
	out.Status = StatusAnswered

	if opts.Export && p.Exporter != nil {
		published, err := p.export(ctx, out.ID, result)
		if err != nil {
			logger.Warn("result export failed", "error", err)
		}
		out.Export, out.ExportURL = published.Key, published.URL
	}

	if !opts.SkipChart && p.Charts != nil {
		if err := p.chart(ctx, &out, result, logger); err != nil {
			logger.Warn("chart not produced", "error", err)
			out.ChartErr = err
		}
	}
	return out
}

func (p *Pipeline) synthesize(ctx context.Context, question string) (string, error) {
	started := time.Now()
	sql, err := func() (string, error) {
		if p.Schema == nil || p.SQL == nil {
			return "", fmt.Errorf("%w: pipeline is not configured", nl2sql.ErrNoQuery)
		}
		sch, err := p.Schema.Get(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: schema: %w", nl2sql.ErrNoQuery, err)
		}
		generated, err := p.SQL.Generate(ctx, question, sch)
		if err != nil {
			return "", err
		}
		return generated.SQL, nil
	}()
	observability.ObserveStage(observability.StageSynthesize, time.Since(started), err)
	return sql, err
}

func (p *Pipeline) guard(sql string) (string, error) {
	started := time.Now()
	if p.Guard == nil {
		return sql, nil
	}
	checked, err := p.Guard.Check(sql)
	observability.ObserveStage(observability.StageGuard, time.Since(started), err)
	return checked, err
}

func (p *Pipeline) execute(ctx context.Context, sql string) (query.Result, error) {
	started := time.Now()
	if p.Engine == nil {
		return query.Result{}, fmt.Errorf("query engine is not configured")
	}
	result, err := p.Engine.Execute(ctx, sql)
	observability.ObserveStage(observability.StageExecute, time.Since(started), err)
	return result, err
}

func (p *Pipeline) chart(ctx context.Context, out *Outcome, result query.Result, logger *slog.Logger) error {
	started := time.Now()
	err := p.drawChart(ctx, out, result, logger)
	observability.ObserveStage(observability.StageChart, time.Since(started), err)
	return err
}

func (p *Pipeline) drawChart(ctx context.Context, out *Outcome, result query.Result, logger *slog.Logger) error {
	drawn, err := p.Charts.Synthesize(ctx, out.Question, result)
	if err != nil {
		return err
	}

	path, err := p.chartPath(out.ID)
	if err != nil {
		return err
	}
	if path, err = chart.WriteFile(path, drawn.Image); err != nil {
		return err
	}
	spec := drawn.Spec
	out.Chart = &spec
	out.ChartPath = path
	observability.ObserveChart(string(spec.Kind))

	if p.Publisher != nil {
		published, err := p.Publisher.Publish(ctx, out.ID, drawn.Image)
		if err != nil {
			logger.Warn("chart publish failed", "error", err)
		}
		out.ChartKey, out.ChartURL = published.Key, published.URL
	}
	if p.AutoOpen {
		open := p.Open
		if open == nil {
			open = chart.Open
		}
		if err := open(path); err != nil {
			logger.Warn("could not open chart viewer", "path", path, "error", err)
		}
	}
	return nil
}

func (p *Pipeline) chartPath(id string) (string, error) {
	if p.ChartDir != "" {
		return chart.PathFor(p.ChartDir, id)
	}
	if p.ChartPath != "" {
		return p.ChartPath, nil
	}
	return "chart.png", nil
}

// export publishes to the object store when one is configured and writes a
// local file otherwise; Key then holds the file path.
func (p *Pipeline) export(ctx context.Context, id string, result query.Result) (storage.Published, error) {
	if p.Exporter.Store != nil {
		return p.Exporter.Publish(ctx, id, result)
	}
	path, err := p.Exporter.WriteFile(id, result)
	return storage.Published{Key: path}, err
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Message is the user-facing summary of a cycle that produced no table, or
// "" when there is one to show.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusEmpty:
		return formatter.NoResultsMessage
	case StatusNoQuery:
		return "Impossible de générer une requête SQL pour cette question."
	case StatusRejected:
		return "La requête générée a été refusée : seules les lectures sont autorisées."
	case StatusExecError:
		return "**La requête n'a renvoyé aucun résultat ou une erreur est survenue.**"
	}
	return ""
}
