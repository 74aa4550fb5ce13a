// Package app assembles the question pipeline and its dependencies from
// configuration. Every binary starts through New.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sqler/sqler/internal/api"
	"github.com/sqler/sqler/internal/auth"
	"github.com/sqler/sqler/internal/chart"
	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/database"
	"github.com/sqler/sqler/internal/demo"
	"github.com/sqler/sqler/internal/examples"
	"github.com/sqler/sqler/internal/export"
	"github.com/sqler/sqler/internal/knowledge"
	"github.com/sqler/sqler/internal/llm"
	"github.com/sqler/sqler/internal/nl2sql"
	"github.com/sqler/sqler/internal/pipeline"
	"github.com/sqler/sqler/internal/query"
	"github.com/sqler/sqler/internal/schema"
	"github.com/sqler/sqler/internal/sqlguard"
	"github.com/sqler/sqler/internal/storage"
	s3store "github.com/sqler/sqler/internal/storage/s3"
)

// Mode selects where charts are written.
type Mode int

const (
	// ModeInteractive overwrites one chart file per cycle.
	ModeInteractive Mode = iota
	// ModeServer writes one chart file per request.
	ModeServer
)

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	DB        *database.DB
	Schema    *schema.Cache
	Knowledge knowledge.Base
	Client    llm.Client
	Pipeline  *pipeline.Pipeline
	Store     storage.ObjectStore

	examples *examples.Generator

	examplesMu  sync.Mutex
	examplesSet *examples.Set
}

// New builds the application. A missing model credential, an unreachable
// database or an unreadable schema is an error: nothing is served until all
// three succeed.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, mode Mode) (*App, error) {
	return build(ctx, cfg, logger, mode, nil)
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger, mode Mode, client llm.Client) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if client == nil {
		raw, err := llm.New(llm.Config{
			Provider: cfg.AI.Provider,
			BaseURL:  cfg.AI.BaseURL,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			Timeout:  cfg.AI.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("language model client: %w", err)
		}
		client = llm.WithMetrics(raw, cfg.AI.Provider)
	}

	base, err := knowledge.Load(cfg.Knowledge.Dir)
	if err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}

	db, err := database.OpenReadOnly(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, DB: db, Knowledge: base, Client: client}

	a.Schema = schema.NewCache(schema.NewIntrospector(db, demo.MigrationTable))
	sch, err := a.Schema.Get(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema introspection: %w", err)
	}
	if stale := base.Stale(sch.TableNames()); len(stale) > 0 {
		logger.Warn("knowledge base documents tables missing from the database", slog.Any("tables", stale))
	}
	logger.Info("database ready",
		slog.String("dialect", string(db.Dialect)),
		slog.Int("tables", len(sch.Tables)),
	)

	if cfg.ObjectStore.Enabled {
		store, err := s3store.Open(ctx, cfg.ObjectStore)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("object store: %w", err)
		}
		a.Store = store
	}

	a.Pipeline = a.newPipeline(mode)
	a.examples = &examples.Generator{
		Client:    client,
		Model:     cfg.AI.Model,
		Dialect:   nl2sql.DialectName(db.Dialect),
		MaxTokens: cfg.AI.ExamplesMaxTokens,
		Logger:    logger,
	}
	return a, nil
}

func (a *App) newPipeline(mode Mode) *pipeline.Pipeline {
	cfg := a.Config
	p := &pipeline.Pipeline{
		Schema: a.Schema,
		SQL: &nl2sql.Synthesizer{
			Client:    a.Client,
			Knowledge: a.Knowledge,
			Dialect:   a.DB.Dialect,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.SQLMaxTokens,
		},
		Guard:    sqlguard.New(a.DB.Dialect),
		Engine:   query.NewExecutor(a.DB, cfg.Database.MaxRows, cfg.Database.QueryTimeout),
		Exporter: &export.Exporter{Dir: cfg.Export.Dir, Store: a.Store, ShareTTL: cfg.ObjectStore.ShareTTL},
		Logger:   a.Logger,
	}
	if cfg.Chart.Enabled {
		p.Charts = &chart.Synthesizer{
			Client: a.Client,
			Renderer: chart.Renderer{
				Width:    cfg.Chart.Width,
				Height:   cfg.Chart.Height,
				Currency: cfg.Chart.Currency,
			},
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.ChartMaxTokens,
		}
	}
	switch mode {
	case ModeServer:
		p.ChartDir = a.ChartDir()
	default:
		p.ChartPath = cfg.Chart.OutputPath
		p.AutoOpen = cfg.Chart.AutoOpen
	}
	if cfg.Chart.Publish && a.Store != nil {
		p.Publisher = chart.Publisher{Store: a.Store, ShareTTL: cfg.ObjectStore.ShareTTL}
	}
	return p
}

// ChartDir is the per-request chart directory used in server mode.
func (a *App) ChartDir() string {
	if a.Config.Chart.OutputDir != "" {
		return a.Config.Chart.OutputDir
	}
	return filepath.Join(os.TempDir(), "sqler-charts")
}

// Examples returns example questions, asking the model once per process.
// Fallback lists are not remembered so a later call can try again.
func (a *App) Examples(ctx context.Context) examples.Set {
	if !a.Config.AI.ExamplesEnabled {
		return examples.Fallback()
	}
	a.examplesMu.Lock()
	defer a.examplesMu.Unlock()
	if a.examplesSet != nil {
		return *a.examplesSet
	}

	sch, err := a.Schema.Get(ctx)
	if err != nil {
		a.Logger.Warn("example questions use fallback", slog.Any("error", err))
		return examples.Fallback()
	}
	set := a.examples.Examples(ctx, sch.Text())
	if set.Generated {
		a.examplesSet = &set
	}
	return set
}

// Handler builds the HTTP API over the pipeline.
func (a *App) Handler() (http.Handler, error) {
	deps := api.Dependencies{
		Logger:            a.Logger,
		Pipeline:          a.Pipeline,
		Schema:            a.Schema,
		Examples:          a.Examples,
		ChartDir:          a.ChartDir(),
		Readiness:         api.CombineReadinessChecks(a.readinessChecks()...),
		DependencyTimeout: 2 * time.Second,
	}
	if a.Config.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(a.Config.Auth.StaticKeys)
		if err != nil {
			return nil, fmt.Errorf("parse static auth keys: %w", err)
		}
		deps.AuthMiddleware = auth.Middleware(a.Logger, validator)
	}
	return api.NewHandler(a.Config, deps), nil
}

func (a *App) readinessChecks() []api.ReadinessCheck {
	checks := []api.ReadinessCheck{a.ping, api.CheckSchema(a.Schema)}
	if a.Store != nil {
		checks = append(checks, a.Store.Ping)
	}
	return checks
}

func (a *App) ping(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
