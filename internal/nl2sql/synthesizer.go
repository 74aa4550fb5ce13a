package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sqler/sqler/internal/database"
	"github.com/sqler/sqler/internal/knowledge"
	"github.com/sqler/sqler/internal/llm"
	"github.com/sqler/sqler/internal/schema"
)

// Temperature is pinned so that a given prompt always maps to the same query.
const Temperature = 0

const DefaultMaxTokens = 500

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrNoQuery       = errors.New("no query produced")
)

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Synthesizer struct {
	Client    llm.Client
	Knowledge knowledge.Base
	Dialect   database.Dialect
	Model     string
	MaxTokens int
}

// Generate asks the model for one SQL statement answering question. Any
// model failure is reported as ErrNoQuery; the statement is not validated.
func (s *Synthesizer) Generate(ctx context.Context, question string, sch schema.Schema) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, ErrEmptyQuestion
	}
	if s.Client == nil {
		return Result{}, fmt.Errorf("%w: language model client is required", ErrNoQuery)
	}

	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := s.Client.Complete(ctx, llm.Request{
		Purpose: "sql",
		System: BuildPrompt(PromptInput{
			Dialect:  DialectName(s.Dialect),
			Schema:   sch.Text(),
			Docs:     s.Knowledge.DocsText(),
			Rules:    s.Knowledge.Rules,
			Question: question,
		}),
		Model:       s.Model,
		Temperature: Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoQuery, err)
	}

	sql := CleanSQL(resp.Text)
	if sql == "" {
		return Result{}, fmt.Errorf("%w: model returned empty SQL", ErrNoQuery)
	}
	return Result{SQL: sql, Provider: resp.Provider, Model: resp.Model}, nil
}

func DialectName(d database.Dialect) string {
	switch d {
	case database.DialectPostgres:
		return "PostgreSQL"
	case database.DialectDuckDB:
		return "DuckDB"
	default:
		return "MySQL"
	}
}
