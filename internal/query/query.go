package query

import (
	"context"
	"strings"
	"time"
)

// Result is an ordered row set. Every row has len(Columns) values.
type Result struct {
	Columns   []string      `json:"columns"`
	Rows      [][]any       `json:"rows"`
	Truncated bool          `json:"truncated,omitempty"`
	Duration  time.Duration `json:"-"`
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// ColumnIndex returns the position of name, matching case-insensitively
// when no exact match exists, or -1.
func (r Result) ColumnIndex(name string) int {
	for i, column := range r.Columns {
		if column == name {
			return i
		}
	}
	for i, column := range r.Columns {
		if strings.EqualFold(column, name) {
			return i
		}
	}
	return -1
}

func (r Result) Column(name string) ([]any, bool) {
	idx := r.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		values = append(values, row[idx])
	}
	return values, true
}

// Records returns the rows as column name to value mappings.
func (r Result) Records() []map[string]any {
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))
		for i, column := range r.Columns {
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records
}

type Engine interface {
	Execute(ctx context.Context, sql string) (Result, error)
}
