package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb/v2"

	"github.com/sqler/sqler/internal/database"
)

var ErrEmptySQL = errors.New("sql is required")

// Executor runs one statement and collects its rows. MySQL and PostgreSQL
// statements run inside a read-only transaction that is always rolled back;
// DuckDB has no read-only transactions, so its handle should come from
// database.OpenReadOnly.
type Executor struct {
	DB      *sql.DB
	Dialect database.Dialect
	// MaxRows caps collected rows; zero means unlimited.
	MaxRows int
	Timeout time.Duration
}

func NewExecutor(db *database.DB, maxRows int, timeout time.Duration) *Executor {
	return &Executor{DB: db.DB, Dialect: db.Dialect, MaxRows: maxRows, Timeout: timeout}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return Result{}, ErrEmptySQL
	}
	if e.DB == nil {
		return Result{}, fmt.Errorf("database handle is required")
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		rows *sql.Rows
		err  error
	)
	if e.Dialect == database.DialectDuckDB {
		rows, err = e.DB.QueryContext(ctx, sqlText)
	} else {
		var tx *sql.Tx
		tx, err = e.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if err != nil {
			return Result{}, fmt.Errorf("begin read-only transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		rows, err = tx.QueryContext(ctx, sqlText)
	}
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result, err := collect(rows, e.MaxRows)
	if err != nil {
		return Result{}, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func collect(rows *sql.Rows, maxRows int) (Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := Result{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		if maxRows > 0 && len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case duckdb.Decimal:
			normalized[i] = decimalFloat(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

// decimalFloat converts a DuckDB DECIMAL so formatting and charting see a
// plain number, as they do for MySQL and PostgreSQL numerics.
func decimalFloat(d duckdb.Decimal) float64 {
	if d.Value == nil {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
	f, _ := new(big.Rat).SetFrac(d.Value, scale).Float64()
	return f
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
