package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sqler/sqler/internal/database"
)

var ErrEmptySchema = errors.New("database exposes no tables")

const mysqlColumnsQuery = `
SELECT c.TABLE_NAME, c.COLUMN_NAME, c.COLUMN_TYPE
FROM information_schema.COLUMNS c
WHERE c.TABLE_SCHEMA = DATABASE()
ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`

const standardColumnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`

// Introspector reads table and column metadata from a live database.
type Introspector struct {
	DB      *sql.DB
	Dialect database.Dialect
	// Exclude names tables that never reach the prompt, such as
	// bookkeeping tables created by the demo seeder.
	Exclude []string
}

func NewIntrospector(db *database.DB, exclude ...string) *Introspector {
	return &Introspector{DB: db.DB, Dialect: db.Dialect, Exclude: exclude}
}

func (i *Introspector) Introspect(ctx context.Context) (Schema, error) {
	if i.DB == nil {
		return Schema{}, fmt.Errorf("database handle is required")
	}

	query := standardColumnsQuery
	if i.Dialect == database.DialectMySQL || i.Dialect == "" {
		query = mysqlColumnsQuery
	}

	rows, err := i.DB.QueryContext(ctx, query)
	if err != nil {
		return Schema{}, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	excluded := make(map[string]struct{}, len(i.Exclude))
	for _, name := range i.Exclude {
		excluded[strings.ToLower(name)] = struct{}{}
	}

	var out Schema
	for rows.Next() {
		var tableName, columnName, columnType string
		if err := rows.Scan(&tableName, &columnName, &columnType); err != nil {
			return Schema{}, fmt.Errorf("scan column: %w", err)
		}
		if _, skip := excluded[strings.ToLower(tableName)]; skip {
			continue
		}
		n := len(out.Tables)
		if n == 0 || out.Tables[n-1].Name != tableName {
			out.Tables = append(out.Tables, Table{Name: tableName})
			n++
		}
		out.Tables[n-1].Columns = append(out.Tables[n-1].Columns, Column{Name: columnName, Type: columnType})
	}
	if err := rows.Err(); err != nil {
		return Schema{}, fmt.Errorf("iterate columns: %w", err)
	}
	if len(out.Tables) == 0 {
		return Schema{}, ErrEmptySchema
	}
	return out, nil
}
