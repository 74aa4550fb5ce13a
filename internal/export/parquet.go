// Package export writes result sets as Parquet files. Every column is an
// optional UTF-8 string holding the value as the table view shows it.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sqler/sqler/internal/formatter"
	"github.com/sqler/sqler/internal/query"
	"github.com/sqler/sqler/internal/storage"
)

type Encoded struct {
	Data    []byte
	Rows    int64
	Columns []string
}

// EncodeParquet encodes result. Duplicate column names get a numeric suffix
// since Parquet groups need unique field names.
func EncodeParquet(result query.Result) (Encoded, error) {
	if len(result.Columns) == 0 {
		return Encoded{}, fmt.Errorf("result has no columns")
	}
	columns := uniqueNames(result.Columns)

	group := parquet.Group{}
	for _, name := range columns {
		group[name] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("result", group)

	// Group fields are ordered by name, not by result position.
	leaf := make(map[string]int, len(columns))
	for i, field := range schema.Fields() {
		leaf[field.Name()] = i
	}

	rows := make([]parquet.Row, 0, len(result.Rows))
	for _, values := range result.Rows {
		row := make(parquet.Row, len(columns))
		for i, name := range columns {
			idx := leaf[name]
			if values[i] == nil {
				row[idx] = parquet.NullValue().Level(0, 0, idx)
				continue
			}
			text := formatter.FormatValue(values[i])
			row[idx] = parquet.ByteArrayValue([]byte(text)).Level(0, 1, idx)
		}
		rows = append(rows, row)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewWriter(buf, schema)
	if _, err := writer.WriteRows(rows); err != nil {
		return Encoded{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Encoded{}, fmt.Errorf("close parquet writer: %w", err)
	}
	return Encoded{Data: buf.Bytes(), Rows: int64(len(rows)), Columns: columns}, nil
}

func uniqueNames(columns []string) []string {
	taken := make(map[string]bool, len(columns))
	out := make([]string, len(columns))
	for i, name := range columns {
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		candidate := name
		for n := 2; taken[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// Exporter places encoded results on disk or in the object store.
type Exporter struct {
	Dir      string
	Store    storage.ObjectStore
	ShareTTL time.Duration
	Now      func() time.Time
}

// WriteFile writes <Dir>/<id>.parquet and returns its path.
func (e Exporter) WriteFile(id string, result query.Result) (string, error) {
	if !storage.ValidArtifactID(id) {
		return "", fmt.Errorf("invalid export id: %q", id)
	}
	encoded, err := EncodeParquet(result)
	if err != nil {
		return "", err
	}
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, id+".parquet")
	if err := os.WriteFile(path, encoded.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// Publish uploads the export under exports/date=YYYY-MM-DD/<id>.parquet.
func (e Exporter) Publish(ctx context.Context, id string, result query.Result) (storage.Published, error) {
	if e.Store == nil {
		return storage.Published{}, fmt.Errorf("object store is required")
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	key, err := storage.ExportKey(id, now())
	if err != nil {
		return storage.Published{}, err
	}
	encoded, err := EncodeParquet(result)
	if err != nil {
		return storage.Published{}, err
	}
	published, err := storage.Publish(ctx, e.Store, key, encoded.Data, storage.ContentTypeParquet, e.ShareTTL)
	if err != nil {
		return published, fmt.Errorf("publish export: %w", err)
	}
	return published, nil
}
