package demo

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqler/sqler/internal/database"
)

func openDuckDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return &database.DB{DB: db, Dialect: database.DialectDuckDB}
}

func TestSeedCreatesDatasetOnce(t *testing.T) {
	db := openDuckDB(t)
	ctx := context.Background()

	applied, err := Seed(ctx, db, nil)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if applied != 3 {
		t.Fatalf("applied = %d, want 3", applied)
	}

	for _, table := range Tables {
		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count == 0 {
			t.Fatalf("table %s is empty", table)
		}
	}

	var turnover float64
	if err := db.QueryRowContext(ctx, `SELECT CAST(SUM(quantityOrdered * priceEach) AS DOUBLE) FROM orderdetails`).Scan(&turnover); err != nil {
		t.Fatalf("turnover: %v", err)
	}
	if turnover != 121578.35 {
		t.Fatalf("turnover = %v", turnover)
	}

	again, err := Seed(ctx, db, nil)
	if err != nil || again != 0 {
		t.Fatalf("second Seed() = %d, %v", again, err)
	}
}

func TestRunnerDownRollsBackLatest(t *testing.T) {
	db := openDuckDB(t)
	ctx := context.Background()
	runner := NewRunner(database.DialectDuckDB)

	if _, err := runner.Up(ctx, db.DB, 0); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	rolledBack, err := runner.Down(ctx, db.DB, 1)
	if err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if rolledBack != 1 {
		t.Fatalf("rolledBack = %d", rolledBack)
	}

	versions, err := runner.Applied(ctx, db.DB)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(versions) != 2 || versions[1] != 2 {
		t.Fatalf("versions = %v", versions)
	}
	if _, err := db.ExecContext(ctx, "SELECT * FROM recouvrement"); err == nil {
		t.Fatal("recouvrement should be dropped")
	}
}

func TestRunnerUpHonoursSteps(t *testing.T) {
	db := openDuckDB(t)
	applied, err := NewRunner(database.DialectDuckDB).Up(context.Background(), db.DB, 1)
	if err != nil || applied != 1 {
		t.Fatalf("Up(steps=1) = %d, %v", applied, err)
	}
}

func TestSeedRequiresDatabase(t *testing.T) {
	if _, err := Seed(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
