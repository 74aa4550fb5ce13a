package sqlguard

import (
	"errors"
	"testing"

	"github.com/sqler/sqler/internal/database"
)

func TestCheckAllowsReadQueriesMySQL(t *testing.T) {
	g := New(database.DialectMySQL)
	queries := []string{
		"SELECT SUM(od.quantityOrdered * od.priceEach) AS total_turnover FROM orderdetails AS od;",
		"select customerName from customers where country = 'France' limit 10",
		"SELECT city FROM offices UNION SELECT city FROM customers",
		"WITH totals AS (SELECT orderNumber, SUM(quantityOrdered * priceEach) AS total FROM orderdetails GROUP BY orderNumber) SELECT AVG(total) FROM totals",
		"SELECT c.customerName FROM customers c WHERE c.customerNumber IN (SELECT customerNumber FROM payments WHERE amount > 1000)",
	}
	for _, q := range queries {
		if _, err := g.Check(q); err != nil {
			t.Fatalf("Check(%q) error = %v", q, err)
		}
	}
}

func TestCheckStripsTrailingSemicolons(t *testing.T) {
	got, err := New(database.DialectMySQL).Check("  SELECT 1 ;; ")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("Check() = %q", got)
	}
}

func TestCheckRejectsMySQL(t *testing.T) {
	tests := []struct {
		sql  string
		want error
	}{
		{sql: "", want: ErrEmpty},
		{sql: " ; ", want: ErrEmpty},
		{sql: "DELETE FROM orders", want: ErrNotReadOnly},
		{sql: "UPDATE products SET buyPrice = 0", want: ErrNotReadOnly},
		{sql: "INSERT INTO offices (officeCode) VALUES ('99')", want: ErrNotReadOnly},
		{sql: "DROP TABLE customers", want: ErrNotReadOnly},
		{sql: "SELECT * FROM customers INTO OUTFILE '/tmp/customers.csv'", want: ErrNotReadOnly},
		{sql: "SELECT * FROM products FOR UPDATE", want: ErrNotReadOnly},
		{sql: "SELECT 1; DROP TABLE customers", want: ErrMultipleStatements},
		{sql: "SELEC customerName FROM", want: ErrUnparsable},
	}
	g := New(database.DialectMySQL)
	for _, tt := range tests {
		if _, err := g.Check(tt.sql); !errors.Is(err, tt.want) {
			t.Fatalf("Check(%q) error = %v, want %v", tt.sql, err, tt.want)
		}
	}
}

func TestCheckLexicalDialects(t *testing.T) {
	for _, dialect := range []database.Dialect{database.DialectPostgres, database.DialectDuckDB} {
		g := New(dialect)
		allowed := []string{
			"SELECT productLine, SUM(valeur_stock) FROM value_stock_quantity GROUP BY productLine;",
			"select 'delete; drop' as note",
			"SELECT 1 -- ; drop table x\n",
			"/* update */ SELECT \"update\" FROM t",
			"WITH t AS (SELECT 1 AS n) SELECT n FROM t",
		}
		for _, q := range allowed {
			if _, err := g.Check(q); err != nil {
				t.Fatalf("%s Check(%q) error = %v", dialect, q, err)
			}
		}

		rejected := []struct {
			sql  string
			want error
		}{
			{sql: "DELETE FROM orders", want: ErrNotReadOnly},
			{sql: "WITH gone AS (DELETE FROM orders RETURNING *) SELECT * FROM gone", want: ErrNotReadOnly},
			{sql: "SELECT * INTO backup FROM orders", want: ErrNotReadOnly},
			{sql: "SELECT 1; SELECT 2", want: ErrMultipleStatements},
			{sql: "-- only a comment", want: ErrEmpty},
		}
		for _, tt := range rejected {
			if _, err := g.Check(tt.sql); !errors.Is(err, tt.want) {
				t.Fatalf("%s Check(%q) error = %v, want %v", dialect, tt.sql, err, tt.want)
			}
		}
	}
}
