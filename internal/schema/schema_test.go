package schema

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sqler/sqler/internal/database"
)

func TestIntrospectGroupsColumnsByTable(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(mysqlColumnsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "COLUMN_TYPE"}).
			AddRow("customers", "customerNumber", "int").
			AddRow("customers", "customerName", "varchar(50)").
			AddRow("orderdetails", "orderNumber", "int").
			AddRow("orderdetails", "priceEach", "decimal(10,2)"))

	got, err := (&Introspector{DB: db, Dialect: database.DialectMySQL}).Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if len(got.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(got.Tables))
	}
	if got.Tables[0].Name != "customers" || len(got.Tables[0].Columns) != 2 {
		t.Fatalf("unexpected first table: %+v", got.Tables[0])
	}
	if got.Tables[1].Columns[1] != (Column{Name: "priceEach", Type: "decimal(10,2)"}) {
		t.Fatalf("unexpected column: %+v", got.Tables[1].Columns[1])
	}
	assertSQLMock(t, mock)
}

func TestIntrospectUsesStandardQueryOutsideMySQL(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(standardColumnsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
			AddRow("sqler_schema_migrations", "version", "INTEGER").
			AddRow("products", "productCode", "VARCHAR"))

	in := &Introspector{DB: db, Dialect: database.DialectDuckDB, Exclude: []string{"sqler_schema_migrations"}}
	got, err := in.Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if names := got.TableNames(); len(names) != 1 || names[0] != "products" {
		t.Fatalf("TableNames() = %v", names)
	}
	assertSQLMock(t, mock)
}

func TestIntrospectEmptyDatabase(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(mysqlColumnsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "COLUMN_TYPE"}))

	_, err := (&Introspector{DB: db, Dialect: database.DialectMySQL}).Introspect(context.Background())
	if !errors.Is(err, ErrEmptySchema) {
		t.Fatalf("Introspect() error = %v, want ErrEmptySchema", err)
	}
}

func TestIntrospectPropagatesQueryError(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(mysqlColumnsQuery)).WillReturnError(errors.New("access denied"))

	_, err := (&Introspector{DB: db, Dialect: database.DialectMySQL}).Introspect(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSchemaText(t *testing.T) {
	s := Schema{Tables: []Table{
		{Name: "offices", Columns: []Column{{Name: "officeCode", Type: "varchar(10)"}, {Name: "city", Type: "varchar(50)"}}},
		{Name: "payments", Columns: []Column{{Name: "amount", Type: "decimal(10,2)"}}},
	}}

	want := "Table: offices\n" +
		"  - officeCode (varchar(10))\n" +
		"  - city (varchar(50))\n" +
		"\n" +
		"Table: payments\n" +
		"  - amount (decimal(10,2))\n" +
		"\n"
	if got := s.Text(); got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	if _, ok := s.Table("PAYMENTS"); !ok {
		t.Fatal("Table(PAYMENTS) not found")
	}
}

func TestCacheIntrospectsOnce(t *testing.T) {
	source := &countingSource{schema: Schema{Tables: []Table{{Name: "orders"}}}}
	cache := NewCache(source)

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("calls = %d, want 1", source.calls)
	}

	cache.Invalidate()
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("calls after Invalidate = %d, want 2", source.calls)
	}
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	source := &countingSource{err: errors.New("db down")}
	cache := NewCache(source)
	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	source.err = nil
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("calls = %d, want 2", source.calls)
	}
}

type countingSource struct {
	schema Schema
	err    error
	calls  int
}

func (s *countingSource) Introspect(context.Context) (Schema, error) {
	s.calls++
	return s.schema, s.err
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
