package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqler/sqler/internal/config"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectDuckDB   Dialect = "duckdb"
)

// DB is a connection pool tagged with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Target is a resolved driver name and data source.
type Target struct {
	Dialect    Dialect
	DriverName string
	DSN        string
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	target, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return open(ctx, cfg, target)
}

// OpenReadOnly opens the handle questions run on. DuckDB files are opened in
// read-only access mode; MySQL and PostgreSQL get read-only transactions from
// the executor instead.
func OpenReadOnly(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	target, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return open(ctx, cfg, target.ReadOnly())
}

// ReadOnly returns the target with DuckDB read-only access mode set. An
// in-memory DuckDB cannot be opened read-only and is returned unchanged.
func (t Target) ReadOnly() Target {
	if t.Dialect != DialectDuckDB || t.DSN == "" || strings.HasPrefix(t.DSN, ":memory:") {
		return t
	}
	if strings.Contains(strings.ToLower(t.DSN), "access_mode=") {
		return t
	}
	sep := "?"
	if strings.Contains(t.DSN, "?") {
		sep = "&"
	}
	t.DSN += sep + "access_mode=READ_ONLY"
	return t
}

func open(ctx context.Context, cfg config.DatabaseConfig, target Target) (*DB, error) {
	db, err := sql.Open(target.DriverName, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", target.Dialect, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", target.Dialect, err)
	}

	return &DB{DB: db, Dialect: target.Dialect}, nil
}

// Resolve picks the driver for cfg. An explicit DSN is routed by its shape;
// otherwise a MySQL DSN is assembled from the host fields.
func Resolve(cfg config.DatabaseConfig) (Target, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return mysqlFromParts(cfg)
	}

	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Target{Dialect: DialectPostgres, DriverName: "pgx", DSN: dsn}, nil
	case strings.HasPrefix(lower, "duckdb:"):
		path := strings.TrimPrefix(dsn[len("duckdb:"):], "//")
		return Target{Dialect: DialectDuckDB, DriverName: "duckdb", DSN: path}, nil
	case strings.HasSuffix(lower, ".duckdb"):
		return Target{Dialect: DialectDuckDB, DriverName: "duckdb", DSN: dsn}, nil
	case strings.HasPrefix(lower, "mysql://"):
		dsn = dsn[len("mysql://"):]
	}

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return Target{}, fmt.Errorf("parse mysql dsn: %w", err)
	}
	parsed.ParseTime = true
	return Target{Dialect: DialectMySQL, DriverName: "mysql", DSN: parsed.FormatDSN()}, nil
}

func mysqlFromParts(cfg config.DatabaseConfig) (Target, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return Target{}, fmt.Errorf("database dsn or host is required")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return Target{}, fmt.Errorf("database name is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	return Target{Dialect: DialectMySQL, DriverName: "mysql", DSN: mc.FormatDSN()}, nil
}
