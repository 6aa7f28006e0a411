// Package warehouse copies working tables into PostgreSQL.
//
// Each export creates a new table whose columns mirror the working table's
// names (normalized to snake_case) and types, then bulk-loads the rows with
// COPY inside one transaction, so a failed export leaves nothing behind.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/wrangle/internal/table"
)

var (
	// ErrNotConfigured is returned when no database was configured.
	ErrNotConfigured = errors.New("warehouse export is not configured")
	// ErrInvalidTableName is returned for names that are not plain
	// lower-case identifiers.
	ErrInvalidTableName = errors.New("invalid table name")
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// beginner is the part of a pool the exporter needs.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Exporter writes tables to a database. A nil *Exporter is valid and
// reports ErrNotConfigured.
type Exporter struct {
	db   beginner
	pool *pgxpool.Pool
}

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string, cfg PoolConfig) (*Exporter, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Exporter{db: pool, pool: pool}, nil
}

// Close releases the pool.
func (e *Exporter) Close() {
	if e != nil && e.pool != nil {
		e.pool.Close()
	}
}

// Enabled reports whether exports can run.
func (e *Exporter) Enabled() bool { return e != nil && e.db != nil }

// Request names the target of an export.
type Request struct {
	Table string `json:"table"`
	// Replace drops an existing table of the same name first.
	Replace bool `json:"replace"`
}

// Result reports a finished export.
type Result struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    int64    `json:"rows"`
}

// Export creates the target table and copies t into it.
func (e *Exporter) Export(ctx context.Context, req Request, t *table.Table) (Result, error) {
	if !e.Enabled() {
		return Result{}, ErrNotConfigured
	}
	if !tableNameRegex.MatchString(req.Table) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidTableName, req.Table)
	}
	columns := ColumnNames(t)

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if req.Replace {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(req.Table)); err != nil {
			return Result{}, fmt.Errorf("drop table %s: %w", req.Table, err)
		}
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(req.Table, columns, t)); err != nil {
		return Result{}, fmt.Errorf("create table %s: %w", req.Table, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{req.Table}, columns, pgx.CopyFromSlice(t.NumRows(), func(i int) ([]any, error) {
		return t.Row(i), nil
	}))
	if err != nil {
		return Result{}, fmt.Errorf("copy into %s: %w", req.Table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return Result{Table: req.Table, Columns: columns, Rows: n}, nil
}

// CreateTableSQL returns the DDL for a table holding t under the given
// column names.
func CreateTableSQL(name string, columns []string, t *table.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdentifier(name))
	b.WriteString(" (")
	for i, c := range t.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdentifier(columns[i]))
		b.WriteByte(' ')
		b.WriteString(pgType(c.Type))
	}
	b.WriteByte(')')
	return b.String()
}

func pgType(t table.Type) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE PRECISION"
	case table.Time:
		return "TIMESTAMPTZ"
	case table.Bool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// ColumnNames converts t's column names to unique snake_case identifiers.
func ColumnNames(t *table.Table) []string {
	names := make([]string, t.NumCols())
	seen := make(map[string]int, len(names))
	for i, c := range t.Columns() {
		name := toDBColumnName(c.Name)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name += "_" + strconv.Itoa(n+1)
		}
		seen[name]++
		names[i] = name
	}
	return names
}

// toDBColumnName lower-cases name and replaces runs of characters outside
// [a-z0-9] with one underscore.
// "Transaction ID" -> "transaction_id", "Sales (USD)" -> "sales_usd"
func toDBColumnName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// quoteIdentifier quotes a PostgreSQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
