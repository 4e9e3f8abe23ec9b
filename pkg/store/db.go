package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"seleniumrobot/infoserver/pkg/config"
)

// Supported storage backends.
const (
	BackendSQLite3  = "sqlite3"  // cgo sqlite (mattn/go-sqlite3)
	BackendSQLite   = "sqlite"   // pure Go sqlite (modernc.org/sqlite)
	BackendPostgres = "postgres" // pgx stdlib
	BackendMemory   = "memory"
)

// Querier is satisfied by both *DB and *Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a database handle that rewrites "?" placeholders for the backend in use.
// Stores write their queries once in sqlite syntax.
type DB struct {
	*sql.DB
	backend string
	logger  *slog.Logger
}

// Open connects to the configured backend and applies the schema.
func Open(ctx context.Context, cfg config.StorageConfig) (*DB, error) {
	logger := slog.Default().With("component", "store")

	driverName, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	d := &DB{DB: db, backend: cfg.Driver, logger: logger}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStorageError(cfg.Driver, "ping", err)
	}

	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database opened",
		"backend", cfg.Driver,
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return d, nil
}

func dataSource(cfg config.StorageConfig) (string, string, error) {
	busy := cfg.BusyTimeout.Milliseconds()

	switch cfg.Driver {
	case BackendSQLite3:
		if err := ensureDir(cfg.Path); err != nil {
			return "", "", NewStorageError(cfg.Driver, "mkdir", err)
		}
		params := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=1", busy)
		if cfg.WALMode {
			params += "&_journal_mode=WAL"
		}
		return "sqlite3", withParams(cfg.Path, params), nil

	case BackendSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return "", "", NewStorageError(cfg.Driver, "mkdir", err)
		}
		params := fmt.Sprintf("_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", busy)
		if cfg.WALMode {
			params += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
		}
		return "sqlite", withParams(cfg.Path, params), nil

	case BackendPostgres:
		return "pgx", cfg.DSN, nil
	}

	return "", "", NewStorageError(cfg.Driver, "open", fmt.Errorf("unsupported driver %q", cfg.Driver))
}

func withParams(path, params string) string {
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Backend returns the backend name the handle was opened with.
func (db *DB) Backend() string {
	return db.backend
}

// Rebind converts "?" placeholders to "$1", "$2", ... for postgres.
func (db *DB) Rebind(query string) string {
	return rebind(db.backend, query)
}

func rebind(backend, query string) string {
	if backend != BackendPostgres || !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// ExecContext executes a query after placeholder rebinding.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

// QueryContext runs a query after placeholder rebinding.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

// QueryRowContext runs a single-row query after placeholder rebinding.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}

// Tx wraps *sql.Tx with the same placeholder rebinding as DB.
type Tx struct {
	*sql.Tx
	backend string
}

// ExecContext executes a query after placeholder rebinding.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, rebind(tx.backend, query), args...)
}

// QueryContext runs a query after placeholder rebinding.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, rebind(tx.backend, query), args...)
}

// QueryRowContext runs a single-row query after placeholder rebinding.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, rebind(tx.backend, query), args...)
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(db.backend, "begin", err)
	}

	if err := fn(&Tx{Tx: sqlTx, backend: db.backend}); err != nil {
		sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return NewStorageError(db.backend, "commit", err)
	}
	return nil
}

// Migrate creates missing tables and records the schema version.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range Schema(db.backend) {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(db.backend, "create_schema", err)
		}
	}

	if _, err := db.ExecContext(ctx, insertSchemaVersion, SchemaVersion, time.Now().UnixMicro()); err != nil {
		return NewStorageError(db.backend, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(db.backend, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(db.backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	db.logger.Debug("Database schema ready", "version", version.Int64)
	return nil
}

// NullID converts an optional foreign key to a nullable column value.
func NullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// IDPtr converts a nullable column value to an optional foreign key.
func IDPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// Placeholders returns "?, ?, ?" with n markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
