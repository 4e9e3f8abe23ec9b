package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"seleniumrobot/infoserver/pkg/config"
)

func testStorageConfig(t *testing.T, driver string) config.StorageConfig {
	t.Helper()
	cfg := config.NewDefaultConfig().Storage
	cfg.Driver = driver
	cfg.Path = filepath.Join(t.TempDir(), "nested", "info.db")
	return cfg
}

func TestOpen_SQLiteBackends(t *testing.T) {
	for _, driver := range []string{BackendSQLite3, BackendSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db, err := Open(ctx, testStorageConfig(t, driver))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer db.Close()

			if db.Backend() != driver {
				t.Errorf("Backend() = %q, want %q", db.Backend(), driver)
			}

			// Migrating twice must be harmless.
			if err := db.Migrate(ctx); err != nil {
				t.Fatalf("second Migrate() error = %v", err)
			}

			var id int64
			err = db.QueryRowContext(ctx, `INSERT INTO applications (name) VALUES (?) RETURNING id`, "myapp").Scan(&id)
			if err != nil {
				t.Fatalf("insert application: %v", err)
			}
			if id == 0 {
				t.Error("expected generated id")
			}
		})
	}
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, testStorageConfig(t, BackendSQLite3))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO versions (application_id, name) VALUES (?, ?)`, 999, "1.0")
	if err == nil {
		t.Error("expected foreign key violation for unknown application")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := testStorageConfig(t, "oracle")
	_, err := Open(context.Background(), cfg)

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %T: %v", err, err)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		backend string
		query   string
		want    string
	}{
		{BackendSQLite3, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{BackendPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{BackendPostgres, "SELECT 1", "SELECT 1"},
		{BackendPostgres, "INSERT INTO t (a, b, c) VALUES (?, ?, ?)", "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"},
	}

	for _, tt := range tests {
		if got := rebind(tt.backend, tt.query); got != tt.want {
			t.Errorf("rebind(%q, %q) = %q, want %q", tt.backend, tt.query, got, tt.want)
		}
	}
}

func TestSchema_PostgresPrimaryKeys(t *testing.T) {
	for _, stmt := range Schema(BackendPostgres) {
		if strings.Contains(stmt, "AUTOINCREMENT") {
			t.Errorf("postgres schema must not use AUTOINCREMENT: %s", stmt)
		}
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := error(NewNotFoundError("variable", 12))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected NotFoundError to match ErrNotFound")
	}
	if err.Error() != `variable "12" not found` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Errorf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Errorf("Placeholders(0) = %q", got)
	}
}
