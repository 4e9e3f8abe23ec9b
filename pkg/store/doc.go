// Package store opens the relational database shared by the commons,
// element-info and variable stores.
//
// Three SQL backends are supported: "sqlite3" (cgo, github.com/mattn/go-sqlite3),
// "sqlite" (pure Go, modernc.org/sqlite) and "postgres" (github.com/jackc/pgx/v4
// through database/sql). Queries are written with "?" placeholders and
// rebound to "$n" for postgres. Timestamps are stored as Unix microseconds
// so comparisons behave the same on every backend.
//
// The package also holds the error types returned by every store
// implementation, in memory or SQL backed.
package store
