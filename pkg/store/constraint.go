package store

import (
	"errors"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Extended sqlite result codes, shared by both sqlite drivers.
const (
	sqliteConstraintForeignKey = 787
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// codedError matches modernc.org/sqlite errors without importing its lib package.
type codedError interface {
	Code() int
}

// IsUniqueViolation reports whether err was caused by a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var coded codedError
	if errors.As(err, &coded) {
		return coded.Code() == sqliteConstraintUnique || coded.Code() == sqliteConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err was caused by a reference to a missing row.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var coded codedError
	if errors.As(err, &coded) {
		return coded.Code() == sqliteConstraintForeignKey
	}
	return false
}

// WriteError classifies a failed insert or update. Constraint failures become
// ConflictErrors; everything else becomes a StorageError.
func WriteError(backend, kind, operation string, err error) error {
	switch {
	case IsUniqueViolation(err):
		return &ConflictError{Kind: kind, Message: "an identical record already exists"}
	case IsForeignKeyViolation(err):
		return &ConflictError{Kind: kind, Message: "references a record that does not exist"}
	}
	return NewStorageError(backend, operation, err)
}
