package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/variables"
)

const variableColumns = `id, name, value, application_id, version_id, environment_id, release_date,
    internal, protected, description, reservable, time_to_live, creation_date`

const microsPerDay = int64(24 * time.Hour / time.Microsecond)

// errConflict aborts a reservation transaction.
var errConflict = errors.New("variable already reserved")

// SQLStorage implements variables.Store on the shared database.
type SQLStorage struct {
	db     *store.DB
	opts   options
	logger *slog.Logger
}

// NewSQLStorage creates a variable store on an opened database.
func NewSQLStorage(db *store.DB, opts ...Option) *SQLStorage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLStorage{
		db:     db,
		opts:   o,
		logger: slog.Default().With("component", "variables.storage"),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (*variables.Variable, error) {
	var v variables.Variable
	var app, version, env, release sql.NullInt64
	var created int64

	err := row.Scan(
		&v.ID, &v.Name, &v.Value, &app, &version, &env, &release,
		&v.Internal, &v.Protected, &v.Description, &v.Reservable, &v.TimeToLive, &created,
	)
	if err != nil {
		return nil, err
	}

	v.Application = store.IDPtr(app)
	v.Version = store.IDPtr(version)
	v.Environment = store.IDPtr(env)
	if release.Valid {
		t := time.UnixMicro(release.Int64).UTC()
		v.ReleaseDate = &t
	}
	v.CreationDate = time.UnixMicro(created).UTC()
	return &v, nil
}

// List returns every variable ordered by id.
func (s *SQLStorage) List(ctx context.Context) ([]variables.Variable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+variableColumns+` FROM variables ORDER BY id`)
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list", err)
	}
	defer rows.Close()

	results := []variables.Variable{}
	index := make(map[int64]int)
	for rows.Next() {
		v, err := scanRow(rows)
		if err != nil {
			return nil, store.NewStorageError(s.db.Backend(), "scan", err)
		}
		index[v.ID] = len(results)
		results = append(results, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list", err)
	}

	links, err := s.db.QueryContext(ctx, `SELECT variable_id, test_id FROM variable_tests ORDER BY variable_id, test_id`)
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list tests", err)
	}
	defer links.Close()

	for links.Next() {
		var variableID, testID int64
		if err := links.Scan(&variableID, &testID); err != nil {
			return nil, store.NewStorageError(s.db.Backend(), "scan tests", err)
		}
		if i, ok := index[variableID]; ok {
			results[i].Tests = append(results[i].Tests, testID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list tests", err)
	}
	return results, nil
}

// Get returns the variable with the given id.
func (s *SQLStorage) Get(ctx context.Context, id int64) (*variables.Variable, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+variableColumns+` FROM variables WHERE id = ?`, id)
	v, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("variable", id)
	}
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "get", err)
	}

	tests, err := s.tests(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	v.Tests = tests
	return v, nil
}

func (s *SQLStorage) tests(ctx context.Context, q store.Querier, id int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT test_id FROM variable_tests WHERE variable_id = ? ORDER BY test_id`, id)
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "get tests", err)
	}
	defer rows.Close()

	var tests []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, store.NewStorageError(s.db.Backend(), "scan tests", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "get tests", err)
	}
	return tests, nil
}

func releaseArg(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

// Create inserts v and its test links, assigning its id and creation date.
func (s *SQLStorage) Create(ctx context.Context, v *variables.Variable) error {
	v.CreationDate = s.opts.now().UTC().Truncate(time.Microsecond)

	return s.db.InTx(ctx, func(tx *store.Tx) error {
		err := tx.QueryRowContext(ctx, `
INSERT INTO variables (
    name, value, application_id, version_id, environment_id, release_date,
    internal, protected, description, reservable, time_to_live, creation_date
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`,
			v.Name, v.Value, store.NullID(v.Application), store.NullID(v.Version), store.NullID(v.Environment),
			releaseArg(v.ReleaseDate), v.Internal, v.Protected, v.Description, v.Reservable, v.TimeToLive,
			v.CreationDate.UnixMicro(),
		).Scan(&v.ID)
		if err != nil {
			return store.WriteError(s.db.Backend(), "variable", "insert", err)
		}
		return s.writeTests(ctx, tx, v)
	})
}

func (s *SQLStorage) writeTests(ctx context.Context, tx *store.Tx, v *variables.Variable) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM variable_tests WHERE variable_id = ?`, v.ID); err != nil {
		return store.NewStorageError(s.db.Backend(), "clear tests", err)
	}
	seen := make(map[int64]bool, len(v.Tests))
	for _, t := range v.Tests {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, err := tx.ExecContext(ctx, `INSERT INTO variable_tests (variable_id, test_id) VALUES (?, ?)`, v.ID, t); err != nil {
			return store.WriteError(s.db.Backend(), "test case", "link test", err)
		}
	}
	return nil
}

// Update overwrites a stored variable and its test links, keeping its
// creation date.
func (s *SQLStorage) Update(ctx context.Context, v *variables.Variable) error {
	return s.db.InTx(ctx, func(tx *store.Tx) error {
		var created int64
		err := tx.QueryRowContext(ctx, `SELECT creation_date FROM variables WHERE id = ?`, v.ID).Scan(&created)
		if errors.Is(err, sql.ErrNoRows) {
			return store.NewNotFoundError("variable", v.ID)
		}
		if err != nil {
			return store.NewStorageError(s.db.Backend(), "update", err)
		}
		v.CreationDate = time.UnixMicro(created).UTC()

		_, err = tx.ExecContext(ctx, `
UPDATE variables SET
    name = ?, value = ?, application_id = ?, version_id = ?, environment_id = ?, release_date = ?,
    internal = ?, protected = ?, description = ?, reservable = ?, time_to_live = ?
WHERE id = ?`,
			v.Name, v.Value, store.NullID(v.Application), store.NullID(v.Version), store.NullID(v.Environment),
			releaseArg(v.ReleaseDate), v.Internal, v.Protected, v.Description, v.Reservable, v.TimeToLive,
			v.ID,
		)
		if err != nil {
			return store.WriteError(s.db.Backend(), "variable", "update", err)
		}
		return s.writeTests(ctx, tx, v)
	})
}

// Delete removes a variable. Unknown ids are ignored.
func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE id = ?`, id); err != nil {
		return store.NewStorageError(s.db.Backend(), "delete", err)
	}
	return nil
}

// ReleaseExpired clears reservations ending at or before now.
func (s *SQLStorage) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE variables SET release_date = NULL WHERE release_date IS NOT NULL AND release_date <= ?`,
		now.UnixMicro())
	if err != nil {
		return 0, store.NewStorageError(s.db.Backend(), "release", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes variables whose time to live elapsed.
func (s *SQLStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM variables WHERE time_to_live > 0 AND creation_date < CAST(? AS BIGINT) - time_to_live * CAST(? AS BIGINT)`,
		now.UnixMicro(), microsPerDay)
	if err != nil {
		return 0, store.NewStorageError(s.db.Backend(), "delete expired", err)
	}
	return result.RowsAffected()
}

// Reserve sets the release date of every id in one transaction. The
// release_date IS NULL guard makes concurrent reservations of the same
// variable exclusive.
func (s *SQLStorage) Reserve(ctx context.Context, ids []int64, until time.Time) ([]int64, error) {
	var conflicts []int64
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		for _, id := range ids {
			result, err := tx.ExecContext(ctx,
				`UPDATE variables SET release_date = ? WHERE id = ? AND release_date IS NULL`,
				until.UnixMicro(), id)
			if err != nil {
				return store.NewStorageError(s.db.Backend(), "reserve", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return store.NewStorageError(s.db.Backend(), "reserve", err)
			}
			if affected == 0 {
				conflicts = append(conflicts, id)
			}
		}
		if len(conflicts) > 0 {
			return errConflict
		}
		return nil
	})
	if errors.Is(err, errConflict) {
		s.logger.Debug("reservation lost", "variable_ids", conflicts)
		return conflicts, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

var _ variables.Store = (*SQLStorage)(nil)
