package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/store"
)

// SQLStorage implements commons.Store on the shared database.
type SQLStorage struct {
	db     *store.DB
	logger *slog.Logger
}

// NewSQLStorage creates a commons store on an opened database.
func NewSQLStorage(db *store.DB) *SQLStorage {
	return &SQLStorage{
		db:     db,
		logger: slog.Default().With("component", "commons.storage"),
	}
}

func (s *SQLStorage) storageError(op string, err error) error {
	return store.NewStorageError(s.db.Backend(), op, err)
}

// ListApplications returns applications ordered by id, optionally filtered by name.
func (s *SQLStorage) ListApplications(ctx context.Context, name string) ([]commons.Application, error) {
	query := `SELECT id, name FROM applications`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.storageError("list_applications", err)
	}
	defer rows.Close()

	var apps []commons.Application
	for rows.Next() {
		var a commons.Application
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, s.storageError("scan_application", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("list_applications", err)
	}

	for i := range apps {
		links, err := s.links(ctx, apps[i].ID)
		if err != nil {
			return nil, err
		}
		apps[i].LinkedApplications = links
	}
	return apps, nil
}

func (s *SQLStorage) links(ctx context.Context, id int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT linked_id FROM application_links WHERE application_id = ? ORDER BY linked_id`, id)
	if err != nil {
		return nil, s.storageError("list_links", err)
	}
	defer rows.Close()

	links := []int64{}
	for rows.Next() {
		var linked int64
		if err := rows.Scan(&linked); err != nil {
			return nil, s.storageError("scan_link", err)
		}
		links = append(links, linked)
	}
	return links, rows.Err()
}

// GetApplication returns the application with the given id.
func (s *SQLStorage) GetApplication(ctx context.Context, id int64) (*commons.Application, error) {
	var a commons.Application
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM applications WHERE id = ?`, id).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("application", id)
	}
	if err != nil {
		return nil, s.storageError("get_application", err)
	}

	links, err := s.links(ctx, id)
	if err != nil {
		return nil, err
	}
	a.LinkedApplications = links
	return &a, nil
}

// CreateApplication inserts app and its links in one transaction.
func (s *SQLStorage) CreateApplication(ctx context.Context, app *commons.Application) error {
	return s.db.InTx(ctx, func(tx *store.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO applications (name) VALUES (?) RETURNING id`, app.Name).Scan(&app.ID)
		if err != nil {
			return store.WriteError(s.db.Backend(), "application", "insert_application", err)
		}

		for _, linked := range app.LinkedApplications {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO application_links (application_id, linked_id) VALUES (?, ?)`, app.ID, linked); err != nil {
				return store.WriteError(s.db.Backend(), "application", "insert_link", err)
			}
		}
		return nil
	})
}

// DeleteApplication removes an application. Dependent rows cascade.
func (s *SQLStorage) DeleteApplication(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id); err != nil {
		return s.storageError("delete_application", err)
	}
	return nil
}

// ListVersions returns versions ordered by id.
func (s *SQLStorage) ListVersions(ctx context.Context, filter commons.VersionFilter) ([]commons.Version, error) {
	var conditions []string
	var args []any
	if filter.Application != 0 {
		conditions = append(conditions, "application_id = ?")
		args = append(args, filter.Application)
	}
	if filter.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, filter.Name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_id, name FROM versions`+where(conditions)+` ORDER BY id`, args...)
	if err != nil {
		return nil, s.storageError("list_versions", err)
	}
	defer rows.Close()

	var versions []commons.Version
	for rows.Next() {
		var v commons.Version
		if err := rows.Scan(&v.ID, &v.Application, &v.Name); err != nil {
			return nil, s.storageError("scan_version", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetVersion returns the version with the given id.
func (s *SQLStorage) GetVersion(ctx context.Context, id int64) (*commons.Version, error) {
	var v commons.Version
	err := s.db.QueryRowContext(ctx,
		`SELECT id, application_id, name FROM versions WHERE id = ?`, id).Scan(&v.ID, &v.Application, &v.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("version", id)
	}
	if err != nil {
		return nil, s.storageError("get_version", err)
	}
	return &v, nil
}

// CreateVersion inserts v.
func (s *SQLStorage) CreateVersion(ctx context.Context, v *commons.Version) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO versions (application_id, name) VALUES (?, ?) RETURNING id`, v.Application, v.Name).Scan(&v.ID)
	if err != nil {
		return store.WriteError(s.db.Backend(), "version", "insert_version", err)
	}
	return nil
}

// DeleteVersion removes a version.
func (s *SQLStorage) DeleteVersion(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, id); err != nil {
		return s.storageError("delete_version", err)
	}
	return nil
}

// ListEnvironments returns environments ordered by id, optionally filtered by name.
func (s *SQLStorage) ListEnvironments(ctx context.Context, name string) ([]commons.Environment, error) {
	query := `SELECT id, name, generic_environment_id FROM environments`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.storageError("list_environments", err)
	}
	defer rows.Close()

	var envs []commons.Environment
	for rows.Next() {
		var e commons.Environment
		var generic sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &generic); err != nil {
			return nil, s.storageError("scan_environment", err)
		}
		e.GenericEnvironment = store.IDPtr(generic)
		envs = append(envs, e)
	}
	return envs, rows.Err()
}

// GetEnvironment returns the environment with the given id.
func (s *SQLStorage) GetEnvironment(ctx context.Context, id int64) (*commons.Environment, error) {
	var e commons.Environment
	var generic sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, generic_environment_id FROM environments WHERE id = ?`, id).Scan(&e.ID, &e.Name, &generic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("environment", id)
	}
	if err != nil {
		return nil, s.storageError("get_environment", err)
	}
	e.GenericEnvironment = store.IDPtr(generic)
	return &e, nil
}

// CreateEnvironment inserts env.
func (s *SQLStorage) CreateEnvironment(ctx context.Context, env *commons.Environment) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO environments (name, generic_environment_id) VALUES (?, ?) RETURNING id`,
		env.Name, store.NullID(env.GenericEnvironment)).Scan(&env.ID)
	if err != nil {
		return store.WriteError(s.db.Backend(), "environment", "insert_environment", err)
	}
	return nil
}

// DeleteEnvironment removes an environment.
func (s *SQLStorage) DeleteEnvironment(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id); err != nil {
		return s.storageError("delete_environment", err)
	}
	return nil
}

// ListTestCases returns test cases ordered by id.
func (s *SQLStorage) ListTestCases(ctx context.Context, filter commons.TestCaseFilter) ([]commons.TestCase, error) {
	var conditions []string
	var args []any
	if filter.Application != 0 {
		conditions = append(conditions, "application_id = ?")
		args = append(args, filter.Application)
	}
	if filter.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, filter.Name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, application_id FROM test_cases`+where(conditions)+` ORDER BY id`, args...)
	if err != nil {
		return nil, s.storageError("list_test_cases", err)
	}
	defer rows.Close()

	var tcs []commons.TestCase
	for rows.Next() {
		var tc commons.TestCase
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Application); err != nil {
			return nil, s.storageError("scan_test_case", err)
		}
		tcs = append(tcs, tc)
	}
	return tcs, rows.Err()
}

// GetTestCase returns the test case with the given id.
func (s *SQLStorage) GetTestCase(ctx context.Context, id int64) (*commons.TestCase, error) {
	var tc commons.TestCase
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, application_id FROM test_cases WHERE id = ?`, id).Scan(&tc.ID, &tc.Name, &tc.Application)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("test case", id)
	}
	if err != nil {
		return nil, s.storageError("get_test_case", err)
	}
	return &tc, nil
}

// CreateTestCase inserts tc.
func (s *SQLStorage) CreateTestCase(ctx context.Context, tc *commons.TestCase) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO test_cases (name, application_id) VALUES (?, ?) RETURNING id`, tc.Name, tc.Application).Scan(&tc.ID)
	if err != nil {
		return store.WriteError(s.db.Backend(), "test case", "insert_test_case", err)
	}
	return nil
}

// DeleteTestCase removes a test case.
func (s *SQLStorage) DeleteTestCase(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM test_cases WHERE id = ?`, id); err != nil {
		return s.storageError("delete_test_case", err)
	}
	return nil
}

func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

var _ commons.Store = (*SQLStorage)(nil)
