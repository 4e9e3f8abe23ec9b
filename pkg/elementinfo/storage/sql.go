package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/store"
)

const elementColumns = `id, application_id, version_id, uuid, name, locator, tag_name, text,
    width, height, coord_x, coord_y, last_update, b64_image, attributes, total_search,
    tag_stability, text_stability, rectangle_stability, b64_image_stability, attributes_stability`

// SQLStorage implements elementinfo.Store on the shared database.
type SQLStorage struct {
	db     *store.DB
	opts   options
	logger *slog.Logger
}

// NewSQLStorage creates an element store on an opened database.
func NewSQLStorage(db *store.DB, opts ...Option) *SQLStorage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLStorage{
		db:     db,
		opts:   o,
		logger: slog.Default().With("component", "elementinfo.storage"),
	}
}

// List returns matching elements ordered by id.
func (s *SQLStorage) List(ctx context.Context, query elementinfo.Query) ([]elementinfo.Element, error) {
	conditions, args := buildWhereClause(query)

	q := `SELECT ` + elementColumns + ` FROM element_infos`
	if len(conditions) > 0 {
		q += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list", err)
	}
	defer rows.Close()

	results := []elementinfo.Element{}
	for rows.Next() {
		e, err := scanRow(rows)
		if err != nil {
			return nil, store.NewStorageError(s.db.Backend(), "scan", err)
		}
		results = append(results, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "list", err)
	}
	return results, nil
}

func buildWhereClause(query elementinfo.Query) ([]string, []any) {
	var conditions []string
	var args []any

	if query.Application != nil {
		conditions = append(conditions, "application_id = ?")
		args = append(args, *query.Application)
	}
	if len(query.IDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id IN (%s)", store.Placeholders(len(query.IDs))))
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}
	return conditions, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (*elementinfo.Element, error) {
	var e elementinfo.Element
	var app, version sql.NullInt64
	var lastUpdate int64
	var image sql.NullString

	err := row.Scan(
		&e.ID, &app, &version, &e.UUID, &e.Name, &e.Locator, &e.TagName, &e.Text,
		&e.Width, &e.Height, &e.CoordX, &e.CoordY, &lastUpdate, &image, &e.Attributes, &e.TotalSearch,
		&e.TagStability, &e.TextStability, &e.RectangleStability, &e.B64ImageStability, &e.AttributesStability,
	)
	if err != nil {
		return nil, err
	}

	e.Application = store.IDPtr(app)
	e.Version = store.IDPtr(version)
	e.LastUpdate = time.UnixMicro(lastUpdate).UTC()
	if image.Valid {
		img := image.String
		e.B64Image = &img
	}
	return &e, nil
}

// Get returns the element with the given id.
func (s *SQLStorage) Get(ctx context.Context, id int64) (*elementinfo.Element, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+elementColumns+` FROM element_infos WHERE id = ?`, id)
	e, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError("element info", id)
	}
	if err != nil {
		return nil, store.NewStorageError(s.db.Backend(), "get", err)
	}
	return e, nil
}

// Create inserts e, assigning its id and LastUpdate.
func (s *SQLStorage) Create(ctx context.Context, e *elementinfo.Element) error {
	e.LastUpdate = s.opts.now().UTC().Truncate(time.Microsecond)

	err := s.db.QueryRowContext(ctx, `
INSERT INTO element_infos (
    application_id, version_id, uuid, name, locator, tag_name, text,
    width, height, coord_x, coord_y, last_update, b64_image, attributes, total_search,
    tag_stability, text_stability, rectangle_stability, b64_image_stability, attributes_stability
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`, writeArgs(e)...).Scan(&e.ID)
	if err != nil {
		return store.WriteError(s.db.Backend(), "element info", "insert", err)
	}
	return nil
}

// Update overwrites the stored element and bumps LastUpdate.
func (s *SQLStorage) Update(ctx context.Context, e *elementinfo.Element) error {
	e.LastUpdate = s.opts.now().UTC().Truncate(time.Microsecond)

	args := append(writeArgs(e), e.ID)
	result, err := s.db.ExecContext(ctx, `
UPDATE element_infos SET
    application_id = ?, version_id = ?, uuid = ?, name = ?, locator = ?, tag_name = ?, text = ?,
    width = ?, height = ?, coord_x = ?, coord_y = ?, last_update = ?, b64_image = ?, attributes = ?,
    total_search = ?, tag_stability = ?, text_stability = ?, rectangle_stability = ?,
    b64_image_stability = ?, attributes_stability = ?
WHERE id = ?`, args...)
	if err != nil {
		return store.WriteError(s.db.Backend(), "element info", "update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStorageError(s.db.Backend(), "update", err)
	}
	if affected == 0 {
		return store.NewNotFoundError("element info", e.ID)
	}
	return nil
}

func writeArgs(e *elementinfo.Element) []any {
	var image sql.NullString
	if e.B64Image != nil {
		image = sql.NullString{String: *e.B64Image, Valid: true}
	}
	return []any{
		store.NullID(e.Application), store.NullID(e.Version), e.UUID, e.Name, e.Locator, e.TagName, e.Text,
		e.Width, e.Height, e.CoordX, e.CoordY, e.LastUpdate.UnixMicro(), image, e.Attributes, e.TotalSearch,
		e.TagStability, e.TextStability, e.RectangleStability, e.B64ImageStability, e.AttributesStability,
	}
}

// Delete removes an element. Unknown ids are ignored.
func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM element_infos WHERE id = ?`, id); err != nil {
		return store.NewStorageError(s.db.Backend(), "delete", err)
	}
	return nil
}

// Count returns the number of stored elements.
func (s *SQLStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM element_infos`).Scan(&n); err != nil {
		return 0, store.NewStorageError(s.db.Backend(), "count", err)
	}
	return n, nil
}

var _ elementinfo.Store = (*SQLStorage)(nil)
