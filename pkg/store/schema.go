package store

import "strings"

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements creates every table. {{pk}} is replaced with the dialect's
// auto-increment primary key column type.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`,

	// Commons
	`CREATE TABLE IF NOT EXISTS applications (
    id {{pk}},
    name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS application_links (
    application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    linked_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    PRIMARY KEY (application_id, linked_id)
)`,
	`CREATE TABLE IF NOT EXISTS versions (
    id {{pk}},
    application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    UNIQUE (application_id, name)
)`,
	`CREATE TABLE IF NOT EXISTS environments (
    id {{pk}},
    name TEXT NOT NULL UNIQUE,
    generic_environment_id BIGINT REFERENCES environments(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS test_cases (
    id {{pk}},
    name TEXT NOT NULL,
    application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    UNIQUE (application_id, name)
)`,

	// Element info
	`CREATE TABLE IF NOT EXISTS element_infos (
    id {{pk}},
    application_id BIGINT REFERENCES applications(id) ON DELETE CASCADE,
    version_id BIGINT REFERENCES versions(id) ON DELETE CASCADE,
    uuid TEXT NOT NULL,
    name TEXT NOT NULL,
    locator TEXT NOT NULL,
    tag_name TEXT NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    coord_x INTEGER NOT NULL DEFAULT 0,
    coord_y INTEGER NOT NULL DEFAULT 0,
    last_update BIGINT NOT NULL,
    b64_image TEXT,
    attributes TEXT NOT NULL DEFAULT '{}',
    total_search INTEGER NOT NULL DEFAULT 0,
    tag_stability INTEGER NOT NULL DEFAULT 0,
    text_stability INTEGER NOT NULL DEFAULT 0,
    rectangle_stability INTEGER NOT NULL DEFAULT 0,
    b64_image_stability INTEGER NOT NULL DEFAULT 0,
    attributes_stability TEXT NOT NULL DEFAULT '{}'
)`,
	`CREATE INDEX IF NOT EXISTS idx_element_infos_application ON element_infos(application_id)`,
	`CREATE INDEX IF NOT EXISTS idx_element_infos_last_update ON element_infos(last_update)`,

	// Variables
	`CREATE TABLE IF NOT EXISTS variables (
    id {{pk}},
    name TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    application_id BIGINT REFERENCES applications(id) ON DELETE CASCADE,
    version_id BIGINT REFERENCES versions(id) ON DELETE CASCADE,
    environment_id BIGINT REFERENCES environments(id) ON DELETE CASCADE,
    release_date BIGINT,
    internal BOOLEAN NOT NULL DEFAULT FALSE,
    protected BOOLEAN NOT NULL DEFAULT FALSE,
    description TEXT NOT NULL DEFAULT '',
    reservable BOOLEAN NOT NULL DEFAULT FALSE,
    time_to_live INTEGER NOT NULL DEFAULT -1,
    creation_date BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_variables_name ON variables(name)`,
	`CREATE TABLE IF NOT EXISTS variable_tests (
    variable_id BIGINT NOT NULL REFERENCES variables(id) ON DELETE CASCADE,
    test_id BIGINT NOT NULL REFERENCES test_cases(id) ON DELETE CASCADE,
    PRIMARY KEY (variable_id, test_id)
)`,
}

const (
	insertSchemaVersion = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`
)

// Schema returns the DDL statements for a backend.
func Schema(backend string) []string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if backend == BackendPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	r := strings.NewReplacer("{{pk}}", pk)

	stmts := make([]string, len(schemaStatements))
	for i, s := range schemaStatements {
		stmts[i] = r.Replace(s)
	}
	return stmts
}
