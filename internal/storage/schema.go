package storage

import "strconv"

// The cache is rebuildable from a fresh scan, so the schema carries no
// migration machinery: a version bump drops and recreates the table.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_cache (
    path         TEXT PRIMARY KEY,
    hash         TEXT NOT NULL,
    mtime        INTEGER NOT NULL,
    size         INTEGER NOT NULL,
    language     TEXT NOT NULL,
    category     TEXT NOT NULL,
    line_count   INTEGER NOT NULL,
    runnable     INTEGER NOT NULL DEFAULT 0,
    exports_json TEXT NOT NULL DEFAULT '[]',
    imports_json TEXT NOT NULL DEFAULT '[]',
    updated_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_cache_hash ON scan_cache(hash);
`

func (db *DB) initializeSchema() error {
	version := strconv.Itoa(schemaVersion)

	var current string
	err := db.conn.QueryRow(`SELECT value FROM schema_meta WHERE key = 'version'`).Scan(&current)
	if err == nil && current != version {
		if _, err := db.conn.Exec(`DROP TABLE IF EXISTS scan_cache; DROP TABLE IF EXISTS schema_meta;`); err != nil {
			return err
		}
	}

	if _, err := db.conn.Exec(schemaSQL); err != nil {
		return err
	}
	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO schema_meta (key, value) VALUES ('version', ?)`,
		version,
	)
	return err
}
