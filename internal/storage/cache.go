package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rewire/internal/extract"
	"rewire/internal/scan"
)

// ScanCache is the SQLite-backed implementation of scan.Cache. It also
// satisfies activate.CacheInvalidator so the patch engine can drop rows
// for files it mutates.
type ScanCache struct {
	db *DB
}

// NewScanCache wraps a database as a scan cache.
func NewScanCache(db *DB) *ScanCache {
	return &ScanCache{db: db}
}

// Get returns the cached entry for a path, or nil when absent.
func (c *ScanCache) Get(path string) (*scan.CachedFile, error) {
	row := c.db.conn.QueryRow(`
		SELECT path, hash, mtime, size, language, category, line_count, runnable, exports_json, imports_json
		FROM scan_cache WHERE path = ?`, path)

	var entry scan.CachedFile
	var language, category, exportsJSON, importsJSON string
	var runnable int

	err := row.Scan(&entry.Path, &entry.Hash, &entry.Mtime, &entry.Size,
		&language, &category, &entry.LineCount, &runnable, &exportsJSON, &importsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	entry.Language = extract.Language(language)
	entry.Category = scan.Category(category)
	entry.Runnable = runnable != 0

	if err := json.Unmarshal([]byte(exportsJSON), &entry.Exports); err != nil {
		return nil, fmt.Errorf("decoding cached exports: %w", err)
	}
	if err := json.Unmarshal([]byte(importsJSON), &entry.Imports); err != nil {
		return nil, fmt.Errorf("decoding cached imports: %w", err)
	}
	return &entry, nil
}

// Put inserts or replaces the cache row for a file.
func (c *ScanCache) Put(entry *scan.CachedFile) error {
	exportsJSON, err := json.Marshal(emptyIfNil(entry.Exports))
	if err != nil {
		return err
	}
	importsJSON, err := json.Marshal(emptyIfNil(entry.Imports))
	if err != nil {
		return err
	}

	runnable := 0
	if entry.Runnable {
		runnable = 1
	}

	_, err = c.db.conn.Exec(`
		INSERT OR REPLACE INTO scan_cache
		(path, hash, mtime, size, language, category, line_count, runnable, exports_json, imports_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Path, entry.Hash, entry.Mtime, entry.Size,
		string(entry.Language), string(entry.Category), entry.LineCount, runnable,
		string(exportsJSON), string(importsJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the cache row for a file the activation engine has
// just mutated, in its own transaction, so the next scan re-reads it.
func (c *ScanCache) Invalidate(path string) error {
	return c.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM scan_cache WHERE path = ?`, path)
		return err
	})
}

// Clear drops every cache row.
func (c *ScanCache) Clear() error {
	_, err := c.db.conn.Exec(`DELETE FROM scan_cache`)
	return err
}

// Stats summarizes the cache for the status command.
type Stats struct {
	Entries   int   `json:"entries"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Stats returns entry count and the newest update timestamp.
func (c *ScanCache) Stats() (*Stats, error) {
	var s Stats
	err := c.db.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(updated_at), 0) FROM scan_cache`,
	).Scan(&s.Entries, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}
	return &s, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
