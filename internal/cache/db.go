package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const responsesDDL = `CREATE TABLE IF NOT EXISTS responses (
  key TEXT PRIMARY KEY,
  value BLOB,
  stored_at TEXT
)`

// DB is a SQLite-backed response cache, used to reuse API responses across
// CLI invocations. Entries older than the TTL are dropped on read.
type DB struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenDB opens (creating if necessary) a SQLite cache at path. A
// non-positive ttl means entries never expire.
func OpenDB(path string, ttl time.Duration) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(responsesDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}

	return &DB{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached value for key, or false if absent or expired.
func (d *DB) Get(key string) ([]byte, bool) {
	var value []byte
	var storedAt string
	err := d.db.QueryRow("SELECT value, stored_at FROM responses WHERE key = ?", key).
		Scan(&value, &storedAt)
	if err != nil {
		return nil, false
	}

	if d.ttl > 0 {
		t, err := time.Parse(time.RFC3339, storedAt)
		if err != nil || d.now().Sub(t) > d.ttl {
			_, _ = d.db.Exec("DELETE FROM responses WHERE key = ?", key)
			return nil, false
		}
	}
	return value, true
}

// Put stores value under key, replacing any previous entry.
func (d *DB) Put(key string, value []byte) {
	_, _ = d.db.Exec(`INSERT OR REPLACE INTO responses (key, value, stored_at) VALUES (?, ?, ?)`,
		key, value, d.now().Format(time.RFC3339))
}

// Purge removes all entries older than the TTL. No-op when the cache does
// not expire.
func (d *DB) Purge() error {
	if d.ttl <= 0 {
		return nil
	}
	cutoff := d.now().Add(-d.ttl).Format(time.RFC3339)
	_, err := d.db.Exec("DELETE FROM responses WHERE stored_at < ?", cutoff)
	return err
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
