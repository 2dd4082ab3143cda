// Package baseline stores the file hashes of the previous analysis.
package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS files (
    module_key TEXT NOT NULL,
    path TEXT NOT NULL,
    hash TEXT NOT NULL,
    analyzed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (module_key, path)
);
`

// Entry is one file of an analysis.
type Entry struct {
	Path string // module relative, forward slashes
	Hash string
}

// Key returns the key a module is stored under on a branch.
func Key(moduleKey, branch string) string {
	if branch == "" {
		return moduleKey
	}
	return moduleKey + ":" + branch
}

// Repository reads and writes previous analyses in a SQLite database.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create baseline directory: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open baseline: %w", err)
	}
	// SQLite has a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create baseline schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Lookup returns the hash recorded for a file. found is false when the file
// was not part of the previous analysis.
func (r *Repository) Lookup(ctx context.Context, key, path string) (hash string, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT hash FROM files WHERE module_key = ? AND path = ?`, key, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", path, err)
	}
	return hash, true, nil
}

// Snapshot returns every hash recorded for a module, keyed by path.
func (r *Repository) Snapshot(ctx context.Context, key string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, hash FROM files WHERE module_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("load baseline of %s: %w", key, err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// Save replaces the recorded files of a module.
func (r *Repository) Save(ctx context.Context, key string, entries []Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE module_key = ?`, key); err != nil {
		return fmt.Errorf("clear baseline of %s: %w", key, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files (module_key, path, hash, analyzed_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, key, e.Path, e.Hash, now); err != nil {
			return fmt.Errorf("save %s: %w", e.Path, err)
		}
	}
	return tx.Commit()
}
