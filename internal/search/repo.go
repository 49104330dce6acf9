package search

import (
	"fmt"
)

// Row is one indexed vault entry.
type Row struct {
	Path      string // id-path from the root, e.g. "folderId/noteId"
	ID        string
	Label     string
	Body      string // plain text; empty for encrypted notes
	Encrypted bool
	UpdatedAt int64 // epoch milliseconds
}

// Result is one search hit.
type Result struct {
	Path    string `json:"path"`
	ID      string `json:"id"`
	Label   string `json:"label"`
	Snippet string `json:"snippet"`
}

// Upsert inserts or replaces an entry and its FTS record in a transaction.
func (db *DB) Upsert(r Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	encrypted := 0
	if r.Encrypted {
		encrypted = 1
	}
	_, err = tx.Exec(`
		INSERT INTO entries (path, id, label, body, encrypted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id         = excluded.id,
			label      = excluded.label,
			body       = excluded.body,
			encrypted  = excluded.encrypted,
			updated_at = excluded.updated_at
	`, r.Path, r.ID, r.Label, r.Body, encrypted, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("search: upsert entry: %w", err)
	}

	if err := ftsUpsert(tx, r.Path, r.Label, r.Body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes an entry and, when the path names a folder, its whole
// subtree.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeletePrefix(tx, path)
	_, _ = tx.Exec(`DELETE FROM entries WHERE path = ? OR path LIKE ? || '/%'`, path, path)

	return tx.Commit()
}

// AllUpdatedAts returns updated_at for every indexed path, for cheap
// reconciliation against the vault tree.
func (db *DB) AllUpdatedAts() (map[string]int64, error) {
	rows, err := db.conn.Query(`SELECT path, updated_at FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("search: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var p string
		var at int64
		if err := rows.Scan(&p, &at); err != nil {
			return nil, err
		}
		out[p] = at
	}
	return out, rows.Err()
}
