//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			source UNINDEXED,
			project UNINDEXED,
			kind UNINDEXED,
			ref UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, src Source, it Item) error {
	_, err := tx.Exec(`INSERT INTO items_fts (source, project, kind, ref, title, body) VALUES (?, ?, ?, ?, ?, ?)`,
		src.Path, src.Project, it.Kind, it.Ref, it.Title, it.Body)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, source string) {
	_, _ = tx.Exec(`DELETE FROM items_fts WHERE source = ?`, source)
}

// Search performs an FTS5 full-text search and returns matching results with
// snippets. An empty project searches every project.
func (db *DB) Search(project, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT project,
		       kind,
		       ref,
		       title,
		       snippet(items_fts, 5, '<b>', '</b>', '...', 32),
		       source
		FROM items_fts
		WHERE items_fts MATCH ? AND (? = '' OR project = ?)
		ORDER BY rank
		LIMIT ?
	`, query, project, project, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Project, &r.Kind, &r.Ref, &r.Title, &r.Snippet, &r.Source); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
