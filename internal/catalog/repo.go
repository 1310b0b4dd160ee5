package catalog

import (
	"fmt"

	"github.com/starford/ebi/internal/tag"
)

// Verify *DB satisfies tag.Store at compile time.
var _ tag.Store = (*DB)(nil)

// InsertTag stores a new tag definition.
func (db *DB) InsertTag(t tag.Tag) error {
	_, err := db.conn.Exec(`
		INSERT INTO tags (id, priority, name, parent_id)
		VALUES (?, ?, ?, ?)
	`, int64(t.ID), int64(t.Priority), t.Name, int64(t.Parent))
	if err != nil {
		return fmt.Errorf("catalog: insert tag: %w", err)
	}
	return nil
}

// DeleteTag removes a tag and re-parents its children onto its own parent.
func (db *DB) DeleteTag(id tag.ID) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		UPDATE tags
		SET parent_id = (SELECT parent_id FROM tags WHERE id = ?)
		WHERE parent_id = ?
	`, int64(id), int64(id))
	if err != nil {
		return fmt.Errorf("catalog: reparent: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("catalog: delete tag: %w", err)
	}
	return tx.Commit()
}

// AllTags returns every stored tag.
func (db *DB) AllTags() ([]tag.Tag, error) {
	rows, err := db.conn.Query(`SELECT id, priority, name, parent_id FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all tags: %w", err)
	}
	defer rows.Close()

	var out []tag.Tag
	for rows.Next() {
		var id, priority, parent int64
		var name string
		if err := rows.Scan(&id, &priority, &name, &parent); err != nil {
			return nil, err
		}
		out = append(out, tag.Tag{
			ID:       tag.ID(id),
			Priority: uint64(priority),
			Name:     name,
			Parent:   tag.ID(parent),
		})
	}
	return out, rows.Err()
}
