package store

import (
	"database/sql"
	"time"

	"github.com/quangtran/tubequeue/internal/domain"
)

// Append inserts a terminal outcome. The timestamp is assigned here;
// entries are never mutated afterwards.
func (db *DB) Append(entry *domain.HistoryEntry) error {
	entry.CreatedAt = time.Now()

	res, err := db.Exec(`
		INSERT INTO history (title, url, platform, format, file_size, duration, filename, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Title, entry.URL, entry.Platform, entry.Format, entry.FileSize,
		entry.Duration, entry.Filename, entry.Status, entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		entry.ID = id
	}
	return nil
}

// List returns the most recent entries, newest first.
func (db *DB) List(limit int) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry
	err := db.Select(&entries, `
		SELECT id, title, url, platform, format, file_size, duration, filename, status, error, created_at
		FROM history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return entries, err
}

// Search returns entries whose title, platform, or url contains the query
// substring, newest first.
func (db *DB) Search(query string, limit int) ([]*domain.HistoryEntry, error) {
	pattern := "%" + query + "%"
	var entries []*domain.HistoryEntry
	err := db.Select(&entries, `
		SELECT id, title, url, platform, format, file_size, duration, filename, status, error, created_at
		FROM history
		WHERE title LIKE ? OR platform LIKE ? OR url LIKE ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, pattern, pattern, pattern, limit)
	return entries, err
}

// Get returns one entry by id, nil when missing.
func (db *DB) Get(id int64) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	err := db.DB.Get(&entry, `
		SELECT id, title, url, platform, format, file_size, duration, filename, status, error, created_at
		FROM history WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes one entry by id.
func (db *DB) Delete(id int64) error {
	_, err := db.Exec("DELETE FROM history WHERE id = ?", id)
	return err
}

// Clear removes every entry. Files on disk are untouched.
func (db *DB) Clear() error {
	_, err := db.Exec("DELETE FROM history")
	return err
}

// Export returns every entry, newest first, for external consumption.
func (db *DB) Export() ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry
	err := db.Select(&entries, `
		SELECT id, title, url, platform, format, file_size, duration, filename, status, error, created_at
		FROM history ORDER BY created_at DESC, id DESC`)
	return entries, err
}
