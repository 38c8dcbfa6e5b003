package store

import (
	"time"

	"reeler/internal/domain"
)

// BlacklistItem is one release excluded from future automated selection.
type BlacklistItem struct {
	ID         int64     `json:"id" db:"id"`
	DownloadID string    `json:"download_id" db:"download_id"`
	Title      string    `json:"title" db:"title"`
	ArtistID   string    `json:"artist_id" db:"artist_id"`
	AlbumID    string    `json:"album_id" db:"album_id"`
	Indexer    string    `json:"indexer" db:"indexer"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// MarkFailed records a release so automated search skips it from now on.
func (db *DB) MarkFailed(downloadID string, release domain.RemoteRelease) error {
	query := `INSERT INTO blacklist (download_id, title, artist_id, album_id, indexer, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query, downloadID, release.Title, release.ArtistID, release.AlbumID, release.Indexer, time.Now())
	return err
}

// IsBlacklisted reports whether a release title has been blacklisted.
func (db *DB) IsBlacklisted(title string) (bool, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM blacklist WHERE title = ?`, title)
	return count > 0, err
}

// ListBlacklist returns the most recent blacklist entries.
func (db *DB) ListBlacklist(limit int) ([]BlacklistItem, error) {
	query := `SELECT id, download_id, title, artist_id, album_id, indexer, created_at
		FROM blacklist ORDER BY created_at DESC, id DESC LIMIT ?`

	var items []BlacklistItem
	err := db.Select(&items, query, limit)
	return items, err
}
