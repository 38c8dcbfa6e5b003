package store

import (
	"time"

	"github.com/google/uuid"

	"reeler/internal/constants"
)

// Event is one queue lifecycle event kept for the history view.
type Event struct {
	ID         string    `json:"id" db:"id"`
	Type       string    `json:"type" db:"type"`
	DownloadID string    `json:"download_id" db:"download_id"`
	Title      string    `json:"title" db:"title"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AddEvent appends a history event, assigning it an id.
func (db *DB) AddEvent(eventType, downloadID, title, detail string) error {
	query := `INSERT INTO history (id, type, download_id, title, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query, uuid.New().String(), eventType, downloadID, title, detail, time.Now())
	return err
}

// RecordImport satisfies the importer's history sink.
func (db *DB) RecordImport(downloadID, file, title string, success bool) error {
	eventType := constants.EventImported
	if !success {
		eventType = constants.EventImportFailed
	}
	return db.AddEvent(eventType, downloadID, title, file)
}

// ListEvents returns the most recent history events.
func (db *DB) ListEvents(limit int) ([]Event, error) {
	query := `SELECT id, type, download_id, title, detail, created_at
		FROM history ORDER BY created_at DESC, id LIMIT ?`

	var events []Event
	err := db.Select(&events, query, limit)
	return events, err
}
