package store

import (
	"context"
	"fmt"

	"reeler/internal/domain"
)

// UpsertTrack inserts or refreshes a library track and fills in its id.
func (db *DB) UpsertTrack(track *domain.Track) error {
	query := `INSERT INTO tracks (artist_id, album_id, title, track_number, duration)
		VALUES (:artist_id, :album_id, :title, :track_number, :duration)
		ON CONFLICT(artist_id, album_id, title) DO UPDATE SET
			track_number = excluded.track_number,
			duration = excluded.duration
		RETURNING id`

	rows, err := db.NamedQuery(query, track)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&track.ID); err != nil {
			return fmt.Errorf("failed to scan track id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}

	return nil
}

// TracksForAlbum returns the catalog tracks of one album in track order.
// It satisfies the registry and queue TrackIndex interfaces.
func (db *DB) TracksForAlbum(ctx context.Context, artistID, albumID string) ([]domain.Track, error) {
	query := `SELECT id, artist_id, album_id, title, track_number, duration
		FROM tracks WHERE artist_id = ? AND album_id = ?
		ORDER BY track_number, id`

	var tracks []domain.Track
	err := db.SelectContext(ctx, &tracks, query, artistID, albumID)
	return tracks, err
}
