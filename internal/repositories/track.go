package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
)

// TrackRepository persists tracks and their ordered artist IDs.
type TrackRepository struct {
	db Querier
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db Querier) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert writes a track and replaces its artist links.
func (r *TrackRepository) Upsert(ctx context.Context, t models.Track) error {
	query := `
		INSERT INTO tracks (id, name, artist, album, duration_ms, popularity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			artist = excluded.artist,
			album = excluded.album,
			duration_ms = excluded.duration_ms,
			popularity = excluded.popularity
	`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Artist, t.Album, t.DurationMS, t.Popularity); err != nil {
		return fmt.Errorf("failed to upsert track %s: %w", t.ID, err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM track_artists WHERE track_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear artists of track %s: %w", t.ID, err)
	}
	for i, artistID := range t.ArtistIDs {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO track_artists (track_id, artist_id, position) VALUES (?, ?, ?)", t.ID, artistID, i)
		if err != nil {
			return fmt.Errorf("failed to link artist %s to track %s: %w", artistID, t.ID, err)
		}
	}
	return nil
}

// List retrieves tracks, optionally restricted to one playlist ("playlist_id") in position order.
func (r *TrackRepository) List(ctx context.Context, criteria map[string]any) ([]models.Track, error) {
	query := `SELECT t.id, t.name, t.artist, t.album, t.duration_ms, t.popularity FROM tracks t`
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += ` JOIN playlist_tracks pt ON pt.track_id = t.id WHERE pt.playlist_id = ? ORDER BY pt.position ASC`
		args = append(args, playlistID)
	} else {
		query += ` ORDER BY t.id ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Name, &t.Artist, &t.Album, &t.DurationMS, &t.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	links, err := r.artistLinks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		tracks[i].ArtistIDs = links[tracks[i].ID]
	}
	return tracks, nil
}

func (r *TrackRepository) artistLinks(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT track_id, artist_id FROM track_artists ORDER BY track_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query track artists: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var trackID, artistID string
		if err := rows.Scan(&trackID, &artistID); err != nil {
			return nil, fmt.Errorf("failed to scan track artist: %w", err)
		}
		links[trackID] = append(links[trackID], artistID)
	}
	return links, rows.Err()
}

// DeleteAll removes every track. Links and memberships cascade.
func (r *TrackRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tracks"); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return nil
}
