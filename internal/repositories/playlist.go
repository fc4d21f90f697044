package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// PlaylistRepository persists cached playlists.
type PlaylistRepository struct {
	db Querier
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db Querier) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = `id, name, owner_id, is_owned, track_count, snapshot_id, description, public`

// Upsert inserts the playlist or replaces the stored row with the same ID.
func (r *PlaylistRepository) Upsert(ctx context.Context, p models.Playlist) error {
	query := `
		INSERT INTO playlists (` + playlistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			is_owned = excluded.is_owned,
			track_count = excluded.track_count,
			snapshot_id = excluded.snapshot_id,
			description = excluded.description,
			public = excluded.public
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.OwnerID, p.IsOwned, p.TrackCount, p.SnapshotID, p.Description, p.Public)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", p.ID, err)
	}
	return nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id)
	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return p, err
}

// List retrieves playlists matching the criteria, ordered by name.
//
// Supported criteria: "is_owned" (bool), "name" (string), "exclude_liked" (bool).
func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE 1 = 1`
	args := []any{}

	if owned, ok := criteria["is_owned"].(bool); ok {
		query += " AND is_owned = ?"
		args = append(args, owned)
	}
	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}
	if exclude, ok := criteria["exclude_liked"].(bool); ok && exclude {
		query += " AND id != ?"
		args = append(args, models.LikedSongsID)
	}

	query += " ORDER BY name COLLATE NOCASE ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// DeleteAll removes every playlist. Memberships cascade.
func (r *PlaylistRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM playlists"); err != nil {
		return fmt.Errorf("failed to clear playlists: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var p models.Playlist
	if err := s.Scan(&p.ID, &p.Name, &p.OwnerID, &p.IsOwned, &p.TrackCount, &p.SnapshotID, &p.Description, &p.Public); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}
