package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// MembershipRepository persists playlist_tracks rows.
type MembershipRepository struct {
	db Querier
}

func NewMembershipRepository(db Querier) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Insert adds one membership. The playlist and track must already exist.
func (r *MembershipRepository) Insert(ctx context.Context, m models.Membership) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at) VALUES (?, ?, ?, ?)",
		m.PlaylistID, m.TrackID, m.Position, timeValue(m.AddedAt))
	if err != nil {
		return fmt.Errorf("failed to insert membership %s/%d: %w", m.PlaylistID, m.Position, err)
	}
	return nil
}

// List retrieves memberships ordered by playlist and position, optionally for one "playlist_id".
func (r *MembershipRepository) List(ctx context.Context, criteria map[string]any) ([]models.Membership, error) {
	query := "SELECT playlist_id, track_id, position, added_at FROM playlist_tracks"
	args := []any{}
	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}
	query += " ORDER BY playlist_id ASC, position ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		var m models.Membership
		var added any
		if err := rows.Scan(&m.PlaylistID, &m.TrackID, &m.Position, &added); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.AddedAt = shared.ParseDBTime(added)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
