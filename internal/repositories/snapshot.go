package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

const (
	MetaLastSync = "last_sync_utc"
	MetaUserID   = "user_id"
)

// SnapshotRepository reads and writes the whole cached library.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load reads the cached snapshot. A cache that was never written yields an empty snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}

	var err error
	if snap.Playlists, err = NewPlaylistRepository(r.db).List(ctx, nil); err != nil {
		return nil, err
	}
	if snap.Tracks, err = NewTrackRepository(r.db).List(ctx, nil); err != nil {
		return nil, err
	}
	if snap.Artists, err = NewArtistRepository(r.db).List(ctx); err != nil {
		return nil, err
	}
	if snap.Memberships, err = NewMembershipRepository(r.db).List(ctx, nil); err != nil {
		return nil, err
	}

	if snap.UserID, err = r.Meta(ctx, MetaUserID); err != nil {
		return nil, err
	}
	last, err := r.Meta(ctx, MetaLastSync)
	if err != nil {
		return nil, err
	}
	if last != "" {
		snap.SyncedAt = shared.ParseDBTime(last)
	}
	return snap, nil
}

// Save replaces the cached library with snap in one transaction and records the sync metadata.
func (r *SnapshotRepository) Save(ctx context.Context, snap *models.Snapshot) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		playlists := NewPlaylistRepository(tx)
		tracks := NewTrackRepository(tx)
		artists := NewArtistRepository(tx)
		memberships := NewMembershipRepository(tx)

		if err := playlists.DeleteAll(ctx); err != nil {
			return err
		}
		if err := tracks.DeleteAll(ctx); err != nil {
			return err
		}
		if err := artists.DeleteAll(ctx); err != nil {
			return err
		}

		for _, p := range snap.Playlists {
			if err := playlists.Upsert(ctx, p); err != nil {
				return err
			}
		}
		for _, t := range snap.Tracks {
			if err := tracks.Upsert(ctx, t); err != nil {
				return err
			}
		}
		for _, a := range snap.Artists {
			if err := artists.Upsert(ctx, a); err != nil {
				return err
			}
		}
		for _, m := range snap.Memberships {
			if err := memberships.Insert(ctx, m); err != nil {
				return err
			}
		}

		syncedAt := snap.SyncedAt
		if syncedAt.IsZero() {
			syncedAt = time.Now()
		}
		if err := setMeta(ctx, tx, MetaLastSync, syncedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
		return setMeta(ctx, tx, MetaUserID, snap.UserID)
	})
}

// Meta returns a sync_meta value, or "" when unset.
func (r *SnapshotRepository) Meta(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM sync_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes a sync_meta value.
func (r *SnapshotRepository) SetMeta(ctx context.Context, key, value string) error {
	return setMeta(ctx, r.db, key, value)
}

func setMeta(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO sync_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}
