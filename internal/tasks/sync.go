package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
)

// SyncOptions controls how much of the library is refetched.
type SyncOptions struct {
	Force bool // Ignore unchanged snapshot ids and refetch every owned playlist and artist
}

// SyncResult describes a completed sync.
type SyncResult struct {
	Snapshot         *models.Snapshot
	PlaylistsFetched int // Owned playlists whose items were downloaded
	PlaylistsReused  int // Owned playlists whose cached items were kept
	Followed         int // Followed playlists stored for counts only
	LikedSongs       int
	ArtistsFetched   int
}

// Sync fetches the user's playlists, liked songs and artists, merges them with the cache and writes the result.
//
// Owned playlists whose snapshot id matches the cached one keep their cached items unless opts.Force is set.
func (e *PlaylistEngine) Sync(ctx context.Context, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	cached, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchUserUpdate())
	user, err := e.svc.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	logger := e.logger.With("user", user.ID)

	playlists, err := e.svc.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	e.sendProgress(progress, fetchPlaylistsUpdate(len(playlists)))
	logger.Info("fetched playlists", "count", len(playlists))

	cachedByID := map[string]models.Playlist{}
	for _, p := range cached.Playlists {
		cachedByID[p.ID] = p
	}

	result := &SyncResult{}
	fetched := &models.Snapshot{UserID: user.ID, SyncedAt: e.now().UTC()}

	for i, p := range playlists {
		p.IsOwned = p.OwnerID == user.ID
		fetched.Playlists = append(fetched.Playlists, p)

		if !p.IsOwned {
			result.Followed++
			continue
		}

		old, ok := cachedByID[p.ID]
		if ok && !opts.Force && p.SnapshotID != "" && old.SnapshotID == p.SnapshotID {
			fetched.Memberships = append(fetched.Memberships, cached.MembershipsFor(p.ID)...)
			result.PlaylistsReused++
			e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), p, true))
			continue
		}

		items, err := e.svc.PlaylistItems(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch items of %q: %w", p.Name, err)
		}
		appendItems(fetched, p.ID, items)
		result.PlaylistsFetched++
		e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), p, false))
		logger.Debug("fetched playlist items", "playlist", p.Name, "tracks", len(items))
	}

	liked, err := e.svc.LikedSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
	}
	fetched.Playlists = append(fetched.Playlists, models.Playlist{
		ID:         models.LikedSongsID,
		Name:       models.LikedSongsName,
		OwnerID:    user.ID,
		IsOwned:    true,
		TrackCount: len(liked),
		SnapshotID: models.LikedSongsSnapshotID(len(liked)),
	})
	appendItems(fetched, models.LikedSongsID, liked)
	result.LikedSongs = len(liked)
	e.sendProgress(progress, fetchLikedUpdate(len(liked)))
	logger.Info("fetched liked songs", "count", len(liked))

	missing := missingArtists(cached, fetched, opts.Force)
	if len(missing) > 0 {
		e.sendProgress(progress, fetchArtistsUpdate(len(missing)))
		artists, err := e.svc.Artists(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch artists: %w", err)
		}
		fetched.Artists = artists
		result.ArtistsFetched = len(artists)
		logger.Info("fetched artists", "requested", len(missing), "returned", len(artists))
	}

	merged := MergeSnapshot(cached, fetched)
	e.sendProgress(progress, mergeUpdate(merged))

	e.sendProgress(progress, saveUpdate())
	if err := e.store.Save(ctx, merged); err != nil {
		return nil, err
	}
	result.Snapshot = merged

	logger.Info("sync complete",
		"playlists", len(merged.Playlists),
		"tracks", len(merged.Tracks),
		"artists", len(merged.Artists),
		"fetched", result.PlaylistsFetched,
		"reused", result.PlaylistsReused,
	)
	return result, nil
}

// appendItems adds tracks and position-ordered memberships for one playlist.
func appendItems(snap *models.Snapshot, playlistID string, items []services.TrackItem) {
	for pos, it := range items {
		snap.Tracks = append(snap.Tracks, it.Track)
		snap.Memberships = append(snap.Memberships, models.Membership{
			PlaylistID: playlistID,
			TrackID:    it.Track.ID,
			AddedAt:    it.AddedAt,
			Position:   pos,
		})
	}
}

// missingArtists lists artist ids referenced by the fetched tracks and by reused cached tracks
// that the cache does not hold. With force every referenced artist is listed.
func missingArtists(cached, fetched *models.Snapshot, force bool) []string {
	have := map[string]bool{}
	if !force {
		for _, a := range cached.Artists {
			have[a.ID] = true
		}
	}

	tracks := cached.TracksByID()
	for _, t := range fetched.Tracks {
		tracks[t.ID] = t
	}

	seen := map[string]bool{}
	var out []string
	for _, m := range fetched.Memberships {
		for _, id := range tracks[m.TrackID].ArtistIDs {
			if id == "" || have[id] || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
