package services

import (
	"context"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
)

// Service defines the library operations the sync pipeline and playlist planner need from a music provider.
type Service interface {
	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playlists returns every playlist the user owns or follows, following all pages.
	// IsOwned is left for the caller to set against the current user.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistItems returns all tracks in a playlist in position order. Local files and episodes are skipped.
	PlaylistItems(ctx context.Context, playlistID string) ([]TrackItem, error)

	// LikedSongs returns the user's saved tracks, most recently added first.
	LikedSongs(ctx context.Context) ([]TrackItem, error)

	// Artists looks up artists by ID, batching requests as needed.
	Artists(ctx context.Context, ids []string) ([]models.Artist, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends tracks to a playlist. At most [MaxTracksPerRequest] per call.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveTracks removes every occurrence of the tracks from a playlist. At most [MaxTracksPerRequest] per call.
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// UpdateDescription replaces a playlist's description.
	UpdateDescription(ctx context.Context, playlistID, description string) error

	// Unfollow removes a playlist from the user's library. For owned playlists this is how Spotify deletes them.
	Unfollow(ctx context.Context, playlistID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// MaxTracksPerRequest is the upper bound the Web API accepts for playlist add and remove calls.
const MaxTracksPerRequest = 100

// TrackItem is a track with the time it was added to a playlist or the library.
type TrackItem struct {
	Track   models.Track
	AddedAt time.Time
}
