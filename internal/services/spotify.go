// Spotify Web API implementation of [Service]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const (
	pageSize        = 50
	artistBatchSize = 50
)

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	// BaseURL overrides the API root, e.g. for an httptest server.
	BaseURL string
	// Delay is the minimum spacing between requests.
	Delay time.Duration
	// MaxRetries bounds attempts per call, defaulting to 6.
	MaxRetries int
	// BackoffBase is the first retry wait, defaulting to 1s.
	BackoffBase time.Duration
	// DisableAutoRetry turns off the client's built-in handling of 429 Retry-After.
	DisableAutoRetry bool
	Logger           *log.Logger
}

// SpotifyService implements the Service interface on top of [spotify.Client].
type SpotifyService struct {
	client *spotify.Client
	retry  *retrier
	logger *log.Logger
}

// NewSpotifyService wraps an authorized HTTP client (see [NewHTTPClient]).
func NewSpotifyService(httpClient *http.Client, opts SpotifyOptions) *SpotifyService {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}

	clientOpts := []spotify.ClientOption{spotify.WithRetry(!opts.DisableAutoRetry)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}

	return &SpotifyService{
		client: spotify.New(httpClient, clientOpts...),
		retry: &retrier{
			pacer:      newPacer(opts.Delay),
			maxRetries: opts.MaxRetries,
			base:       opts.BackoffBase,
			logger:     opts.Logger,
			sleep:      sleepCtx,
		},
		logger: opts.Logger,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user *spotify.PrivateUser
	err := s.retry.do(ctx, "current user", func() (err error) {
		user, err = s.client.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlists walks every page of the user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var page *spotify.SimplePlaylistPage
	err := s.retry.do(ctx, "list playlists", func() (err error) {
		page, err = s.client.CurrentUsersPlaylists(ctx, spotify.Limit(pageSize))
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []models.Playlist
	for {
		for _, p := range page.Playlists {
			out = append(out, playlistFromSimple(p))
		}

		done, err := s.nextPage(ctx, "list playlists", page)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	s.logger.Debug("fetched playlists", "count", len(out))
	return out, nil
}

func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string) ([]TrackItem, error) {
	var page *spotify.PlaylistItemPage
	op := "playlist items " + playlistID
	err := s.retry.do(ctx, op, func() (err error) {
		page, err = s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageSize))
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []TrackItem
	for {
		for _, item := range page.Items {
			if item.IsLocal || item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			out = append(out, TrackItem{Track: trackFromFull(*item.Track.Track), AddedAt: parseAddedAt(item.AddedAt)})
		}

		done, err := s.nextPage(ctx, op, page)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return out, nil
}

func (s *SpotifyService) LikedSongs(ctx context.Context) ([]TrackItem, error) {
	var page *spotify.SavedTrackPage
	err := s.retry.do(ctx, "liked songs", func() (err error) {
		page, err = s.client.CurrentUsersTracks(ctx, spotify.Limit(pageSize))
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []TrackItem
	for {
		for _, saved := range page.Tracks {
			if saved.ID == "" {
				continue
			}
			out = append(out, TrackItem{Track: trackFromFull(saved.FullTrack), AddedAt: parseAddedAt(saved.AddedAt)})
		}

		done, err := s.nextPage(ctx, "liked songs", page)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	s.logger.Debug("fetched liked songs", "count", len(out))
	return out, nil
}

// Artists fetches artists in batches of 50. Unknown IDs are skipped.
func (s *SpotifyService) Artists(ctx context.Context, ids []string) ([]models.Artist, error) {
	var out []models.Artist
	for start := 0; start < len(ids); start += artistBatchSize {
		end := min(start+artistBatchSize, len(ids))
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, spotify.ID(id))
		}

		var artists []*spotify.FullArtist
		err := s.retry.do(ctx, "artists", func() (err error) {
			artists, err = s.client.GetArtists(ctx, batch...)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, a := range artists {
			if a == nil || a.ID == "" {
				continue
			}
			out = append(out, models.Artist{
				ID:         a.ID.String(),
				Name:       a.Name,
				Genres:     a.Genres,
				Popularity: int(a.Popularity),
			})
		}
	}
	return out, nil
}

func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	var created *spotify.FullPlaylist
	err := s.retry.do(ctx, "create playlist "+name, func() (err error) {
		created, err = s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	p := playlistFromSimple(created.SimplePlaylist)
	p.IsOwned = true
	return &p, nil
}

func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := checkBatch(trackIDs); err != nil {
		return err
	}
	return s.retry.do(ctx, "add tracks "+playlistID, func() error {
		_, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...)
		return err
	})
}

func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := checkBatch(trackIDs); err != nil {
		return err
	}
	return s.retry.do(ctx, "remove tracks "+playlistID, func() error {
		_, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...)
		return err
	})
}

func (s *SpotifyService) UpdateDescription(ctx context.Context, playlistID, description string) error {
	return s.retry.do(ctx, "update description "+playlistID, func() error {
		return s.client.ChangePlaylistDescription(ctx, spotify.ID(playlistID), description)
	})
}

func (s *SpotifyService) Unfollow(ctx context.Context, playlistID string) error {
	err := s.retry.do(ctx, "unfollow "+playlistID, func() error {
		return s.client.UnfollowPlaylist(ctx, spotify.ID(playlistID))
	})
	if status, ok := statusOf(err); ok && status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return err
}

// nextPage advances page in place and reports whether the listing is exhausted.
func (s *SpotifyService) nextPage(ctx context.Context, op string, page any) (bool, error) {
	var next error
	err := s.retry.do(ctx, op, func() error {
		switch p := page.(type) {
		case *spotify.SimplePlaylistPage:
			next = s.client.NextPage(ctx, p)
		case *spotify.PlaylistItemPage:
			next = s.client.NextPage(ctx, p)
		case *spotify.SavedTrackPage:
			next = s.client.NextPage(ctx, p)
		default:
			return fmt.Errorf("%w: unsupported page type %T", shared.ErrInvalidInput, page)
		}
		if errors.Is(next, spotify.ErrNoMorePages) {
			return nil
		}
		return next
	})
	if err != nil {
		return false, err
	}
	return errors.Is(next, spotify.ErrNoMorePages), nil
}

func checkBatch(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(ids) > MaxTracksPerRequest {
		return fmt.Errorf("%w: at most %d track IDs per request", shared.ErrInvalidInput, MaxTracksPerRequest)
	}
	return nil
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func playlistFromSimple(p spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.ID.String(),
		Name:        p.Name,
		OwnerID:     p.Owner.ID,
		TrackCount:  int(p.Tracks.Total),
		SnapshotID:  p.SnapshotID,
		Description: p.Description,
		Public:      p.IsPublic,
	}
}

func trackFromFull(t spotify.FullTrack) models.Track {
	track := models.Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		Album:      t.Album.Name,
		DurationMS: int(t.Duration),
		Popularity: int(t.Popularity),
	}
	for i, a := range t.Artists {
		if i == 0 {
			track.Artist = a.Name
		}
		if a.ID != "" {
			track.ArtistIDs = append(track.ArtistIDs, a.ID.String())
		}
	}
	return track
}

// parseAddedAt reads Spotify's ISO 8601 timestamps. Very old items may lack one.
func parseAddedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
