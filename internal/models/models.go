package models

import (
	"fmt"
	"slices"
	"time"
)

const (
	// LikedSongsID identifies the pseudo playlist holding the user's saved tracks.
	LikedSongsID   = "__liked_songs__"
	LikedSongsName = "❤️ Liked Songs"
)

// LikedSongsSnapshotID returns the snapshot id recorded for liked songs. It changes whenever the count does.
func LikedSongsSnapshotID(count int) string {
	return fmt.Sprintf("liked_songs_%d", count)
}

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type Playlist struct {
	ID          string `json:"playlist_id"`
	Name        string `json:"name"`
	OwnerID     string `json:"owner_id"`
	IsOwned     bool   `json:"is_owned"`
	TrackCount  int    `json:"track_count"`
	SnapshotID  string `json:"snapshot_id"`
	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
}

// IsLikedSongs reports whether p is the liked songs pseudo playlist.
func (p Playlist) IsLikedSongs() bool { return p.ID == LikedSongsID }

// Track holds metadata for one track. Artist is the primary artist's name.
type Track struct {
	ID         string   `json:"track_id"`
	Name       string   `json:"name"`
	ArtistIDs  []string `json:"artist_ids"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
}

// Equal compares all fields including the artist order.
func (t Track) Equal(o Track) bool {
	return t.ID == o.ID && t.Name == o.Name && t.Artist == o.Artist && t.Album == o.Album &&
		t.DurationMS == o.DurationMS && t.Popularity == o.Popularity && slices.Equal(t.ArtistIDs, o.ArtistIDs)
}

type Artist struct {
	ID         string   `json:"artist_id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

func (a Artist) Equal(o Artist) bool {
	return a.ID == o.ID && a.Name == o.Name && a.Popularity == o.Popularity && slices.Equal(a.Genres, o.Genres)
}

// Membership places a track in a playlist.
type Membership struct {
	PlaylistID string    `json:"playlist_id"`
	TrackID    string    `json:"track_id"`
	AddedAt    time.Time `json:"added_at"`
	Position   int       `json:"position"`
}

func (m Membership) Equal(o Membership) bool {
	return m.PlaylistID == o.PlaylistID && m.TrackID == o.TrackID && m.Position == o.Position && m.AddedAt.Equal(o.AddedAt)
}

// Snapshot is the cached library at SyncedAt. Memberships are ordered by playlist, then position.
type Snapshot struct {
	UserID      string       `json:"user_id"`
	SyncedAt    time.Time    `json:"synced_at"`
	Playlists   []Playlist   `json:"playlists"`
	Tracks      []Track      `json:"tracks"`
	Artists     []Artist     `json:"artists"`
	Memberships []Membership `json:"memberships"`
}

// Empty reports whether the snapshot has never been populated.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Playlists) == 0 && len(s.Tracks) == 0)
}

// Equal compares content and ignores SyncedAt. Entity order is not significant, membership order is.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.UserID != o.UserID {
		return false
	}

	if !equalByID(s.Playlists, o.Playlists, func(p Playlist) string { return p.ID }, func(a, b Playlist) bool { return a == b }) {
		return false
	}
	if !equalByID(s.Tracks, o.Tracks, func(t Track) string { return t.ID }, Track.Equal) {
		return false
	}
	if !equalByID(s.Artists, o.Artists, func(a Artist) string { return a.ID }, Artist.Equal) {
		return false
	}
	return slices.EqualFunc(s.SortedMemberships(), o.SortedMemberships(), Membership.Equal)
}

func equalByID[T any](a, b []T, id func(T) string, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[string]T, len(b))
	for _, v := range b {
		index[id(v)] = v
	}
	for _, v := range a {
		w, ok := index[id(v)]
		if !ok || !eq(v, w) {
			return false
		}
	}
	return true
}

// SortedMemberships returns memberships ordered by playlist ID, then position.
func (s *Snapshot) SortedMemberships() []Membership {
	out := slices.Clone(s.Memberships)
	slices.SortStableFunc(out, func(a, b Membership) int {
		if a.PlaylistID != b.PlaylistID {
			if a.PlaylistID < b.PlaylistID {
				return -1
			}
			return 1
		}
		return a.Position - b.Position
	})
	return out
}

// Playlist looks up a playlist by ID.
func (s *Snapshot) Playlist(id string) (Playlist, bool) {
	for _, p := range s.Playlists {
		if p.ID == id {
			return p, true
		}
	}
	return Playlist{}, false
}

// TracksByID indexes tracks by ID.
func (s *Snapshot) TracksByID() map[string]Track {
	out := make(map[string]Track, len(s.Tracks))
	for _, t := range s.Tracks {
		out[t.ID] = t
	}
	return out
}

// ArtistsByID indexes artists by ID.
func (s *Snapshot) ArtistsByID() map[string]Artist {
	out := make(map[string]Artist, len(s.Artists))
	for _, a := range s.Artists {
		out[a.ID] = a
	}
	return out
}

// MembershipsFor returns the memberships of one playlist in position order.
func (s *Snapshot) MembershipsFor(playlistID string) []Membership {
	var out []Membership
	for _, m := range s.Memberships {
		if m.PlaylistID == playlistID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Membership) int { return a.Position - b.Position })
	return out
}

// LikedSongs returns the liked songs memberships.
func (s *Snapshot) LikedSongs() []Membership {
	return s.MembershipsFor(LikedSongsID)
}

// PlaylistExport is one playlist with its tracks in position order, as written by the exporters.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}
