package models

import (
	"testing"
	"time"
)

func sampleSnapshot() *Snapshot {
	added := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	return &Snapshot{
		UserID:   "u1",
		SyncedAt: time.Now(),
		Playlists: []Playlist{
			{ID: LikedSongsID, Name: LikedSongsName, IsOwned: true, TrackCount: 2, SnapshotID: LikedSongsSnapshotID(2)},
			{ID: "p1", Name: "Road Trip", OwnerID: "u1", IsOwned: true, TrackCount: 1},
		},
		Tracks: []Track{
			{ID: "t1", Name: "One", ArtistIDs: []string{"a1"}, Artist: "Alpha", DurationMS: 1000},
			{ID: "t2", Name: "Two", ArtistIDs: []string{"a1", "a2"}, Artist: "Alpha", DurationMS: 2000},
		},
		Artists: []Artist{
			{ID: "a1", Name: "Alpha", Genres: []string{"rap"}},
			{ID: "a2", Name: "Beta"},
		},
		Memberships: []Membership{
			{PlaylistID: LikedSongsID, TrackID: "t1", AddedAt: added, Position: 0},
			{PlaylistID: LikedSongsID, TrackID: "t2", AddedAt: added, Position: 1},
			{PlaylistID: "p1", TrackID: "t2", AddedAt: added, Position: 0},
		},
	}
}

func TestSnapshotEqual(t *testing.T) {
	t.Run("ignores SyncedAt and entity order", func(t *testing.T) {
		a, b := sampleSnapshot(), sampleSnapshot()
		b.SyncedAt = b.SyncedAt.Add(time.Hour)
		b.Tracks[0], b.Tracks[1] = b.Tracks[1], b.Tracks[0]
		b.Memberships[0], b.Memberships[2] = b.Memberships[2], b.Memberships[0]

		if !a.Equal(b) {
			t.Error("expected snapshots to be equal")
		}
	})

	tc := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{name: "track field", mutate: func(s *Snapshot) { s.Tracks[0].Popularity = 9 }},
		{name: "artist order", mutate: func(s *Snapshot) { s.Tracks[1].ArtistIDs = []string{"a2", "a1"} }},
		{name: "artist genres", mutate: func(s *Snapshot) { s.Artists[0].Genres = nil }},
		{name: "playlist snapshot", mutate: func(s *Snapshot) { s.Playlists[1].SnapshotID = "x" }},
		{name: "membership position", mutate: func(s *Snapshot) { s.Memberships[1].Position = 5 }},
		{name: "membership removed", mutate: func(s *Snapshot) { s.Memberships = s.Memberships[:2] }},
		{name: "user", mutate: func(s *Snapshot) { s.UserID = "u2" }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			a, b := sampleSnapshot(), sampleSnapshot()
			tt.mutate(b)
			if a.Equal(b) {
				t.Error("expected snapshots to differ")
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		var a *Snapshot
		if !a.Equal(nil) || a.Equal(sampleSnapshot()) {
			t.Error("unexpected nil comparison result")
		}
	})
}

func TestSnapshotLookups(t *testing.T) {
	s := sampleSnapshot()

	liked := s.LikedSongs()
	if len(liked) != 2 || liked[0].TrackID != "t1" {
		t.Errorf("unexpected liked songs %+v", liked)
	}

	if p, ok := s.Playlist("p1"); !ok || p.Name != "Road Trip" {
		t.Errorf("expected playlist p1, got %+v", p)
	}
	if _, ok := s.Playlist("missing"); ok {
		t.Error("expected missing playlist lookup to fail")
	}

	if s.Empty() {
		t.Error("sample snapshot should not be empty")
	}
	if !(&Snapshot{}).Empty() {
		t.Error("zero snapshot should be empty")
	}

	if LikedSongsSnapshotID(42) != "liked_songs_42" {
		t.Errorf("unexpected liked songs snapshot id %s", LikedSongsSnapshotID(42))
	}
}
