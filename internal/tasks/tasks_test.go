package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/shared"
	th "github.com/desertthunder/spotsync/internal/testing"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

// newTestEngine wires an engine to an in-memory database with migrations applied.
func newTestEngine(t *testing.T, svc *th.MockService) (*PlaylistEngine, *repositories.SnapshotRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := repositories.NewSnapshotRepository(db)
	engine := NewPlaylistEngine(svc, store, shared.DefaultConfig().Playlists, shared.NewLogger(io.Discard))
	engine.now = func() time.Time { return testNow }
	return engine, store
}

func seededService() *th.MockService {
	m := th.NewMockService()
	m.AddPlaylist(models.Playlist{ID: "p1", Name: "Mine", OwnerID: "u1"})
	m.SetItems("p1",
		th.Item("t1", "One", "a1", date(2025, 1, 2)),
		th.Item("t2", "Two", "a2", date(2025, 1, 3)),
	)
	m.AddPlaylist(models.Playlist{ID: "p2", Name: "Theirs", OwnerID: "other"})
	m.SetItems("p2", th.Item("t9", "Nine", "a9", date(2025, 1, 1)))
	m.Like(
		th.Item("t3", "Three", "a3", date(2025, 3, 1)),
		th.Item("t1", "One", "a1", date(2025, 2, 1)),
	)
	m.AddArtist(models.Artist{ID: "a1", Name: "Alpha", Genres: []string{"trap"}})
	m.AddArtist(models.Artist{ID: "a2", Name: "Beta", Genres: []string{"deep house"}})
	m.AddArtist(models.Artist{ID: "a3", Name: "Gamma", Genres: []string{"indie rock"}})
	return m
}

func TestDiff(t *testing.T) {
	tc := []struct {
		name    string
		desired []string
		actual  []string
		scope   map[string]bool
		add     []string
		remove  []string
	}{
		{name: "equal sets", desired: []string{"a", "b"}, actual: []string{"b", "a"}},
		{name: "both empty"},
		{name: "add missing in desired order", desired: []string{"c", "a", "b"}, actual: []string{"a"}, add: []string{"c", "b"}},
		{name: "remove extras in actual order", desired: []string{"a"}, actual: []string{"z", "a", "y"}, remove: []string{"z", "y"}},
		{name: "duplicates collapse", desired: []string{"a", "a"}, actual: []string{"b", "b"}, add: []string{"a"}, remove: []string{"b"}},
		{
			name:    "out of scope extras are kept",
			desired: []string{"a"},
			actual:  []string{"a", "manual", "liked"},
			scope:   map[string]bool{"a": true, "liked": true},
			remove:  []string{"liked"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			cs := Diff(tt.desired, tt.actual, tt.scope)
			if !slices.Equal(cs.Add, tt.add) {
				t.Errorf("Add = %v, want %v", cs.Add, tt.add)
			}
			if !slices.Equal(cs.Remove, tt.remove) {
				t.Errorf("Remove = %v, want %v", cs.Remove, tt.remove)
			}
			if cs.Empty() != (len(tt.add) == 0 && len(tt.remove) == 0) {
				t.Errorf("Empty() = %v", cs.Empty())
			}
		})
	}
}

func TestPush(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty ChangeSet Makes No Calls", func(t *testing.T) {
		m := th.NewMockService()
		cs := Diff([]string{"a", "b"}, []string{"a", "b"}, nil)
		if err := Push(ctx, m, "p1", cs); err != nil {
			t.Fatal(err)
		}
		if len(m.Calls) != 0 {
			t.Errorf("expected no calls, got %v", m.Calls)
		}
	})

	t.Run("Chunks Of Fifty", func(t *testing.T) {
		m := th.NewMockService()
		var add []string
		for i := range 120 {
			add = append(add, fmt.Sprintf("t%d", i))
		}
		if err := Push(ctx, m, "p1", ChangeSet{Add: add, Remove: []string{"x"}}); err != nil {
			t.Fatal(err)
		}
		adds := m.CallsTo("AddTracks")
		if len(adds) != 3 || len(adds[0].TrackIDs) != 50 || len(adds[2].TrackIDs) != 20 {
			t.Errorf("unexpected chunking: %d calls", len(adds))
		}
		if len(m.CallsTo("RemoveTracks")) != 1 {
			t.Error("expected one remove call")
		}
	})

	t.Run("Error Stops", func(t *testing.T) {
		m := th.NewMockService()
		m.Errors["AddTracks"] = errors.New("boom")
		if err := Push(ctx, m, "p1", ChangeSet{Add: []string{"a"}, Remove: []string{"b"}}); err == nil {
			t.Fatal("expected error")
		}
		if len(m.CallsTo("RemoveTracks")) != 0 {
			t.Error("remove should not run after a failed add")
		}
	})
}

func TestMergeSnapshot(t *testing.T) {
	cached := &models.Snapshot{
		Playlists: []models.Playlist{{ID: "old", Name: "Old"}},
		Tracks: []models.Track{
			{ID: "t1", Name: "One", ArtistIDs: []string{"a1"}, Popularity: 10},
			{ID: "t2", Name: "Two", ArtistIDs: []string{"a2"}},
			{ID: "t3", Name: "Three"},
		},
		Artists: []models.Artist{{ID: "a1", Name: "A"}, {ID: "a2", Name: "B"}},
	}
	fetched := &models.Snapshot{
		UserID:    "u1",
		SyncedAt:  testNow,
		Playlists: []models.Playlist{{ID: "p1", Name: "New"}, {ID: "p1", Name: "Dup"}},
		Tracks: []models.Track{
			{ID: "t1", Name: "One", ArtistIDs: []string{"a1"}, Popularity: 99},
			{ID: "t2", Name: "Two", ArtistIDs: []string{"a2"}},
		},
		Memberships: []models.Membership{
			{PlaylistID: "p1", TrackID: "t1", Position: 0},
			{PlaylistID: "p1", TrackID: "t2", Position: 1},
			{PlaylistID: "p1", TrackID: "missing", Position: 2},
			{PlaylistID: "gone", TrackID: "t3", Position: 0},
		},
	}

	merged := MergeSnapshot(cached, fetched)

	if len(merged.Playlists) != 1 || merged.Playlists[0].Name != "New" {
		t.Errorf("expected upstream playlists only, got %+v", merged.Playlists)
	}
	if len(merged.Memberships) != 2 {
		t.Errorf("expected invalid memberships dropped, got %+v", merged.Memberships)
	}
	tracks := merged.TracksByID()
	if len(tracks) != 2 {
		t.Errorf("expected unreferenced t3 pruned, got %+v", merged.Tracks)
	}
	if tracks["t1"].Popularity != 99 {
		t.Error("fetched track should win when content differs")
	}
	if len(merged.Artists) != 2 {
		t.Errorf("expected cached artists kept for referenced tracks, got %+v", merged.Artists)
	}
	if merged.UserID != "u1" || !merged.SyncedAt.Equal(testNow) {
		t.Error("expected fetched metadata")
	}

	if got := MergeSnapshot(nil, fetched); len(got.Artists) != 0 {
		t.Errorf("expected no artists without a cache, got %+v", got.Artists)
	}
}

func TestPlaylistEngine_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("First Sync", func(t *testing.T) {
		m := seededService()
		engine, store := newTestEngine(t, m)

		res, err := engine.Sync(ctx, SyncOptions{}, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		snap := res.Snapshot
		if len(snap.Playlists) != 3 {
			t.Errorf("expected 3 playlists, got %d", len(snap.Playlists))
		}
		if len(snap.Tracks) != 3 {
			t.Errorf("expected followed playlist items skipped, got %+v", snap.Tracks)
		}
		if len(snap.Artists) != 3 {
			t.Errorf("expected 3 artists, got %d", len(snap.Artists))
		}
		if res.Followed != 1 || res.PlaylistsFetched != 1 || res.LikedSongs != 2 {
			t.Errorf("unexpected counts %+v", res)
		}

		liked, ok := snap.Playlist(models.LikedSongsID)
		if !ok || liked.SnapshotID != "liked_songs_2" || !liked.IsOwned {
			t.Errorf("unexpected liked songs playlist %+v", liked)
		}
		if p, _ := snap.Playlist("p1"); !p.IsOwned {
			t.Error("expected p1 owned")
		}
		if p, _ := snap.Playlist("p2"); p.IsOwned {
			t.Error("expected p2 followed")
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !snap.Equal(loaded) {
			t.Error("persisted snapshot differs from result")
		}
		if v, _ := store.Meta(ctx, repositories.MetaUserID); v != "u1" {
			t.Errorf("expected user id meta, got %q", v)
		}
	})

	t.Run("Twice Without Changes Is Identical", func(t *testing.T) {
		m := seededService()
		engine, store := newTestEngine(t, m)

		first, err := engine.Sync(ctx, SyncOptions{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		m.ResetCalls()

		second, err := engine.Sync(ctx, SyncOptions{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !first.Snapshot.Equal(second.Snapshot) {
			t.Error("expected identical snapshots")
		}
		if m.Reads["PlaylistItems"] != 0 || m.Reads["Artists"] != 0 {
			t.Errorf("expected cached data reused, reads %v", m.Reads)
		}
		if second.PlaylistsReused != 1 {
			t.Errorf("expected 1 reused playlist, got %d", second.PlaylistsReused)
		}

		loaded, _ := store.Load(ctx)
		if !first.Snapshot.Equal(loaded) {
			t.Error("expected identical cache")
		}
	})

	t.Run("Changed Playlist Is Refetched", func(t *testing.T) {
		m := seededService()
		engine, _ := newTestEngine(t, m)
		if _, err := engine.Sync(ctx, SyncOptions{}, nil); err != nil {
			t.Fatal(err)
		}

		m.SetItems("p1", th.Item("t2", "Two", "a2", date(2025, 1, 3)))
		m.ResetCalls()

		res, err := engine.Sync(ctx, SyncOptions{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if m.Reads["PlaylistItems"] != 1 {
			t.Errorf("expected refetch, reads %v", m.Reads)
		}
		if got := res.Snapshot.MembershipsFor("p1"); len(got) != 1 || got[0].TrackID != "t2" {
			t.Errorf("unexpected memberships %+v", got)
		}
	})

	t.Run("Force Refetches Everything", func(t *testing.T) {
		m := seededService()
		engine, _ := newTestEngine(t, m)
		if _, err := engine.Sync(ctx, SyncOptions{}, nil); err != nil {
			t.Fatal(err)
		}
		m.ResetCalls()

		if _, err := engine.Sync(ctx, SyncOptions{Force: true}, nil); err != nil {
			t.Fatal(err)
		}
		if m.Reads["PlaylistItems"] != 1 || m.Reads["Artists"] != 1 {
			t.Errorf("expected full refetch, reads %v", m.Reads)
		}
	})

	t.Run("Service Error Leaves Cache", func(t *testing.T) {
		m := seededService()
		engine, store := newTestEngine(t, m)
		m.Errors["LikedSongs"] = errors.New("boom")

		if _, err := engine.Sync(ctx, SyncOptions{}, nil); err == nil {
			t.Fatal("expected error")
		}
		snap, _ := store.Load(ctx)
		if !snap.Empty() {
			t.Error("expected cache untouched")
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		engine, _ := newTestEngine(t, seededService())
		progress := make(chan ProgressUpdate, 32)

		if _, err := engine.Sync(ctx, SyncOptions{}, progress); err != nil {
			t.Fatal(err)
		}
		close(progress)

		phases := map[Phase]bool{}
		for u := range progress {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{FetchUser, FetchPlaylists, FetchTracks, FetchLiked, FetchArtists, Merge, Save} {
			if !phases[p] {
				t.Errorf("missing phase %s", p)
			}
		}
	})
}

func TestPlaylistEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Then Leaves Unchanged", func(t *testing.T) {
		m := seededService()
		engine, _ := newTestEngine(t, m)

		res, err := engine.Run(ctx, RunOptions{}, nil)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if _, ok := m.PlaylistByName("AJFindsMar25"); !ok {
			t.Error("expected monthly playlist for March")
		}
		if _, ok := m.PlaylistByName("AJFindsFeb25"); !ok {
			t.Error("expected monthly playlist for February")
		}
		if res.Apply.Created == 0 {
			t.Error("expected playlists created")
		}

		m.ResetCalls()
		again, err := engine.Run(ctx, RunOptions{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if again.Apply.Created != 0 || again.Apply.Updated != 0 {
			t.Errorf("expected no changes on second run, got %+v", again.Apply)
		}
		if len(m.CallsTo("AddTracks")) != 0 || len(m.CallsTo("CreatePlaylist")) != 0 {
			t.Errorf("expected no writes, got %+v", m.Calls)
		}

		summary := again.Summary()
		for _, key := range []string{"playlists", "tracks", "created", "unchanged", "duration"} {
			if _, ok := summary[key]; !ok {
				t.Errorf("summary missing %s", key)
			}
		}
	})

	t.Run("SyncOnly", func(t *testing.T) {
		m := seededService()
		engine, _ := newTestEngine(t, m)

		res, err := engine.Run(ctx, RunOptions{SyncOnly: true}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if res.Apply != nil || len(m.CallsTo("CreatePlaylist")) != 0 {
			t.Error("expected no playlist writes")
		}
	})

	t.Run("SkipSync Needs Cache", func(t *testing.T) {
		engine, _ := newTestEngine(t, seededService())
		if _, err := engine.Run(ctx, RunOptions{SkipSync: true}, nil); !errors.Is(err, shared.ErrEmptyCache) {
			t.Errorf("expected ErrEmptyCache, got %v", err)
		}
	})

	t.Run("SkipSync Uses Cache", func(t *testing.T) {
		m := seededService()
		engine, _ := newTestEngine(t, m)
		if _, err := engine.Run(ctx, RunOptions{SyncOnly: true}, nil); err != nil {
			t.Fatal(err)
		}
		m.ResetCalls()

		res, err := engine.Run(ctx, RunOptions{SkipSync: true}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if res.Sync != nil || m.Reads["LikedSongs"] != 0 {
			t.Error("expected no sync")
		}
		if res.Apply.Created == 0 {
			t.Error("expected playlists created from cache")
		}
	})

	t.Run("Nil Service", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, nil, shared.PlaylistsConfig{}, nil)
		if _, err := engine.Run(ctx, RunOptions{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
