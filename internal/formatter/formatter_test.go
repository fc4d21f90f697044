package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/genres"
	"github.com/desertthunder/spotsync/internal/models"
	th "github.com/desertthunder/spotsync/internal/testing"
)

func testExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          "test123",
			Name:        "Test Playlist",
			Description: "A test playlist",
			TrackCount:  2,
			Public:      true,
		},
		Tracks: []models.Track{
			{ID: "track1", Name: "Song One", Artist: "Artist One", Album: "Album One", DurationMS: 180000, Popularity: 61},
			{ID: "track2", Name: "Song, Two", Artist: "Artist Two", DurationMS: 245000, Popularity: 12},
		},
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{59000, "0:59"},
		{245000, "4:05"},
		{3723000, "1:02:03"},
	}
	for _, tt := range tc {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,Artist,Album,Duration,Popularity\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Song One,Artist One,Album One,3:00,61") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, `"Song, Two"`) {
			t.Errorf("CSV should quote fields with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Test Playlist",
			"**Description**: A test playlist",
			"**Tracks**: 2",
			"**Length**: 7:05",
			"**Visibility**: Public",
			"1. Artist One - Song One (Album One) [3:00]",
			"2. Artist Two - Song, Two [4:05]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		export := testExport()
		export.Playlist.Description = ""

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if strings.Contains(output, "Description:") {
			t.Error("Text should omit empty description")
		}
		if !strings.Contains(output, "Tracks: 2") || !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var p models.Playlist
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("metadata is not valid JSON: %v", err)
		}
		if p.ID != "test123" || !p.Public {
			t.Errorf("unexpected metadata %+v", p)
		}
		if strings.Contains(string(data), "tracks") && strings.Contains(string(data), "track1") {
			t.Error("metadata should not contain tracks")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "custom")

		res, err := WriteCSVExport(testExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if res.TracksFile != base+"_tracks.csv" || res.MetadataFile != base+"_metadata.json" {
			t.Errorf("unexpected paths %+v", res)
		}
		th.AssertFileExists(t, res.TracksFile)
		th.AssertFileExists(t, res.MetadataFile)
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "playlist")

		path, err := WriteMarkdownExport(testExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected path %s", path)
		}
		if !strings.Contains(th.MustReadFile(t, path), "# Test Playlist") {
			t.Error("README missing title")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")

		got, err := WriteTextExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteTextExport Error", func(t *testing.T) {
		if _, err := WriteTextExport(testExport(), filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("WriteJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		if err := WriteJSON(map[string]int{"playlists": 3}, path); err != nil {
			t.Fatalf("WriteJSON failed: %v", err)
		}
		if got := th.MustReadFile(t, path); !strings.Contains(got, `"playlists": 3`) {
			t.Errorf("unexpected manifest %s", got)
		}
	})
}

func TestWriteSnapshotTables(t *testing.T) {
	snap := &models.Snapshot{
		UserID: "u1",
		Playlists: []models.Playlist{
			{ID: "p1", Name: "Mix", OwnerID: "u1", IsOwned: true, TrackCount: 2, SnapshotID: "s1"},
		},
		Tracks: []models.Track{
			{ID: "t1", Name: "One", Artist: "A", ArtistIDs: []string{"a1", "a2"}, DurationMS: 1000},
			{ID: "t2", Name: "Two", Artist: "B", ArtistIDs: []string{"a2"}},
		},
		Artists: []models.Artist{
			{ID: "a1", Name: "A", Genres: []string{"trap", "rap"}},
			{ID: "a2", Name: "B"},
		},
		Memberships: []models.Membership{
			{PlaylistID: "p1", TrackID: "t2", Position: 1},
			{PlaylistID: "p1", TrackID: "t1", Position: 0, AddedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}

	dir := t.TempDir()
	files, err := WriteSnapshotTables(snap, dir)
	if err != nil {
		t.Fatalf("WriteSnapshotTables failed: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %v", files)
	}

	tracks := th.MustReadFile(t, filepath.Join(dir, "tracks.csv"))
	if !strings.Contains(tracks, "t1,One,A,a1;a2,,1000,0") {
		t.Errorf("unexpected tracks table:\n%s", tracks)
	}

	artists := th.MustReadFile(t, filepath.Join(dir, "artists.csv"))
	if !strings.Contains(artists, "a1,A,trap;rap,0") {
		t.Errorf("unexpected artists table:\n%s", artists)
	}

	memberships := th.MustReadFile(t, filepath.Join(dir, "playlist_tracks.csv"))
	want := "playlist_id,track_id,position,added_at\np1,t1,0,2025-01-02T03:04:05Z\np1,t2,1,\n"
	if memberships != want {
		t.Errorf("memberships not in position order:\n%s", memberships)
	}

	if _, err := os.Stat(filepath.Join(dir, "playlists.csv")); err != nil {
		t.Errorf("playlists table missing: %v", err)
	}
}

func TestReportToMarkdown(t *testing.T) {
	report := analysis.Report{
		Stats:                  analysis.Stats{TotalTracks: 12345, TotalArtists: 900, TotalPlaylists: 40, TotalHours: 812.5, AvgPopularity: 44.25},
		MonthlyPlaylistsCount:  2,
		MonthlyPlaylists:       []string{"AJFindsJan25", "Feb 2025"},
		FollowedPlaylistsCount: 7,
		GenreCounts:            []genres.Count{{Genre: "Hip-Hop", Tracks: 1500}},
	}

	out := string(ReportToMarkdown(report, time.Now().Add(-2*time.Hour)))
	for _, want := range []string{
		"| Tracks | 12,345 |",
		"| Hours | 812.5 |",
		"## Monthly Playlists (2)",
		"- AJFindsJan25",
		"| Hip-Hop | 1,500 |",
		"2 hours ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q, got:\n%s", want, out)
		}
	}

	if strings.Contains(string(ReportToMarkdown(analysis.Report{}, time.Time{})), "Last synced") {
		t.Error("expected no sync line for zero time")
	}
}
