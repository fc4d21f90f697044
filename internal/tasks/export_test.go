package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotsync/internal/shared"
	th "github.com/desertthunder/spotsync/internal/testing"
)

func TestPlaylistEngine_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Cache", func(t *testing.T) {
		engine, _ := newTestEngine(t, th.NewMockService())
		_, err := engine.Export(ctx, nil, ExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrEmptyCache) {
			t.Errorf("expected ErrEmptyCache, got %v", err)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		engine, _ := newTestEngine(t, seededService())
		if _, err := engine.Sync(ctx, SyncOptions{}, nil); err != nil {
			t.Fatal(err)
		}
		_, err := engine.Export(ctx, nil, ExportOpts{Format: "xml", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	formats := []struct {
		format string
		file   string
	}{
		{"csv", filepath.Join("playlists", "p1_tracks.csv")},
		{"markdown", filepath.Join("playlists", "p1", "README.md")},
		{"txt", filepath.Join("playlists", "p1_tracks.txt")},
	}
	for _, tt := range formats {
		t.Run(tt.format, func(t *testing.T) {
			engine, _ := newTestEngine(t, seededService())
			if _, err := engine.Sync(ctx, SyncOptions{}, nil); err != nil {
				t.Fatal(err)
			}

			dir := t.TempDir()
			progress := make(chan ProgressUpdate, 16)
			res, err := engine.Export(ctx, progress, ExportOpts{Format: tt.format, OutputDir: dir, NumWorkers: 2})
			if err != nil {
				t.Fatalf("export failed: %v", err)
			}
			close(progress)

			// p1 and liked songs; the followed p2 is skipped
			if res.TotalPlaylists != 2 || res.SuccessfulExports != 2 || res.FailedExports != 0 {
				t.Errorf("unexpected counts %+v", res)
			}
			th.AssertFileExists(t, filepath.Join(dir, tt.file))
			th.AssertFileExists(t, filepath.Join(dir, "tables", "tracks.csv"))
			th.AssertFileExists(t, filepath.Join(dir, "report.md"))

			data, err := os.ReadFile(res.ManifestPath)
			if err != nil {
				t.Fatalf("manifest missing: %v", err)
			}
			var manifest ExportResult
			if err := json.Unmarshal(data, &manifest); err != nil {
				t.Fatalf("manifest is not JSON: %v", err)
			}
			if manifest.Format != tt.format || len(manifest.Results) != 2 {
				t.Errorf("unexpected manifest %+v", manifest)
			}

			n := 0
			for u := range progress {
				if u.Phase != ExportPlaylist {
					t.Errorf("unexpected phase %s", u.Phase)
				}
				n++
			}
			if n != 2 {
				t.Errorf("expected 2 progress updates, got %d", n)
			}
		})
	}

	t.Run("Liked Songs File Name", func(t *testing.T) {
		if got := safeFilename("__liked_songs__"); got != "liked_songs" {
			t.Errorf("got %s", got)
		}
		if got := safeFilename("a/b"); strings.Contains(got, "/") {
			t.Errorf("expected separators replaced, got %s", got)
		}
	})
}
