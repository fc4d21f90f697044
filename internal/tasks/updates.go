package tasks

import (
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	FetchPlaylists
	FetchTracks
	FetchLiked
	FetchArtists
	Merge
	Save
	Planning
	ApplyTarget
	RetirePlaylist
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case FetchLiked:
		return "fetch_liked"
	case FetchArtists:
		return "fetch_artists"
	case Merge:
		return "merge"
	case Save:
		return "save"
	case Planning:
		return "build_plan"
	case ApplyTarget:
		return "apply_target"
	case RetirePlaylist:
		return "retire_playlist"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchUser, Step: 1, Total: 1, Message: "Fetching current user..."}
}

func fetchPlaylistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", count),
	}
}

func fetchTracksUpdate(step, total int, p models.Playlist, reused bool) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s", step, total, p.Name)
	if reused {
		msg += " (unchanged)"
	}
	return ProgressUpdate{Phase: FetchTracks, Step: step, Total: total, Message: msg, Data: p}
}

func fetchLikedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d liked songs", count),
	}
}

func fetchArtistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %d artists...", count),
	}
}

func mergeUpdate(snap *models.Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase: Merge,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Merged snapshot: %d playlists, %d tracks, %d artists",
			len(snap.Playlists), len(snap.Tracks), len(snap.Artists)),
	}
}

func saveUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Save, Step: 1, Total: 1, Message: "Writing library cache..."}
}

func planUpdate(plan *Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Planning,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Planned %d playlists, %d to retire", len(plan.Targets), len(plan.Retire)),
		Data:    plan,
	}
}

func applyTargetUpdate(step, total int, t Target, cs ChangeSet) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: +%d -%d", step, total, t.Name, len(cs.Add), len(cs.Remove))
	if cs.Empty() {
		msg = fmt.Sprintf("[%d/%d] %s: up to date", step, total, t.Name)
	}
	return ProgressUpdate{Phase: ApplyTarget, Step: step, Total: total, Message: msg}
}

func retireUpdate(step, total int, p models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RetirePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Retiring %s", step, total, p.Name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, name, reason),
	}
}
