package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/spotsync/internal/services"
)

// PushChunkSize is the number of track ids sent per add or remove request.
const PushChunkSize = 50

// ChangeSet holds the track ids to add to and remove from one playlist.
type ChangeSet struct {
	Add    []string
	Remove []string
}

// Empty reports whether applying the change set would do nothing.
func (c ChangeSet) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// Diff computes the changes that turn actual into desired.
//
// Add keeps desired order and Remove keeps actual order, both without duplicates. An extra track is only removed
// when it is in scope; a nil scope puts every track in scope.
func Diff(desired, actual []string, scope map[string]bool) ChangeSet {
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}
	have := make(map[string]bool, len(actual))
	for _, id := range actual {
		have[id] = true
	}

	var cs ChangeSet
	added := map[string]bool{}
	for _, id := range desired {
		if !have[id] && !added[id] {
			added[id] = true
			cs.Add = append(cs.Add, id)
		}
	}

	removed := map[string]bool{}
	for _, id := range actual {
		if want[id] || removed[id] {
			continue
		}
		if scope != nil && !scope[id] {
			continue
		}
		removed[id] = true
		cs.Remove = append(cs.Remove, id)
	}
	return cs
}

// Push applies a change set to a playlist in chunks of [PushChunkSize]. An empty change set makes no requests.
func Push(ctx context.Context, svc services.Service, playlistID string, cs ChangeSet) error {
	for chunk := range slices.Chunk(cs.Add, PushChunkSize) {
		if err := svc.AddTracks(ctx, playlistID, chunk); err != nil {
			return fmt.Errorf("failed to add tracks to %s: %w", playlistID, err)
		}
	}
	for chunk := range slices.Chunk(cs.Remove, PushChunkSize) {
		if err := svc.RemoveTracks(ctx, playlistID, chunk); err != nil {
			return fmt.Errorf("failed to remove tracks from %s: %w", playlistID, err)
		}
	}
	return nil
}
