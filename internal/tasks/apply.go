package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// ApplyResult counts what [PlaylistEngine.Apply] changed.
type ApplyResult struct {
	Created       int
	Updated       int
	Unchanged     int
	TracksAdded   int
	TracksRemoved int
	Retired       int
}

// Apply writes every target of the plan, then unfollows the retired playlists.
//
// Existing playlists are matched by name among the user's own playlists and diffed against their current items.
// Missing ones are created as private playlists. Target failures are collected and returned together; retirement
// is skipped when any target failed.
func (e *PlaylistEngine) Apply(ctx context.Context, plan *Plan, progress chan<- ProgressUpdate) (*ApplyResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	result := &ApplyResult{}
	if plan == nil || (len(plan.Targets) == 0 && len(plan.Retire) == 0) {
		return result, nil
	}

	user, err := e.svc.CurrentUser(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch current user: %w", err)
	}
	playlists, err := e.svc.Playlists(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	byName := map[string]models.Playlist{}
	for _, p := range playlists {
		if p.OwnerID != user.ID {
			continue
		}
		if _, dup := byName[p.Name]; !dup {
			byName[p.Name] = p
		}
	}

	var errs []error
	for i, t := range plan.Targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		cs, err := e.applyTarget(ctx, user.ID, byName, t, result)
		if err != nil {
			e.logger.Error("failed to update playlist", "playlist", t.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		e.sendProgress(progress, applyTargetUpdate(i+1, len(plan.Targets), t, cs))
	}

	if len(errs) > 0 {
		if len(plan.Retire) > 0 {
			e.logger.Warn("skipping retirement after failures", "playlists", len(plan.Retire))
		}
		return result, errors.Join(errs...)
	}

	for i, p := range plan.Retire {
		e.sendProgress(progress, retireUpdate(i+1, len(plan.Retire), p))
		if err := e.svc.Unfollow(ctx, p.ID); err != nil {
			if errors.Is(err, shared.ErrPlaylistNotFound) {
				e.logger.Warn("retired playlist already gone", "playlist", p.Name)
				continue
			}
			return result, fmt.Errorf("failed to retire %q: %w", p.Name, err)
		}
		result.Retired++
		e.logger.Info("retired playlist", "playlist", p.Name)
	}
	return result, nil
}

func (e *PlaylistEngine) applyTarget(ctx context.Context, userID string, byName map[string]models.Playlist, t Target, result *ApplyResult) (ChangeSet, error) {
	existing, ok := byName[t.Name]
	if !ok {
		cs := Diff(t.TrackIDs, nil, nil)
		if cs.Empty() {
			return cs, nil
		}
		created, err := e.svc.CreatePlaylist(ctx, userID, t.Name, t.Description, false)
		if err != nil {
			return cs, err
		}
		byName[t.Name] = *created
		if err := Push(ctx, e.svc, created.ID, cs); err != nil {
			return cs, err
		}
		result.Created++
		result.TracksAdded += len(cs.Add)
		e.logger.Info("created playlist", "playlist", t.Name, "tracks", len(cs.Add))
		return cs, nil
	}

	items, err := e.svc.PlaylistItems(ctx, existing.ID)
	if err != nil {
		return ChangeSet{}, err
	}
	actual := make([]string, len(items))
	for i, it := range items {
		actual[i] = it.Track.ID
	}

	cs := Diff(t.TrackIDs, actual, t.Scope)
	if err := Push(ctx, e.svc, existing.ID, cs); err != nil {
		return cs, err
	}

	descChanged := t.Description != "" && existing.Description != t.Description
	if descChanged {
		if err := e.svc.UpdateDescription(ctx, existing.ID, t.Description); err != nil {
			return cs, err
		}
	}

	if cs.Empty() && !descChanged {
		result.Unchanged++
		return cs, nil
	}
	result.Updated++
	result.TracksAdded += len(cs.Add)
	result.TracksRemoved += len(cs.Remove)
	e.logger.Info("updated playlist", "playlist", t.Name, "added", len(cs.Add), "removed", len(cs.Remove))
	return cs, nil
}
