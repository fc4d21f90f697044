package tasks

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/naming"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
)

// SyncEngine defines the operations of a sync run.
type SyncEngine interface {
	// Sync refreshes the cached snapshot from the service.
	Sync(ctx context.Context, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncResult, error)

	// Apply pushes a plan's targets to the service and retires consolidated playlists.
	Apply(ctx context.Context, plan *Plan, progress chan<- ProgressUpdate) (*ApplyResult, error)

	// Run performs sync followed by plan and apply.
	Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error)
}

// RunOptions selects which stages of [PlaylistEngine.Run] execute.
type RunOptions struct {
	SkipSync  bool // Use the cached snapshot instead of syncing
	SyncOnly  bool // Stop after the snapshot is written
	AllMonths bool // Build monthly playlists for every month of the current year
	Force     bool // Refetch every playlist and artist
}

// RunResult contains everything a pipeline run produced.
type RunResult struct {
	Sync     *SyncResult
	Plan     *Plan
	Apply    *ApplyResult
	Duration time.Duration
}

// Summary flattens the result into display strings for notifications and job stats.
func (r *RunResult) Summary() map[string]string {
	out := map[string]string{"duration": r.Duration.Round(time.Millisecond).String()}
	if s := r.Sync; s != nil {
		out["playlists"] = strconv.Itoa(len(s.Snapshot.Playlists))
		out["tracks"] = strconv.Itoa(len(s.Snapshot.Tracks))
		out["artists"] = strconv.Itoa(len(s.Snapshot.Artists))
		out["liked_songs"] = strconv.Itoa(s.LikedSongs)
		out["playlists_fetched"] = strconv.Itoa(s.PlaylistsFetched)
		out["playlists_reused"] = strconv.Itoa(s.PlaylistsReused)
	}
	if a := r.Apply; a != nil {
		out["created"] = strconv.Itoa(a.Created)
		out["updated"] = strconv.Itoa(a.Updated)
		out["unchanged"] = strconv.Itoa(a.Unchanged)
		out["tracks_added"] = strconv.Itoa(a.TracksAdded)
		out["tracks_removed"] = strconv.Itoa(a.TracksRemoved)
		out["retired"] = strconv.Itoa(a.Retired)
	}
	return out
}

// PlaylistEngine implements SyncEngine.
// Contains dependencies on the music service, the snapshot store and the playlist settings.
type PlaylistEngine struct {
	svc    services.Service
	store  *repositories.SnapshotRepository
	cfg    shared.PlaylistsConfig
	namer  *naming.Namer
	logger *log.Logger
	now    func() time.Time
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided service and store.
func NewPlaylistEngine(svc services.Service, store *repositories.SnapshotRepository, cfg shared.PlaylistsConfig, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{
		svc:    svc,
		store:  store,
		cfg:    cfg,
		namer:  naming.New(cfg),
		logger: logger,
		now:    time.Now,
	}
}

// Namer returns the namer built from the engine's playlist settings.
func (e *PlaylistEngine) Namer() *naming.Namer { return e.namer }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs the full pipeline: sync unless SkipSync, then plan and apply unless SyncOnly.
func (e *PlaylistEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	started := e.now()
	result := &RunResult{}
	defer func() { result.Duration = e.now().Sub(started) }()

	var snap *models.Snapshot
	if opts.SkipSync {
		cached, err := e.store.Load(ctx)
		if err != nil {
			return result, err
		}
		if cached.Empty() {
			return result, shared.ErrEmptyCache
		}
		e.logger.Info("using cached snapshot", "synced_at", cached.SyncedAt)
		snap = cached
	} else {
		res, err := e.Sync(ctx, SyncOptions{Force: opts.Force}, progress)
		if err != nil {
			return result, err
		}
		result.Sync = res
		snap = res.Snapshot
	}

	if opts.SyncOnly {
		return result, nil
	}

	plan := BuildPlan(snap, e.namer, e.cfg, e.now(), PlanOptions{AllMonths: opts.AllMonths})
	result.Plan = plan
	e.sendProgress(progress, planUpdate(plan))
	e.logger.Info("playlist plan ready", "targets", len(plan.Targets), "retire", len(plan.Retire))

	applied, err := e.Apply(ctx, plan, progress)
	result.Apply = applied
	if err != nil {
		return result, err
	}
	return result, nil
}
