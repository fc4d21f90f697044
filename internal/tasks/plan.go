package tasks

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/spotsync/internal/genres"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/naming"
	"github.com/desertthunder/spotsync/internal/shared"
)

// Target kinds
const (
	KindMonthly      = "monthly"
	KindGenreMonthly = "genre_monthly"
	KindYearly       = "yearly"
	KindGenreYearly  = "genre_yearly"
	KindGenreMaster  = "genre_master"
)

const (
	defaultKeepMonths     = 3
	defaultMinGenreTracks = 10
	defaultMaxGenreLists  = 25
	maxGenreThreshold     = 50
	minGenreSelection     = 3
	genreFallbackPool     = 5
	genreFallbackFloor    = 5
	maxGenreTags          = 5
	maxDescriptionLength  = 300
)

// Target is the desired state of one automated playlist.
type Target struct {
	Kind        string
	Name        string
	Description string
	TrackIDs    []string
	// Scope holds the tracks this target manages. Tracks outside it are never removed.
	Scope map[string]bool
}

// Plan lists the playlists to write and the owned monthly playlists to unfollow afterwards.
type Plan struct {
	Targets []Target
	Retire  []models.Playlist
}

// PlanOptions adjusts plan construction.
type PlanOptions struct {
	AllMonths bool
}

type likedTrack struct {
	id    string
	month naming.MonthKey
	tags  []string
	split []string
	broad []string
}

// BuildPlan derives the automated playlists from the liked songs in snap.
func BuildPlan(snap *models.Snapshot, namer *naming.Namer, cfg shared.PlaylistsConfig, now time.Time, opts PlanOptions) *Plan {
	plan := &Plan{}
	liked := likedTracks(snap)
	scope := map[string]bool{}
	for _, t := range liked {
		scope[t.id] = true
	}

	current := naming.MonthOf(now)
	byMonth := map[naming.MonthKey][]likedTrack{}
	for _, t := range liked {
		if t.month.Year == 0 {
			continue
		}
		byMonth[t.month] = append(byMonth[t.month], t)
	}

	months := monthsToBuild(byMonth, current, cfg.KeepMonthlyMonths, opts.AllMonths)
	for _, k := range months {
		tracks := byMonth[k]
		if cfg.EnableMonthly {
			plan.Targets = append(plan.Targets, Target{
				Kind:        KindMonthly,
				Name:        namer.Monthly(k.Month, k.Year),
				Description: describe(namer, "Liked songs", k.Period(), tracks),
				TrackIDs:    ids(tracks),
				Scope:       scope,
			})
		}
		if cfg.EnableGenreSplit {
			for _, bucket := range genres.SplitBuckets {
				matched := filterSplit(tracks, bucket)
				if len(matched) == 0 {
					continue
				}
				plan.Targets = append(plan.Targets, Target{
					Kind:        KindGenreMonthly,
					Name:        namer.GenreMonthly(bucket, k.Month, k.Year),
					Description: describe(namer, bucket+" tracks", k.Period(), matched),
					TrackIDs:    ids(matched),
					Scope:       scope,
				})
			}
		}
	}

	if cfg.EnableConsolidation {
		years := pastYears(byMonth, current.Year)
		for _, year := range years {
			var tracks []likedTrack
			for k, ts := range byMonth {
				if k.Year == year {
					tracks = append(tracks, ts...)
				}
			}
			tracks = sortLiked(tracks, liked)
			period := strconv.Itoa(year)

			plan.Targets = append(plan.Targets, Target{
				Kind:        KindYearly,
				Name:        namer.Yearly(year),
				Description: describe(namer, "Liked songs", period, tracks),
				TrackIDs:    ids(tracks),
				Scope:       scope,
			})
			for _, bucket := range genres.SplitBuckets {
				matched := filterSplit(tracks, bucket)
				if len(matched) == 0 {
					continue
				}
				plan.Targets = append(plan.Targets, Target{
					Kind:        KindGenreYearly,
					Name:        namer.GenreYearly(bucket, year),
					Description: describe(namer, bucket+" tracks", period, matched),
					TrackIDs:    ids(matched),
					Scope:       scope,
				})
			}
		}
		plan.Retire = retireCandidates(snap, namer, years)
	}

	if cfg.EnableMasterGenre {
		tags := make([][]string, len(liked))
		for i, t := range liked {
			tags[i] = t.tags
		}
		counts, classified := genres.CountBroad(tags)
		for _, g := range SelectMasterGenres(counts, classified, cfg.MinTracksForGenre, cfg.MaxGenrePlaylists) {
			var matched []likedTrack
			for _, t := range liked {
				if slices.Contains(t.broad, g) {
					matched = append(matched, t)
				}
			}
			plan.Targets = append(plan.Targets, Target{
				Kind:        KindGenreMaster,
				Name:        namer.GenreMaster(g),
				Description: describe(namer, "All liked "+g+" songs", "all time", matched),
				TrackIDs:    ids(matched),
				Scope:       scope,
			})
		}
	}

	return plan
}

// likedTracks returns the unique liked tracks, newest first, with their genre buckets.
func likedTracks(snap *models.Snapshot) []likedTrack {
	tracks := snap.TracksByID()
	artists := snap.ArtistsByID()
	seen := map[string]bool{}
	var out []likedTrack
	for _, m := range snap.LikedSongs() {
		if seen[m.TrackID] {
			continue
		}
		seen[m.TrackID] = true
		t, ok := tracks[m.TrackID]
		if !ok {
			continue
		}
		tags := genres.TrackGenres(t, artists)
		lt := likedTrack{id: t.ID, tags: tags, split: genres.SplitGenres(tags), broad: genres.BroadGenres(tags)}
		if !m.AddedAt.IsZero() {
			lt.month = naming.MonthOf(m.AddedAt)
		}
		out = append(out, lt)
	}
	return out
}

// monthsToBuild returns the months that get monthly playlists, oldest first.
func monthsToBuild(byMonth map[naming.MonthKey][]likedTrack, current naming.MonthKey, keep int, all bool) []naming.MonthKey {
	if keep <= 0 {
		keep = defaultKeepMonths
	}
	oldest := current.AddMonths(-(keep - 1))

	var out []naming.MonthKey
	for k := range byMonth {
		if current.Before(k) {
			continue
		}
		if all && k.Year == current.Year {
			out = append(out, k)
			continue
		}
		if !k.Before(oldest) {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b naming.MonthKey) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})
	return out
}

// pastYears returns the years before current that have liked songs, oldest first.
func pastYears(byMonth map[naming.MonthKey][]likedTrack, current int) []int {
	seen := map[int]bool{}
	var out []int
	for k := range byMonth {
		if k.Year < current && !seen[k.Year] {
			seen[k.Year] = true
			out = append(out, k.Year)
		}
	}
	slices.Sort(out)
	return out
}

// retireCandidates finds owned monthly and genre-split monthly playlists of the given years.
func retireCandidates(snap *models.Snapshot, namer *naming.Namer, years []int) []models.Playlist {
	if len(years) == 0 {
		return nil
	}
	var out []models.Playlist
	for _, p := range snap.Playlists {
		if !p.IsOwned || p.IsLikedSongs() {
			continue
		}
		if k, ok := namer.ParseMonthly(p.Name); ok && slices.Contains(years, k.Year) {
			out = append(out, p)
			continue
		}
		if g, k, ok := namer.ParseGenreMonthly(p.Name); ok && isSplitBucket(g) && slices.Contains(years, k.Year) {
			out = append(out, p)
		}
	}
	return out
}

func isSplitBucket(name string) bool {
	return slices.ContainsFunc(genres.SplitBuckets, func(b string) bool { return strings.EqualFold(b, name) })
}

// GenreThreshold is min(50, max(minTracks, 1% of classified tracks)).
func GenreThreshold(classified, minTracks int) int {
	if minTracks <= 0 {
		minTracks = defaultMinGenreTracks
	}
	return min(maxGenreThreshold, max(minTracks, classified/100))
}

// SelectMasterGenres picks the genres that get master playlists from counts sorted largest first.
//
// The top maxLists genres at or above the adaptive threshold are taken. When fewer than three qualify,
// genres from the top five with at least max(5, 30% of the threshold) tracks are added.
func SelectMasterGenres(counts []genres.Count, classified, minTracks, maxLists int) []string {
	if maxLists <= 0 {
		maxLists = defaultMaxGenreLists
	}
	threshold := GenreThreshold(classified, minTracks)
	top := counts[:min(len(counts), maxLists)]

	var selected []string
	for _, c := range top {
		if c.Tracks >= threshold {
			selected = append(selected, c.Genre)
		}
	}

	if len(selected) < minGenreSelection && len(top) > 0 {
		floor := max(genreFallbackFloor, threshold*3/10)
		for _, c := range top[:min(len(top), genreFallbackPool)] {
			if c.Tracks >= floor && !slices.Contains(selected, c.Genre) {
				selected = append(selected, c.Genre)
			}
		}
	}
	return selected
}

// describe fills the description template and appends the most common broad genres of tracks.
// The tags are dropped when they would push the description past Spotify's length limit.
func describe(namer *naming.Namer, desc, period string, tracks []likedTrack) string {
	base := namer.Description(desc, period)
	tags := genreTags(tracks)
	if tags == "" {
		return base
	}
	full := base + " · Genres: " + tags
	if utf8.RuneCountInString(full) > maxDescriptionLength {
		return base
	}
	return full
}

// genreTags lists up to maxGenreTags broad genres, most common first.
func genreTags(tracks []likedTrack) string {
	tags := make([][]string, len(tracks))
	for i, t := range tracks {
		tags[i] = t.tags
	}
	counts, _ := genres.CountBroad(tags)
	if len(counts) == 0 {
		return ""
	}

	names := make([]string, 0, maxGenreTags)
	for _, c := range counts[:min(len(counts), maxGenreTags)] {
		names = append(names, c.Genre)
	}
	out := strings.Join(names, ", ")
	if extra := len(counts) - len(names); extra > 0 {
		out += fmt.Sprintf(" (+%d more)", extra)
	}
	return out
}

func filterSplit(tracks []likedTrack, bucket string) []likedTrack {
	var out []likedTrack
	for _, t := range tracks {
		if slices.Contains(t.split, bucket) {
			out = append(out, t)
		}
	}
	return out
}

// sortLiked orders tracks the way they appear in liked songs.
func sortLiked(tracks, liked []likedTrack) []likedTrack {
	rank := make(map[string]int, len(liked))
	for i, t := range liked {
		rank[t.id] = i
	}
	slices.SortFunc(tracks, func(a, b likedTrack) int { return rank[a.id] - rank[b.id] })
	return tracks
}

func ids(tracks []likedTrack) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.id
	}
	return out
}
