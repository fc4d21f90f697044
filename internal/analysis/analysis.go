// Package analysis computes statistics and read-only views over a cached library snapshot
package analysis

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/spotsync/internal/genres"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/naming"
)

// Stats summarises the owned playlists of a library, excluding liked songs.
type Stats struct {
	TotalTracks    int     `json:"total_tracks"`
	TotalArtists   int     `json:"total_artists"`
	TotalPlaylists int     `json:"total_playlists"`
	TotalHours     float64 `json:"total_hours"`
	AvgPopularity  float64 `json:"avg_popularity"`
}

// Report is the result of [Analyze].
type Report struct {
	Stats                  Stats          `json:"stats"`
	MonthlyPlaylistsCount  int            `json:"monthly_playlists_count"`
	MonthlyPlaylists       []string       `json:"monthly_playlists"`
	FollowedPlaylistsCount int            `json:"followed_playlists_count"`
	GenreCounts            []genres.Count `json:"genre_counts"`
}

var monthlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)['"]?\s?\d{2,4}$`),
	regexp.MustCompile(`(?i)^(January|February|March|April|May|June|July|August|September|October|November|December)\s*\d{4}$`),
	regexp.MustCompile(`^\d{4}[-/]\d{2}$`),
	regexp.MustCompile(`^\d{2}[-/]\d{4}$`),
}

// ComputeStats counts the tracks and artists reachable from owned playlists other than liked songs.
func ComputeStats(snap *models.Snapshot) Stats {
	owned := map[string]bool{}
	for _, p := range snap.Playlists {
		if p.IsOwned && !p.IsLikedSongs() {
			owned[p.ID] = true
		}
	}

	trackIDs := map[string]bool{}
	for _, m := range snap.Memberships {
		if owned[m.PlaylistID] {
			trackIDs[m.TrackID] = true
		}
	}

	var durationMS, popularity int
	artistIDs := map[string]bool{}
	tracks := 0
	for _, t := range snap.Tracks {
		if !trackIDs[t.ID] {
			continue
		}
		tracks++
		durationMS += t.DurationMS
		popularity += t.Popularity
		for _, a := range t.ArtistIDs {
			artistIDs[a] = true
		}
	}

	stats := Stats{
		TotalTracks:    tracks,
		TotalArtists:   len(artistIDs),
		TotalPlaylists: len(owned),
		TotalHours:     round2(float64(durationMS) / 3_600_000),
	}
	if tracks > 0 {
		stats.AvgPopularity = round2(float64(popularity) / float64(tracks))
	}
	return stats
}

// MonthlyPlaylists returns the owned playlists whose names look like a month, sorted by name.
//
// Names produced by namer count as monthly, as do common forms like "Jan'24", "January 2024" and "2024-01".
// namer may be nil.
func MonthlyPlaylists(snap *models.Snapshot, namer *naming.Namer) []models.Playlist {
	var out []models.Playlist
	for _, p := range snap.Playlists {
		if !p.IsOwned || p.IsLikedSongs() {
			continue
		}
		if isMonthlyName(p.Name, namer) {
			out = append(out, p)
		}
	}
	sortByName(out)
	return out
}

func isMonthlyName(name string, namer *naming.Namer) bool {
	name = strings.TrimSpace(name)
	for _, re := range monthlyPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	if namer == nil {
		return false
	}
	_, ok := namer.ParseMonthly(name)
	return ok
}

// Analyze builds a [Report] for the snapshot.
func Analyze(snap *models.Snapshot, namer *naming.Namer) Report {
	monthly := MonthlyPlaylists(snap, namer)
	names := make([]string, len(monthly))
	for i, p := range monthly {
		names[i] = p.Name
	}

	followed := 0
	for _, p := range snap.Playlists {
		if !p.IsOwned {
			followed++
		}
	}

	counts, _ := LikedGenreCounts(snap)
	return Report{
		Stats:                  ComputeStats(snap),
		MonthlyPlaylistsCount:  len(monthly),
		MonthlyPlaylists:       names,
		FollowedPlaylistsCount: followed,
		GenreCounts:            counts,
	}
}

// Summary flattens the report into display strings for job stats.
func (r Report) Summary() map[string]string {
	out := map[string]string{
		"total_tracks":       strconv.Itoa(r.Stats.TotalTracks),
		"total_artists":      strconv.Itoa(r.Stats.TotalArtists),
		"total_playlists":    strconv.Itoa(r.Stats.TotalPlaylists),
		"total_hours":        strconv.FormatFloat(r.Stats.TotalHours, 'f', -1, 64),
		"avg_popularity":     strconv.FormatFloat(r.Stats.AvgPopularity, 'f', -1, 64),
		"monthly_playlists":  strconv.Itoa(r.MonthlyPlaylistsCount),
		"followed_playlists": strconv.Itoa(r.FollowedPlaylistsCount),
	}
	if len(r.GenreCounts) > 0 {
		out["top_genre"] = r.GenreCounts[0].Genre
	}
	return out
}

// LikedGenreCounts counts liked songs per broad genre.
func LikedGenreCounts(snap *models.Snapshot) ([]genres.Count, int) {
	tracks := snap.TracksByID()
	artists := snap.ArtistsByID()
	seen := map[string]bool{}
	var tags [][]string
	for _, m := range snap.LikedSongs() {
		t, ok := tracks[m.TrackID]
		if !ok || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tags = append(tags, genres.TrackGenres(t, artists))
	}
	return genres.CountBroad(tags)
}

// OwnedPlaylists returns owned playlists, liked songs included, sorted by name.
func OwnedPlaylists(snap *models.Snapshot) []models.Playlist {
	var out []models.Playlist
	for _, p := range snap.Playlists {
		if p.IsOwned {
			out = append(out, p)
		}
	}
	sortByName(out)
	return out
}

// PlaylistTracks returns the tracks of a playlist in position order. Unknown playlists yield nil.
func PlaylistTracks(snap *models.Snapshot, playlistID string) []models.Track {
	tracks := snap.TracksByID()
	var out []models.Track
	for _, m := range snap.MembershipsFor(playlistID) {
		if t, ok := tracks[m.TrackID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Artists returns every cached artist sorted by name.
func Artists(snap *models.Snapshot) []models.Artist {
	out := slices.Clone(snap.Artists)
	slices.SortStableFunc(out, func(a, b models.Artist) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func sortByName(ps []models.Playlist) {
	slices.SortStableFunc(ps, func(a, b models.Playlist) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
