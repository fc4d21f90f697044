// Package genres maps raw Spotify genre tags to coarse buckets
package genres

import (
	"cmp"
	"slices"
	"strings"

	"github.com/desertthunder/spotsync/internal/models"
)

func combine(tags []string) string {
	return strings.ToLower(strings.Join(tags, " "))
}

func (r rule) matches(combined string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// Classify returns exactly one split bucket for the given tags: the first of [HipHop] or [Dance]
// with a matching keyword, otherwise [Other].
func Classify(tags []string) string {
	combined := combine(tags)
	if combined == "" {
		return Other
	}
	for _, r := range splitRules {
		if r.matches(combined) {
			return r.Bucket
		}
	}
	return Other
}

// SplitGenres returns every split bucket that matches, or just [Other].
func SplitGenres(tags []string) []string {
	combined := combine(tags)
	var out []string
	if combined != "" {
		for _, r := range splitRules {
			if r.matches(combined) {
				out = append(out, r.Bucket)
			}
		}
	}
	if len(out) == 0 {
		return []string{Other}
	}
	return out
}

// BroadGenres returns all matching broad buckets in rule order. Unmatched tags yield nil.
func BroadGenres(tags []string) []string {
	combined := combine(tags)
	if combined == "" {
		return nil
	}
	var out []string
	for _, r := range broadRules {
		if r.matches(combined) {
			out = append(out, r.Bucket)
		}
	}
	return out
}

// TrackGenres returns the de-duplicated union of the genres of a track's artists.
func TrackGenres(track models.Track, artists map[string]models.Artist) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range track.ArtistIDs {
		a, ok := artists[id]
		if !ok {
			continue
		}
		for _, g := range a.Genres {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// Count is the number of tracks in one bucket.
type Count struct {
	Genre  string `json:"genre"`
	Tracks int    `json:"tracks"`
}

// CountBroad counts tracks per broad bucket, given each track's genre tags. Counts are sorted largest first,
// then by name. classified is the number of tracks with at least one bucket.
func CountBroad(tracks [][]string) (counts []Count, classified int) {
	byGenre := map[string]int{}
	for _, tags := range tracks {
		buckets := BroadGenres(tags)
		if len(buckets) > 0 {
			classified++
		}
		for _, b := range buckets {
			byGenre[b]++
		}
	}

	counts = make([]Count, 0, len(byGenre))
	for g, n := range byGenre {
		counts = append(counts, Count{Genre: g, Tracks: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Tracks, a.Tracks); c != 0 {
			return c
		}
		return strings.Compare(a.Genre, b.Genre)
	})
	return counts, classified
}
