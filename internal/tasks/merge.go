package tasks

import (
	"slices"
	"strings"

	"github.com/desertthunder/spotsync/internal/models"
)

// MergeSnapshot combines the cached snapshot with freshly fetched data.
//
// The fetched playlist listing is authoritative. Tracks and artists are unioned by id: a fetched entity replaces
// the cached one only when their content differs. Memberships pointing at playlists or tracks that are not present
// are dropped, then tracks without memberships and artists without tracks are pruned.
func MergeSnapshot(cached, fetched *models.Snapshot) *models.Snapshot {
	if cached == nil {
		cached = &models.Snapshot{}
	}

	out := &models.Snapshot{
		UserID:    fetched.UserID,
		SyncedAt:  fetched.SyncedAt,
		Playlists: dedupeByID(fetched.Playlists, func(p models.Playlist) string { return p.ID }),
	}

	tracks := unionByID(cached.Tracks, fetched.Tracks, func(t models.Track) string { return t.ID }, models.Track.Equal)
	artists := unionByID(cached.Artists, fetched.Artists, func(a models.Artist) string { return a.ID }, models.Artist.Equal)

	playlistIDs := map[string]bool{}
	for _, p := range out.Playlists {
		playlistIDs[p.ID] = true
	}

	type slot struct {
		playlist string
		position int
	}
	seenSlot := map[slot]bool{}
	usedTracks := map[string]bool{}
	for _, m := range fetched.Memberships {
		if !playlistIDs[m.PlaylistID] {
			continue
		}
		if _, ok := tracks[m.TrackID]; !ok {
			continue
		}
		s := slot{m.PlaylistID, m.Position}
		if seenSlot[s] {
			continue
		}
		seenSlot[s] = true
		usedTracks[m.TrackID] = true
		out.Memberships = append(out.Memberships, m)
	}

	usedArtists := map[string]bool{}
	for _, id := range sortedKeys(usedTracks) {
		t := tracks[id]
		out.Tracks = append(out.Tracks, t)
		for _, a := range t.ArtistIDs {
			usedArtists[a] = true
		}
	}
	for _, id := range sortedKeys(usedArtists) {
		if a, ok := artists[id]; ok {
			out.Artists = append(out.Artists, a)
		}
	}

	out.Memberships = (&models.Snapshot{Memberships: out.Memberships}).SortedMemberships()
	return out
}

// unionByID indexes cached and fetched entities by id. A fetched entity wins when its content differs.
func unionByID[T any](cached, fetched []T, id func(T) string, equal func(T, T) bool) map[string]T {
	out := make(map[string]T, len(cached)+len(fetched))
	for _, v := range cached {
		out[id(v)] = v
	}
	for _, v := range fetched {
		if old, ok := out[id(v)]; ok && equal(old, v) {
			continue
		}
		out[id(v)] = v
	}
	return out
}

// dedupeByID keeps the first entity for each id, in input order.
func dedupeByID[T any](in []T, id func(T) string) []T {
	seen := map[string]bool{}
	out := make([]T, 0, len(in))
	for _, v := range in {
		if seen[id(v)] {
			continue
		}
		seen[id(v)] = true
		out = append(out, v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}
