package genres

import (
	"testing"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tc := []struct {
		name string
		tags []string
		want string
	}{
		{"nil", nil, Other},
		{"empty strings", []string{"", ""}, Other},
		{"hip hop", []string{"southern hip hop"}, HipHop},
		{"dance", []string{"deep house"}, Dance},
		{"hip hop wins over dance", []string{"tech house", "trap"}, HipHop},
		{"case insensitive", []string{"UK Garage"}, Dance},
		{"unmatched", []string{"bossa nova"}, Other},
		{"substring across tags", []string{"drum and", "bass"}, Dance},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tags))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := [][]string{nil, {}, {"???"}, {"metal"}, {"rap", "house"}, {"ambient"}, {"k-pop"}}
	for _, in := range inputs {
		assert.Contains(t, SplitBuckets, Classify(in))
	}
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{Other}, SplitGenres(nil))
	assert.Equal(t, []string{HipHop}, SplitGenres([]string{"cloud rap"}))
	assert.Equal(t, []string{HipHop, Dance}, SplitGenres([]string{"trap", "techno"}))
	assert.Equal(t, []string{Other}, SplitGenres([]string{"folk"}))
}

func TestBroadGenres(t *testing.T) {
	assert.Nil(t, BroadGenres(nil))
	assert.Nil(t, BroadGenres([]string{"zzz"}))
	assert.Equal(t, []string{"Hip-Hop", "R&B/Soul"}, BroadGenres([]string{"atlanta hip hop", "neo soul"}))
	assert.Equal(t, []string{"Jazz"}, BroadGenres([]string{"bebop"}))

	got := BroadGenres([]string{"indie rock"})
	assert.Equal(t, []string{"Rock", "Indie"}, got, "rule order is preserved")
}

func TestBroadBuckets(t *testing.T) {
	buckets := BroadBuckets()
	assert.Len(t, buckets, 13)
	assert.Equal(t, "Hip-Hop", buckets[0])
	assert.Equal(t, "Blues", buckets[len(buckets)-1])
}

func TestTrackGenres(t *testing.T) {
	artists := map[string]models.Artist{
		"a1": {ID: "a1", Genres: []string{"trap", "rap"}},
		"a2": {ID: "a2", Genres: []string{"rap", "house"}},
	}

	got := TrackGenres(models.Track{ArtistIDs: []string{"a1", "missing", "a2"}}, artists)
	assert.Equal(t, []string{"trap", "rap", "house"}, got)
	assert.Empty(t, TrackGenres(models.Track{}, artists))
}

func TestCountBroad(t *testing.T) {
	counts, classified := CountBroad([][]string{
		{"trap"},
		{"deep house"},
		{"indie rock"},
		{"southern hip hop"},
		nil,
		{"unheard of"},
	})

	assert.Equal(t, 4, classified)
	assert.Equal(t, []Count{
		{Genre: "Hip-Hop", Tracks: 2},
		{Genre: "Electronic", Tracks: 1},
		{Genre: "Indie", Tracks: 1},
		{Genre: "Rock", Tracks: 1},
	}, counts)

	counts, classified = CountBroad(nil)
	assert.Zero(t, classified)
	assert.Empty(t, counts)
}
