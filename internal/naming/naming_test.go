package naming

import (
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultNamer() *Namer {
	return New(shared.DefaultConfig().Playlists)
}

func TestNamer(t *testing.T) {
	n := defaultNamer()

	t.Run("Monthly", func(t *testing.T) {
		assert.Equal(t, "AJFindsDec25", n.Monthly(time.December, 2025))
		assert.Equal(t, "AJFindsJan24", n.Monthly(time.January, 2024))
	})

	t.Run("Monthly Is Deterministic", func(t *testing.T) {
		assert.Equal(t, n.Monthly(time.March, 2025), defaultNamer().Monthly(time.March, 2025))
	})

	t.Run("Yearly", func(t *testing.T) {
		assert.Equal(t, "AJFinds24", n.Yearly(2024))
	})

	t.Run("GenreMonthly", func(t *testing.T) {
		assert.Equal(t, "HipHopFindsNov25", n.GenreMonthly("HipHop", time.November, 2025))
	})

	t.Run("GenreYearly", func(t *testing.T) {
		assert.Equal(t, "AJFindsDance24", n.GenreYearly("Dance", 2024))
	})

	t.Run("GenreMaster", func(t *testing.T) {
		assert.Equal(t, "AJamR&B/Soul", n.GenreMaster("R&B/Soul"))
	})

	t.Run("Description", func(t *testing.T) {
		assert.Equal(t,
			"Liked songs from Jan 2025 (automatically updated; manual additions welcome)",
			n.Description("Liked songs", MonthKey{2025, time.January}.Period()))
	})
}

func TestNamerFormatting(t *testing.T) {
	base := shared.PlaylistsConfig{OwnerName: "aj", Prefix: "finds"}

	tc := []struct {
		name   string
		mutate func(*shared.PlaylistsConfig)
		want   string
	}{
		{"preserve", func(c *shared.PlaylistsConfig) {}, "ajfindsDec25"},
		{"upper", func(c *shared.PlaylistsConfig) { c.Capitalization = "upper" }, "AJFINDSDEC25"},
		{"title", func(c *shared.PlaylistsConfig) { c.Capitalization = "title" }, "AjFindsDec25"},
		{"medium", func(c *shared.PlaylistsConfig) { c.DateFormat = "medium" }, "ajfindsDecember2025"},
		{"numeric", func(c *shared.PlaylistsConfig) { c.DateFormat = "numeric" }, "ajfinds122025"},
		{"month separator", func(c *shared.PlaylistsConfig) { c.SeparatorMonth = "space" }, "ajfindsDec 25"},
		{"prefix separator", func(c *shared.PlaylistsConfig) { c.SeparatorPrefix = "dash" }, "aj-findsDec25"},
		{"underscore both", func(c *shared.PlaylistsConfig) {
			c.SeparatorPrefix = "underscore"
			c.SeparatorMonth = "underscore"
		}, "aj_findsDec_25"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, New(cfg).Monthly(time.December, 2025))
		})
	}
}

func TestParseMonthly(t *testing.T) {
	n := defaultNamer()

	t.Run("Round Trip", func(t *testing.T) {
		for m := time.January; m <= time.December; m++ {
			key, ok := n.ParseMonthly(n.Monthly(m, 2024))
			require.True(t, ok, m.String())
			assert.Equal(t, MonthKey{2024, m}, key)
		}
	})

	t.Run("Rejects Other Names", func(t *testing.T) {
		for _, name := range []string{"AJFinds24", "Road Trip", "AJFindsFoo24", "XXFindsJan24", "AJamHip-Hop"} {
			_, ok := n.ParseMonthly(name)
			assert.False(t, ok, name)
		}
	})

	t.Run("Separators And Formats", func(t *testing.T) {
		cfg := shared.DefaultConfig().Playlists
		cfg.DateFormat = "medium"
		cfg.SeparatorMonth = "space"
		cfg.Capitalization = "upper"
		custom := New(cfg)

		name := custom.Monthly(time.June, 2023)
		assert.Equal(t, "AJFINDSJUNE 2023", name)
		key, ok := custom.ParseMonthly(name)
		require.True(t, ok)
		assert.Equal(t, MonthKey{2023, time.June}, key)
	})

	t.Run("Genre Monthly", func(t *testing.T) {
		genre, key, ok := n.ParseGenreMonthly(n.GenreMonthly("Dance", time.April, 2024))
		require.True(t, ok)
		assert.Equal(t, "Dance", genre)
		assert.Equal(t, MonthKey{2024, time.April}, key)

		_, _, ok = n.ParseGenreMonthly("DanceFinds24")
		assert.False(t, ok)
	})
}

func TestMonthKey(t *testing.T) {
	k := MonthOf(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-01", k.String())
	assert.Equal(t, "Jan 2025", k.Period())
	assert.Equal(t, MonthKey{2024, time.November}, k.AddMonths(-2))
	assert.Equal(t, MonthKey{2026, time.January}, k.AddMonths(12))
	assert.True(t, k.AddMonths(-1).Before(k))
	assert.False(t, k.Before(k))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Hip-Hop", titleCase("hip-hop"))
	assert.Equal(t, "R&B/Soul", titleCase("r&b/SOUL"))
}
