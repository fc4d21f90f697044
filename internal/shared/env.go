package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=VALUE pairs from a .env file into the process environment.
//
// Variables already set in the environment are not overwritten. A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv overrides config values with any recognised environment variables.
func ApplyEnv(c *Config) {
	envString("SPOTIPY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	envString("SPOTIPY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	envString("SPOTIPY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI)
	envString("SPOTIPY_REFRESH_TOKEN", &c.Credentials.Spotify.RefreshToken)

	envString("SPOTSYNC_DB_PATH", &c.Database.Path)
	envString("SPOTSYNC_DB_DRIVER", &c.Database.Driver)
	envInt("SPOTSYNC_SERVER_PORT", &c.Server.Port)
	envString("SPOTSYNC_LOCK_PATH", &c.Sync.LockPath)

	p := &c.Playlists
	envString("PLAYLIST_OWNER_NAME", &p.OwnerName)
	envString("PLAYLIST_PREFIX", &p.Prefix)
	envBool("PLAYLIST_ENABLE_MONTHLY", &p.EnableMonthly)
	envBool("PLAYLIST_ENABLE_GENRE_SPLIT", &p.EnableGenreSplit)
	envBool("PLAYLIST_ENABLE_CONSOLIDATION", &p.EnableConsolidation)
	envBool("PLAYLIST_ENABLE_MASTER_GENRE", &p.EnableMasterGenre)
	envString("PLAYLIST_PREFIX_MONTHLY", &p.Prefixes.Monthly)
	envString("PLAYLIST_PREFIX_GENRE_MONTHLY", &p.Prefixes.GenreMonthly)
	envString("PLAYLIST_PREFIX_YEARLY", &p.Prefixes.Yearly)
	envString("PLAYLIST_PREFIX_GENRE_MASTER", &p.Prefixes.GenreMaster)
	envString("PLAYLIST_TEMPLATE_MONTHLY", &p.Templates.Monthly)
	envString("PLAYLIST_TEMPLATE_YEARLY", &p.Templates.Yearly)
	envString("PLAYLIST_TEMPLATE_GENRE_MONTHLY", &p.Templates.GenreMonthly)
	envString("PLAYLIST_TEMPLATE_GENRE_YEARLY", &p.Templates.GenreYearly)
	envString("PLAYLIST_TEMPLATE_GENRE_MASTER", &p.Templates.GenreMaster)
	envString("PLAYLIST_DATE_FORMAT", &p.DateFormat)
	envString("PLAYLIST_SEPARATOR_MONTH", &p.SeparatorMonth)
	envString("PLAYLIST_SEPARATOR_PREFIX", &p.SeparatorPrefix)
	envString("PLAYLIST_CAPITALIZATION", &p.Capitalization)
	envString("PLAYLIST_DESCRIPTION_TEMPLATE", &p.DescriptionTemplate)
	envInt("MIN_TRACKS_FOR_GENRE", &p.MinTracksForGenre)
	envInt("MAX_GENRE_PLAYLISTS", &p.MaxGenrePlaylists)
	envInt("KEEP_MONTHLY_MONTHS", &p.KeepMonthlyMonths)

	envSeconds("SPOTIFY_API_DELAY", &c.API.Delay)
	envInt("SPOTIFY_API_MAX_RETRIES", &c.API.MaxRetries)

	e := &c.Email
	envBool("EMAIL_ENABLED", &e.Enabled)
	envString("EMAIL_SMTP_HOST", &e.SMTPHost)
	envInt("EMAIL_SMTP_PORT", &e.SMTPPort)
	envString("EMAIL_SMTP_USER", &e.SMTPUser)
	envString("EMAIL_SMTP_PASSWORD", &e.SMTPPassword)
	envString("EMAIL_TO", &e.To)
	envString("EMAIL_FROM", &e.From)
	envString("EMAIL_SUBJECT_PREFIX", &e.SubjectPrefix)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}

// envSeconds reads a float number of seconds ("0.15"), or a Go duration string ("150ms").
func envSeconds(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(f * float64(time.Second))
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
