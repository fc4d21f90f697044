package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Values from the environment (and a .env file) are layered on top by [ApplyEnv].
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	API         APIConfig         `toml:"api"`
	Email       EmailConfig       `toml:"email"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// RefreshToken enables headless runs (cron, CI) without the browser flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
	TokenPath    string `toml:"token_path"`
}

// DatabaseConfig contains database connection settings.
//
// Driver is either "sqlite3" (mattn/go-sqlite3, cgo) or "sqlite" (modernc.org/sqlite).
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Addr returns the listen address for the job server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PlaylistsConfig controls naming and generation of automated playlists.
type PlaylistsConfig struct {
	OwnerName           string         `toml:"owner_name"`
	Prefix              string         `toml:"prefix"`
	EnableMonthly       bool           `toml:"enable_monthly"`
	EnableGenreSplit    bool           `toml:"enable_genre_split"`
	EnableConsolidation bool           `toml:"enable_consolidation"`
	EnableMasterGenre   bool           `toml:"enable_master_genre"`
	Prefixes            PrefixConfig   `toml:"prefixes"`
	Templates           TemplateConfig `toml:"templates"`
	DateFormat          string         `toml:"date_format"`
	SeparatorMonth      string         `toml:"separator_month"`
	SeparatorPrefix     string         `toml:"separator_prefix"`
	Capitalization      string         `toml:"capitalization"`
	DescriptionTemplate string         `toml:"description_template"`
	MinTracksForGenre   int            `toml:"min_tracks_for_genre"`
	MaxGenrePlaylists   int            `toml:"max_genre_playlists"`
	KeepMonthlyMonths   int            `toml:"keep_monthly_months"`
}

// PrefixConfig holds per playlist type prefixes. Empty values fall back to [PlaylistsConfig.Prefix].
type PrefixConfig struct {
	Monthly      string `toml:"monthly"`
	GenreMonthly string `toml:"genre_monthly"`
	Yearly       string `toml:"yearly"`
	GenreMaster  string `toml:"genre_master"`
}

// TemplateConfig holds the name templates for each playlist type.
type TemplateConfig struct {
	Monthly      string `toml:"monthly"`
	Yearly       string `toml:"yearly"`
	GenreMonthly string `toml:"genre_monthly"`
	GenreYearly  string `toml:"genre_yearly"`
	GenreMaster  string `toml:"genre_master"`
}

// APIConfig controls request pacing and retries against the Spotify API.
type APIConfig struct {
	Delay      time.Duration `toml:"delay"`
	MaxRetries int           `toml:"max_retries"`
	BaseURL    string        `toml:"base_url"`
}

// EmailConfig contains SMTP settings for run notifications.
type EmailConfig struct {
	Enabled       bool   `toml:"enabled"`
	SMTPHost      string `toml:"smtp_host"`
	SMTPPort      int    `toml:"smtp_port"`
	SMTPUser      string `toml:"smtp_user"`
	SMTPPassword  string `toml:"smtp_password"`
	To            string `toml:"to"`
	From          string `toml:"from"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// SyncConfig contains settings for scheduled sync runs.
type SyncConfig struct {
	DataDir  string `toml:"data_dir"`
	LockPath string `toml:"lock_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := embeddedDefaults()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.resolvePaths()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	config := embeddedDefaults()
	config.resolvePaths()
	return config
}

func embeddedDefaults() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// resolvePaths fills empty path settings with locations under the data directory.
func (c *Config) resolvePaths() {
	if c.Sync.DataDir == "" {
		c.Sync.DataDir = DefaultDataDir()
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Sync.DataDir, "spotsync.db")
	}
	if c.Credentials.Spotify.TokenPath == "" {
		c.Credentials.Spotify.TokenPath = filepath.Join(c.Sync.DataDir, "token.json")
	}
	if c.Sync.LockPath == "" {
		c.Sync.LockPath = filepath.Join(c.Sync.DataDir, "sync.lock")
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindConfig returns the first config file that exists, checking explicit first,
// then ./config.toml, then the XDG config location. Returns "" when none exist.
func FindConfig(explicit string) string {
	candidates := []string{}
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "config.toml", DefaultConfigPath())

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
