package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/notify"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The Spotify service and the database are opened lazily, so commands that need neither
// (setup config, watch, remote) work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	logOutput  io.Writer
	output     io.Writer
	mailer     *notify.Mailer

	mu      sync.Mutex
	service services.Service
	db      *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	LogOutput  io.Writer
	Output     io.Writer
	Mailer     *notify.Mailer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(opts.LogOutput)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		logOutput:  opts.LogOutput,
		output:     opts.Output,
		mailer:     opts.Mailer,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, serveCommand, analysisCommand, libraryCommand, exportCommand,
		authCommand, setupCommand, watchCommand, remoteCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load resolves the config file, layers environment variables on top and applies --verbose.
//
// An explicit --config path must exist. Otherwise ./config.toml and the XDG location are tried,
// falling back to the embedded defaults.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = shared.FindConfig("")
	}

	config := shared.DefaultConfig()
	if path != "" {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
		r.logger.Debug("loaded config", "path", path)
	} else {
		r.logger.Debug("no config file found, using defaults")
	}

	shared.ApplyEnv(config)
	r.config = config
	r.configPath = path
	return ctx, nil
}

// close releases the database connection, if one was opened.
func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the cache database and applies pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("opened database", "driver", r.config.Database.Driver, "path", r.config.Database.Path)
	r.db = db
	return db, nil
}

func (r *Runner) store() (*repositories.SnapshotRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSnapshotRepository(db), nil
}

// snapshot loads the cached library, failing with [shared.ErrEmptyCache] before the first sync.
func (r *Runner) snapshot(ctx context.Context) (*models.Snapshot, error) {
	store, err := r.store()
	if err != nil {
		return nil, err
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, shared.ErrEmptyCache
	}
	return snap, nil
}

// spotify returns the Spotify service, authorizing it from the stored token or the configured refresh token.
func (r *Runner) spotify(ctx context.Context) (services.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.service != nil {
		return r.service, nil
	}

	creds := r.config.Credentials.Spotify
	conf, err := services.OAuthConfig(creds)
	if err != nil {
		return nil, err
	}

	client, err := services.NewHTTPClient(ctx, conf, services.NewTokenStore(creds.TokenPath), creds.RefreshToken)
	if err != nil {
		return nil, err
	}

	r.service = services.NewSpotifyService(client, r.spotifyOptions())
	return r.service, nil
}

func (r *Runner) spotifyOptions() services.SpotifyOptions {
	return services.SpotifyOptions{
		BaseURL:    r.config.API.BaseURL,
		Delay:      r.config.API.Delay,
		MaxRetries: r.config.API.MaxRetries,
		Logger:     shared.WithLogger(r.logger, "service", "spotify"),
	}
}

// engine builds a [tasks.PlaylistEngine] that logs to logger. withService controls whether
// the Spotify service is required; export and analysis only read the cache.
func (r *Runner) engine(ctx context.Context, logger *log.Logger, withService bool) (*tasks.PlaylistEngine, error) {
	store, err := r.store()
	if err != nil {
		return nil, err
	}

	var svc services.Service
	if withService {
		if svc, err = r.spotify(ctx); err != nil {
			return nil, err
		}
	}
	return tasks.NewPlaylistEngine(svc, store, r.config.Playlists, logger), nil
}

func (r *Runner) notifier() *notify.Mailer {
	if r.mailer != nil {
		return r.mailer
	}
	return notify.New(r.config.Email)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
