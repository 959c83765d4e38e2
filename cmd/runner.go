package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/upl/internal/repositories"
	"github.com/desertthunder/upl/internal/services"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/desertthunder/upl/internal/tasks"
	"github.com/desertthunder/upl/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Network services are built on first use so that commands like setup work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	envFile    string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	store     tokens.Store
	ownsStore bool
	db        *sql.DB
	auth      *services.Authenticator
	catalog   *services.CatalogClient
	playlists *services.PlaylistManager
	history   *repositories.History
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // Loaded from ConfigPath by the root command when nil
	ConfigPath string
	EnvFile    string
	Store      tokens.Store // Opened from Config.Storage when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		envFile:    opts.EnvFile,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		store:      opts.Store,
	}
}

// SetLogger replaces the logger, e.g. when the TUI takes over the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "upl",
		Usage:   "Add recognized songs to a managed Spotify playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       r.configPath,
				Destination: &r.configPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "Dotenv file applied over the configuration",
				Value:       ".env",
				Destination: &r.envFile,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, searchCommand, addCommand, ingestCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads configuration once flags are parsed.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config := shared.DefaultConfig()
		if _, err := os.Stat(r.configPath); err == nil {
			if config, err = shared.LoadConfig(r.configPath); err != nil {
				return ctx, err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}

		if err := shared.ApplyEnv(config, r.envFile); err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	if err := shared.ApplyLogLevel(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	r.Close()
	return nil
}

// Close releases the token store and history database.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
		r.history = nil
	}
	if r.store != nil && r.ownsStore {
		r.store.Close()
		r.store = nil
	}
}

// authenticator builds the token store and [services.Authenticator] and restores the persisted credential.
func (r *Runner) authenticator() (*services.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	if r.store == nil {
		store, err := tokens.Open(r.config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		r.store = store
		r.ownsStore = true
	}

	auth, err := services.NewAuthenticator(r.config.Credentials.Spotify.Map(), r.store, r.logger)
	if err != nil {
		return nil, err
	}
	if r.httpClient != nil {
		auth.SetHTTPClient(r.httpClient)
	}
	if err := auth.Restore(); err != nil {
		return nil, err
	}

	r.auth = auth
	return auth, nil
}

// services builds the catalog client and playlist manager on top of [Runner.authenticator].
func (r *Runner) services() error {
	if r.catalog != nil {
		return nil
	}

	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: r.config.Catalog.Timeout()}
	}

	r.catalog = services.NewCatalogClient(auth,
		services.WithBaseURL(r.config.Credentials.Spotify.APIURL),
		services.WithHTTPClient(httpClient),
		services.WithRateLimit(r.config.Catalog.RequestsPerSecond, r.config.Catalog.Burst),
		services.WithLogger(r.logger),
	)
	r.playlists = services.NewPlaylistManager(auth, r.catalog, r.config.Playlist.Name, r.config.Playlist.Description, r.logger)
	return nil
}

// openHistory opens the history database and applies migrations.
func (r *Runner) openHistory() (*repositories.History, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.history = repositories.NewHistory(db)
	return r.history, nil
}

// ingestor wires the catalog and playlist manager into a [tasks.Ingestor], recording history unless disabled.
func (r *Runner) ingestor(record bool) (*tasks.Ingestor, error) {
	if err := r.services(); err != nil {
		return nil, err
	}

	ing := tasks.NewIngestor(r.catalog, r.playlists, r.playlists.Name(), r.logger)
	if record {
		history, err := r.openHistory()
		if err != nil {
			r.logger.Warn("history disabled", "error", err)
		} else {
			ing.SetRecorder(history)
		}
	}
	return ing, nil
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
