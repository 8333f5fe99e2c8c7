package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.APIService
	catalog    services.CatalogFetcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// API and Catalog are built from the config on first use when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	Catalog    services.CatalogFetcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by subsequent command actions.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "api-base",
			Usage: "Base URL of the catalog API (overrides " + shared.APIBaseEnv + ")",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

// Before loads the config file, applies the API base override and sets the log level.
//
// A missing config file falls back to defaults so `setup config` can create it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if cmd.IsSet("config") {
		r.logger.Warn("config file not found, using defaults", "path", path)
	}

	r.config.ResolveAPIBase(cmd.String("api-base"))

	level := cmd.String("log-level")
	if level == "" {
		level = r.config.Log.Level
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	return ctx, nil
}

// apiService returns the raw API client, building it from the config when none was injected.
func (r *Runner) apiService() (*services.APIService, error) {
	if r.api != nil {
		return r.api, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient)
	return r.api, nil
}

// services returns the catalog fetcher, building it from the config when none was injected.
func (r *Runner) services() (services.CatalogFetcher, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	api, err := r.apiService()
	if err != nil {
		return nil, err
	}

	r.catalog = services.NewCatalogService(api, services.CatalogOpts{
		Timeout:        r.config.API.Timeout,
		ReloadInterval: r.config.API.ReloadInterval,
		Logger:         r.logger,
	})
	return r.catalog, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, playlistsCommand, serveCommand, setupCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
