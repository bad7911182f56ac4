package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/socket"
)

// SendFunc delivers a request to the running instance.
type SendFunc func(ctx context.Context, req *socket.Request) (*socket.Response, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	paths      shared.Paths
	client     services.Client
	httpClient *http.Client
	send       SendFunc
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Client and Send are normally built from the loaded configuration; tests set them.
type RunnerOpts struct {
	Config     *shared.Config
	Paths      shared.Paths
	Client     services.Client
	HTTPClient *http.Client
	Send       SendFunc
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

	r := &Runner{
		config:     opts.Config,
		paths:      opts.Paths,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		send:       opts.Send,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.send == nil {
		r.send = func(ctx context.Context, req *socket.Request) (*socket.Response, error) {
			return socket.Send(ctx, r.config.ClientPort, req, socket.DefaultTimeout)
		}
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authenticateCommand, generateCommand, getCommand, playbackCommand, connectCommand,
		likeCommand, playlistCommand, searchCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup resolves the config and cache folders from the global flags and loads app.toml.
//
// A missing app.toml is not an error: the defaults are used and a warning is logged.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.paths = shared.NewPaths(cmd.String("config-folder"), cmd.String("cache-folder"))
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(cmd.String("log-level")))

	config, err := shared.LoadConfig(r.paths.AppConfig())
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Warn("app config not found, using defaults", "path", r.paths.AppConfig())
	default:
		return ctx, err
	}

	if t := cmd.String("theme"); t != "" {
		r.config.Theme = t
	}
	r.logger.Debug("configuration loaded", "config", r.paths.ConfigFolder, "cache", r.paths.CacheFolder)
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	l.SetLevel(r.logger.GetLevel())
	r.logger = l
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
