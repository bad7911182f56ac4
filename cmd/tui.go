package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spx/internal/folders"
	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/lyrics"
	"github.com/desertthunder/spx/internal/player"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/socket"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/desertthunder/spx/internal/theme"
	"github.com/desertthunder/spx/internal/ui"
)

// instance holds what the application shares between the client socket and the TUI.
type instance struct {
	client  services.Client
	player  *player.Player
	db      *sql.DB
	imports *repositories.ImportRepository
	server  *socket.Server
}

// Run starts the application: the client socket plus the terminal UI, or only
// the socket with --daemon.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return fmt.Errorf("%w: unknown command %q", shared.ErrInvalidArgument, cmd.Args().First())
	}

	lock := shared.NewInstanceLock(r.paths.Lock())
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	daemon := cmd.Bool("daemon")
	if !daemon {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, path, err := shared.NewFileLogger(r.paths.Logs())
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
		r.logger.Info("logging to file", "path", path)
	}

	inst, err := r.start(ctx)
	if err != nil {
		return err
	}
	defer inst.close(r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return inst.server.Serve(gctx) })

	if daemon {
		r.logger.Info("running as a daemon", "port", inst.server.Port())
	} else {
		g.Go(func() error {
			defer cancel()
			return r.runTUI(gctx, inst)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// start connects to the Web API, opens the cache database and binds the client socket.
func (r *Runner) start(ctx context.Context) (*instance, error) {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return nil, err
	}

	inst := &instance{client: client, player: player.New(client, shared.WithLogger(r.logger, "component", "player"))}

	var store tasks.ImportStore
	var cleaner socket.ImportCleaner
	db, err := shared.OpenCache(r.config.DatabasePath(r.paths.CacheFolder), r.config.Database)
	if err != nil {
		r.logger.Warn("cache database unavailable, imports and lyrics are not persisted", "error", err)
	} else {
		inst.db = db
		inst.imports = repositories.NewImportRepository(db)
		store, cleaner = inst.imports, inst.imports
	}

	engine := tasks.NewPlaylistEngine(client, store, shared.WithLogger(r.logger, "component", "playlists"))
	handler := socket.NewHandler(client, inst.player, engine, cleaner, shared.WithLogger(r.logger, "component", "socket"))
	handler.TracksLimit = r.config.TracksPlaybackLimit

	srv, err := socket.Listen(r.config.ClientPort, handler, r.logger)
	if err != nil {
		inst.close(r.logger)
		return nil, err
	}
	inst.server = srv
	return inst, nil
}

func (i *instance) close(logger *log.Logger) {
	if i.server != nil {
		i.server.Close()
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			logger.Warn("failed to close cache database", "error", err)
		}
	}
}

// runTUI loads the keymap, themes and playlist folders and runs the terminal UI
// until the user quits. Edits to those files are sent to the UI.
func (r *Runner) runTUI(ctx context.Context, inst *instance) error {
	km, found, err := keymap.Load(r.paths.Keymap())
	if err != nil {
		return err
	} else if !found {
		r.logger.Warn("keymap config not found, using defaults", "path", r.paths.Keymap())
	}

	themes, found, err := theme.Load(r.paths.Theme())
	if err != nil {
		return err
	} else if !found {
		r.logger.Warn("theme config not found, using defaults", "path", r.paths.Theme())
	}

	nodes, err := folders.LoadNodes(r.paths.Folders())
	if err != nil {
		r.logger.Warn("failed to load playlist folders", "error", err)
	}

	var reload <-chan string
	watcher, err := shared.NewWatcher(r.paths.ConfigFolder,
		[]string{shared.KeymapConfigFile, shared.ThemeConfigFile, shared.FoldersFile}, 0,
		shared.WithLogger(r.logger, "component", "watcher"))
	if err != nil {
		r.logger.Warn("config files are not watched", "error", err)
	} else {
		go watcher.Run(ctx)
		reload = watcher.Events()
	}

	var finder ui.LyricsFinder
	if r.config.EnableLyrics {
		var store lyrics.Store
		if inst.db != nil {
			store = repositories.NewLyricRepository(inst.db)
		}
		genius := lyrics.NewClient(r.httpClient, shared.WithLogger(r.logger, "component", "lyrics"))
		finder = lyrics.NewFinder(genius, store, r.config.CacheTTL(), r.logger)
	}

	model := ui.NewModel(ctx, ui.Options{
		Client:      inst.client,
		Player:      inst.player,
		Lyrics:      finder,
		Config:      r.config,
		Keymap:      km,
		Themes:      themes,
		FolderNodes: nodes,
		Paths:       r.paths,
		Reload:      reload,
		Logger:      shared.WithLogger(r.logger, "component", "ui"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
