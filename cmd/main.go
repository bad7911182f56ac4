package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    shared.AppName,
		Usage:   "A Spotify player in the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-folder",
				Aliases: []string{"c"},
				Usage:   "Path to the application's config folder",
				Sources: cli.EnvVars("SPX_CONFIG_FOLDER"),
			},
			&cli.StringFlag{
				Name:    "cache-folder",
				Aliases: []string{"C"},
				Usage:   "Path to the application's cache folder",
				Sources: cli.EnvVars("SPX_CACHE_FOLDER"),
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "Application theme, overrides the theme in app.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:    "daemon",
				Aliases: []string{"d"},
				Usage:   "Run the client socket without the terminal UI",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format of CLI responses (json, table)",
				Value: "json",
			},
		},
		Before:   r.Setup,
		Action:   r.Run,
		Commands: r.register(),
	}
}
