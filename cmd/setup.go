package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/shared"
)

const keymapTemplate = `# spx key bindings, merged on top of the defaults.
#
# A key sequence is one or more space separated keys: "n", "C-r", "M-x", "g a",
# "space", "enter". Binding a sequence replaces its default binding.
#
# [[keymaps]]
# key_sequence = "q"
# command = "None"
#
# [[keymaps]]
# key_sequence = "C-up"
# command = { VolumeChange = { offset = 1 } }
#
# [[actions]]
# key_sequence = "C-l"
# action = "ToggleLiked"
# target = "PlayingTrack"
`

const themeTemplate = `# spx themes, added to the built-in "default" and "dracula" themes.
# Select one with theme = "<name>" in app.toml or with --theme.
#
# [[themes]]
# name = "my-theme"
# [themes.palette]
# background = "#1e1f29"
# foreground = "#f8f8f2"
# green = "#50fa7b"
# [themes.component_style]
# playback_track = { fg = "Cyan", modifiers = ["Bold"] }
`

const foldersTemplate = "[]\n"

// Generate writes the default app.toml, keymap.toml, theme.toml and
// playlist_folders.json into the config folder.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	force := cmd.Bool("force")

	files := []struct {
		path string
		data []byte
	}{
		{r.paths.AppConfig(), shared.ExampleConfig()},
		{r.paths.Keymap(), []byte(keymapTemplate)},
		{r.paths.Theme(), []byte(themeTemplate)},
		{r.paths.Folders(), []byte(foldersTemplate)},
	}

	for _, f := range files {
		if force {
			if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to replace %s: %w", f.path, err)
			}
		}

		err := shared.CreateConfigFile(f.path, f.data)
		switch {
		case errors.Is(err, shared.ErrAlreadyExists):
			r.logger.Warn("config file exists, skipping", "path", f.path)
			r.writePlain("- %s already exists (use --force to overwrite)\n", filepath.Base(f.path))
		case err != nil:
			return err
		default:
			r.logger.Info("config file created", "path", f.path)
			r.writePlain("✓ %s\n", f.path)
		}
	}
	return nil
}
