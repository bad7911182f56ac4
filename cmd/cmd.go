// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func idOrNameFlags(item string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Usage: "ID, URI or link of the " + item},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name of the " + item + ", resolved to the first search result"},
	}
}

func authenticateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "authenticate",
		Aliases: []string{"auth"},
		Usage:   "Log in to Spotify and cache the access token",
		Action:  r.Authenticate,
	}
}

func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write the default configuration files to the config folder",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Overwrite existing files"},
		},
		Action: r.Generate,
	}
}

func getCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Get Spotify data",
		Commands: []*cli.Command{
			{
				Name:  "key",
				Usage: "Get data by key (playback, devices, user_playlists, user_liked_tracks, user_saved_albums, user_followed_artists, user_top_tracks, queue)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.GetKey,
			},
			{
				Name:  "item",
				Usage: "Get a playlist, album, artist or track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "type"},
				},
				Flags:  idOrNameFlags("item"),
				Action: r.GetItem,
			},
		},
	}
}

func playbackCommand(r *Runner) *cli.Command {
	simple := func(name, usage string) *cli.Command {
		return &cli.Command{Name: name, Usage: usage, Action: r.PlaybackSimple}
	}

	return &cli.Command{
		Name:  "playback",
		Usage: "Interact with the playback",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a new playback",
				Commands: []*cli.Command{
					{
						Name:  "context",
						Usage: "Start a context (playlist, album or artist)",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "context_type"},
						},
						Flags: append(idOrNameFlags("context"),
							&cli.BoolFlag{Name: "shuffle", Aliases: []string{"s"}, Usage: "Shuffle tracks within the launched playback"},
						),
						Action: r.PlaybackStartContext,
					},
					{
						Name:   "track",
						Usage:  "Start playing a track",
						Flags:  idOrNameFlags("track"),
						Action: r.PlaybackStartTrack,
					},
					{
						Name:  "liked",
						Usage: "Start the liked tracks",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Usage: "Maximum number of tracks to play (default: tracks_playback_limit)"},
							&cli.BoolFlag{Name: "random", Aliases: []string{"r"}, Usage: "Randomly pick the tracks"},
						},
						Action: r.PlaybackStartLiked,
					},
					{
						Name:  "radio",
						Usage: "Start a radio seeded by a track, album, artist or playlist",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "item_type"},
						},
						Flags:  idOrNameFlags("seed item"),
						Action: r.PlaybackStartRadio,
					},
				},
			},
			simple("play-pause", "Toggle between play and pause"),
			simple("play", "Resume the playback"),
			simple("pause", "Pause the playback"),
			simple("next", "Skip to the next track"),
			simple("previous", "Skip to the previous track"),
			simple("shuffle", "Toggle the shuffle mode"),
			simple("repeat", "Cycle the repeat mode"),
			{
				Name:  "volume",
				Usage: "Set the volume percentage",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "percent", Aliases: []string{"p"}, Usage: "Volume percent, or an offset with --offset", Required: true},
					&cli.BoolFlag{Name: "offset", Usage: "Treat --percent as an offset from the current volume"},
				},
				Action: r.PlaybackVolume,
			},
			{
				Name:  "seek",
				Usage: "Seek by an offset from the current position",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "offset-ms", Aliases: []string{"o"}, Usage: "Position offset in milliseconds", Required: true},
				},
				Action: r.PlaybackSeek,
			},
		},
	}
}

func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "connect",
		Usage:  "Connect to a Spotify device",
		Flags:  idOrNameFlags("device"),
		Action: r.Connect,
	}
}

func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "like",
		Usage: "Like the currently playing track",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "unlike", Aliases: []string{"u"}, Usage: "Unlike the currently playing track"},
		},
		Action: r.Like,
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Create a new playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Aliases: []string{"p"}, Usage: "Make the playlist public"},
					&cli.BoolFlag{Name: "collab", Usage: "Make the playlist collaborative"},
					&cli.StringFlag{Name: "description", Usage: "Playlist description"},
				},
				Action: r.PlaylistNew,
			},
			{
				Name:  "delete",
				Usage: "Delete (unfollow) a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:   "list",
				Usage:  "List the user's playlists",
				Action: r.PlaylistList,
			},
			{
				Name:  "import",
				Usage: "Import the tracks of one playlist into another",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete", Usage: "Remove tracks of the target that are not in the source"},
				},
				Action: r.PlaylistImport,
			},
			{
				Name:  "fork",
				Usage: "Copy a playlist into a new one owned by the user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistFork,
			},
			{
				Name:  "sync",
				Usage: "Re-run recorded imports, into one playlist or all of them",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete", Usage: "Remove tracks of the target that are not in the source"},
				},
				Action: r.PlaylistSync,
			},
			{
				Name:  "edit",
				Usage: "Add or delete a track of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "action"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "playlist-id", Usage: "Playlist to edit", Required: true},
					&cli.StringFlag{Name: "track-id", Usage: "Track to add or delete", Required: true},
				},
				Action: r.PlaylistEdit,
			},
			{
				Name:      "export",
				Usage:     "Export playlists to files",
				ArgsUsage: "[playlist ids...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist of the user"},
					&cli.StringFlag{Name: "export-format", Aliases: []string{"f"}, Usage: "Export format: json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: spotify_export_<epoch>)"},
					&cli.IntFlag{Name: "workers", Usage: "Number of concurrent writers", Value: 5},
					&cli.FloatFlag{Name: "rate", Usage: "Playlist fetches per second", Value: 5},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for tracks, artists, albums and playlists",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Search,
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local cache database",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the cache database and run pending migrations",
				Action: r.CacheMigrate,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the last migration",
				Action: r.CacheRollback,
			},
			{
				Name:   "status",
				Usage:  "Show the schema version and cached lyrics",
				Action: r.CacheStatus,
			},
			{
				Name:  "purge",
				Usage: "Delete cached lyrics older than cache_ttl_hours",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Delete every cached lyric"},
				},
				Action: r.CachePurge,
			},
		},
	}
}
