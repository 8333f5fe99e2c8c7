package main

import (
	"strings"

	"github.com/desertthunder/djay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// tuiCommand launches the interactive browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Browse playlists and play tracks in the terminal",
		Action:  r.TUI,
	}
}

// playlistsCommand handles catalog queries from the command line
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Query the playlist catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists, optionally filtered by name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Case-insensitive name filter",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "export",
				Usage: "Export a playlist (or --all) to CSV, Markdown, text or JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + strings.Join(tasks.Formats, ", "),
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to the playlist ID, or djay_export_{epoch} with --all)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every playlist in the catalog",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers with --all",
						Value: 5,
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// serveCommand runs the development catalog server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a catalog JSON file and media directory over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Path to the catalog JSON file (defaults to server.catalog)",
			},
			&cli.StringFlag{
				Name:  "media",
				Usage: "Directory served at / (defaults to server.media_dir)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (defaults to server.port)",
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Do not reload the catalog when the file changes",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles first-run setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example config to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a path relative to the API base, prints the body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
