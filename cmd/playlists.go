package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/djay/internal/formatter"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/desertthunder/djay/internal/state"
	"github.com/desertthunder/djay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// playlistSummary is the JSON shape of one row of `playlists list`.
type playlistSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TracksCountText   string `json:"tracks_count_text"`
	TotalDurationText string `json:"total_duration_text"`
	Tracks            int    `json:"tracks"`
}

func (r *Runner) fetchCatalog(ctx context.Context) (*models.Catalog, error) {
	fetcher, err := r.services()
	if err != nil {
		return nil, err
	}
	return fetcher.FetchCatalog(ctx)
}

// PlaylistsList prints the catalog's playlists, filtered by --query.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	playlists := state.Filter(catalog, cmd.String("query"))

	if cmd.Bool("json") {
		rows := make([]playlistSummary, 0, len(playlists))
		for _, p := range playlists {
			rows = append(rows, playlistSummary{
				ID:                p.ID,
				Name:              p.Name,
				TracksCountText:   p.TracksCountText,
				TotalDurationText: p.TotalDurationText,
				Tracks:            len(p.Tracks),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	header := fmt.Sprintf("Playlists (%d)", len(playlists))
	if catalog.TotalCountText != "" {
		header = fmt.Sprintf("Playlists (%d of %s)", len(playlists), catalog.TotalCountText)
	}
	r.writePlainHeader(header)

	if len(playlists) == 0 {
		return r.writePlain("No playlists match your search.\n")
	}

	for _, p := range playlists {
		r.writePlain("%-12s %s  [%s]\n", p.ID, p.Name, countText(&p))
	}
	return nil
}

// PlaylistsShow prints one playlist and its tracks.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	playlist, err := r.findPlaylist(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	r.writePlain("ID:       %s\n", playlist.ID)
	r.writePlain("Tracks:   %s\n", countText(playlist))
	if playlist.TotalDurationText != "" {
		r.writePlain("Duration: %s\n", playlist.TotalDurationText)
	}

	if len(playlist.Tracks) == 0 {
		return r.writePlainln("No tracks in this playlist.")
	}

	r.writePlain("\n")
	for i, t := range playlist.Tracks {
		artist := t.ArtistName
		if artist == "" {
			artist = "Unknown artist"
		}
		r.writePlain("%3d. %s - %s (%s)\n", i+1, t.Title, artist, t.Duration)
	}
	return nil
}

// PlaylistsExport writes a playlist to disk in the --format chosen.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.bulkExport(ctx, cmd)
	}

	format := strings.ToLower(strings.TrimSpace(cmd.String("format")))
	switch format {
	case "csv", "md", "markdown", "txt", "text", "json":
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}

	playlist, err := r.findPlaylist(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	export := &formatter.Export{Playlist: playlist, Resolve: r.catalog.ResolveURL}
	output := cmd.String("output")

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist", "id", playlist.ID, "tracks", result.TracksFile, "metadata", result.MetadataFile)
		r.writePlain("Wrote %s\nWrote %s\n", result.TracksFile, result.MetadataFile)
	case "md", "markdown":
		warn := func(msg string, kv ...any) { r.logger.Warn(msg, kv...) }
		result, err := formatter.WriteMarkdownExport(ctx, export, output, warn)
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist", "id", playlist.ID, "dir", result.Directory)
		for _, f := range result.Files {
			r.writePlain("Wrote %s\n", f)
		}
	case "json":
		if output == "" {
			stem, err := formatter.FileStem(playlist.ID)
			if err != nil {
				return err
			}
			output = stem + ".json"
		}
		data, err := shared.MarshalJSON(playlist, true)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write JSON file: %w", err)
		}
		r.logger.Info("exported playlist", "id", playlist.ID, "file", output)
		r.writePlain("Wrote %s\n", output)
	default:
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist", "id", playlist.ID, "file", path)
		r.writePlain("Wrote %s\n", path)
	}

	return nil
}

// bulkExport exports every playlist with the task worker pool, printing progress as it arrives.
func (r *Runner) bulkExport(ctx context.Context, cmd *cli.Command) error {
	fetcher, err := r.services()
	if err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.NewExporter(fetcher, r.logger).BulkExport(ctx, prog, nil, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	return nil
}

func (r *Runner) findPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	catalog, err := r.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	playlist, ok := catalog.Playlist(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return playlist, nil
}

func countText(p *models.Playlist) string {
	if p.TracksCountText != "" {
		return p.TracksCountText
	}
	return fmt.Sprintf("%d tracks", len(p.Tracks))
}
