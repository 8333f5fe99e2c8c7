package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/formatter"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestFilename = "export_manifest.json"
)

// Formats lists the accepted values of [BulkExportOpts.Format].
var Formats = []string{"csv", "markdown", "md", "txt", "json"}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string           // Export format: csv, markdown (md), txt, json
	OutputDir  string           // Base output directory (default: djay_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Jobs started per second (default: 5)
	Now        func() time.Time // Clock for the default directory and manifest
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files"`
	Error        error    `json:"-"`
	ErrorText    string   `json:"error,omitempty"`

	order int
}

// BulkExportResult summarizes a [Exporter.BulkExport] run. Results follow catalog order.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	ExportedAt        time.Time              `json:"exported_at"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type playlistExportJob struct {
	order  int
	export *formatter.Export
}

// Exporter writes catalog playlists to disk.
type Exporter struct {
	catalog services.CatalogFetcher
	logger  *log.Logger
}

// NewExporter creates an Exporter reading from catalog.
func NewExporter(catalog services.CatalogFetcher, logger *log.Logger) *Exporter {
	return &Exporter{
		catalog: catalog,
		logger:  shared.WithLogger(logger, "task", "export"),
	}
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "md":
		return "markdown", nil
	case "csv", "markdown", "txt", "json":
		return format, nil
	case "text":
		return "txt", nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

// BulkExport exports the playlists named by ids (every playlist when ids is empty)
// with a worker pool, then writes a manifest. Per-playlist failures are recorded in
// the result; only a catalog fetch failure, cancellation or an unwritable output
// directory return an error.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("djay_export_%d", opts.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	opts.Format = format

	sendProgress(prog, fetchingCatalogUpdate())
	catalog, err := e.catalog.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          format,
		ExportedAt:      opts.Now().UTC(),
		OutputDirectory: opts.OutputDir,
		Results:         []PlaylistExportResult{},
	}

	exports, missing := e.selectPlaylists(catalog, ids)
	result.TotalPlaylists = len(exports) + len(missing)
	for _, res := range missing {
		result.FailedExports++
		result.Results = append(result.Results, res)
		sendProgress(prog, exportFailedUpdate(len(result.Results), result.TotalPlaylists, res))
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan playlistExportJob, len(exports))
	results := make(chan PlaylistExportResult, len(exports))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, job := range exports {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, exportingPlaylistUpdate(i+1, len(exports), job.export.Playlist.Name))
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(len(result.Results), result.TotalPlaylists, res))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "id", res.PlaylistID, "err", res.Error)
			sendProgress(prog, exportFailedUpdate(len(result.Results), result.TotalPlaylists, res))
		}
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].order < result.Results[j].order
	})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestFilename)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("bulk export finished",
		"dir", opts.OutputDir,
		"succeeded", result.SuccessfulExports,
		"failed", result.FailedExports,
	)
	return result, nil
}

// selectPlaylists turns ids into export jobs. Ids not in the catalog become failed results.
func (e *Exporter) selectPlaylists(catalog *models.Catalog, ids []string) ([]playlistExportJob, []PlaylistExportResult) {
	var jobs []playlistExportJob
	var missing []PlaylistExportResult

	if len(ids) == 0 {
		for i := range catalog.Playlists {
			jobs = append(jobs, e.job(i, &catalog.Playlists[i]))
		}
		return jobs, missing
	}

	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		playlist, ok := catalog.Playlist(id)
		if !ok {
			err := fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
			missing = append(missing, PlaylistExportResult{
				PlaylistID:   id,
				PlaylistName: fmt.Sprintf("Unknown (%s)", id),
				Files:        []string{},
				Error:        err,
				ErrorText:    err.Error(),
				order:        i,
			})
			continue
		}
		jobs = append(jobs, e.job(i, playlist))
	}
	return jobs, missing
}

func (e *Exporter) job(order int, p *models.Playlist) playlistExportJob {
	return playlistExportJob{
		order:  order,
		export: &formatter.Export{Playlist: p, Resolve: e.catalog.ResolveURL},
	}
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan playlistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSinglePlaylist(ctx, job, opts)
	}
}

// exportSinglePlaylist exports a single playlist to the appropriate format.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, j playlistExportJob, opts BulkExportOpts) PlaylistExportResult {
	playlist := j.export.Playlist
	result := PlaylistExportResult{
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		Files:        []string{},
		order:        j.order,
	}

	fail := func(err error) PlaylistExportResult {
		result.Error = err
		result.ErrorText = err.Error()
		return result
	}

	stem, err := formatter.FileStem(playlist.ID)
	if err != nil {
		return fail(err)
	}
	base := filepath.Join(opts.OutputDir, stem)

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(j.export, base)
		if err != nil {
			return fail(fmt.Errorf("CSV export failed: %w", err))
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case "markdown":
		warn := func(msg string, kv ...any) {
			e.logger.Warn(msg, append([]any{"id", playlist.ID}, kv...)...)
		}
		mdRes, err := formatter.WriteMarkdownExport(ctx, j.export, base, warn)
		if err != nil {
			return fail(fmt.Errorf("markdown export failed: %w", err))
		}
		result.Files = mdRes.Files

	case "txt":
		path, err := formatter.WriteTextExport(j.export, base+"_tracks.txt")
		if err != nil {
			return fail(fmt.Errorf("text export failed: %w", err))
		}
		result.Files = []string{path}

	case "json":
		data, err := shared.MarshalJSON(playlist, true)
		if err != nil {
			return fail(fmt.Errorf("JSON marshal failed: %w", err))
		}
		path := base + ".json"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fail(fmt.Errorf("JSON write failed: %w", err))
		}
		result.Files = []string{path}

	default:
		return fail(errors.New("unsupported format " + opts.Format))
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
