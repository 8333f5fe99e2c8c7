// package formatter exports playlists to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
)

// Export is a playlist prepared for writing. Resolve turns catalog paths
// (audio, artwork) into absolute URLs; nil leaves them as they are.
type Export struct {
	Playlist *models.Playlist
	Resolve  func(path string) string
}

// FileStem returns a playlist id for use as a file or directory name. Ids
// that are empty, "." or "..", or that carry a path separator or volume name
// are rejected so exports cannot land outside their directory.
func FileStem(id string) (string, error) {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`+"\x00") || filepath.VolumeName(id) != "" {
		return "", fmt.Errorf("%w: playlist id %q is not a usable file name", shared.ErrInvalidInput, id)
	}
	return id, nil
}

func (e *Export) url(path string) string {
	if e.Resolve == nil {
		return path
	}
	return e.Resolve(path)
}

// ExportToCSV writes one row per track with columns: ID, Title, Artist, Duration, Audio URL
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Duration", "Audio URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Playlist.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.ArtistName,
			track.Duration,
			export.url(track.AudioURL),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the playlist as a Markdown document with an optional cover image
func ExportToMarkdown(export *Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %s\n", summary(p.TracksCountText, fmt.Sprintf("%d tracks", len(p.Tracks))))
	if p.TotalDurationText != "" {
		fmt.Fprintf(&buf, "**Duration**: %s\n", p.TotalDurationText)
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s - [%s](%s) [%s]\n", i+1, artist(track), track.Title, export.url(track.AudioURL), track.Duration)
	}

	return buf.Bytes(), nil
}

// ExportToText renders the playlist as plain text
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "Tracks: %s\n", summary(p.TracksCountText, fmt.Sprintf("%d tracks", len(p.Tracks))))
	if p.TotalDurationText != "" {
		fmt.Fprintf(&buf, "Duration: %s\n", p.TotalDurationText)
	}
	buf.WriteString("\n")

	for i, track := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, artist(track), track.Title, track.Duration)
	}

	return buf.Bytes(), nil
}

func artist(t models.Track) string {
	if strings.TrimSpace(t.ArtistName) == "" {
		return "Unknown artist"
	}
	return t.ArtistName
}

func summary(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(p *models.Playlist) ([]byte, error) {
	meta := *p
	meta.Tracks = nil
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		stem, err := FileStem(export.Playlist.ID)
		if err != nil {
			return nil, err
		}
		baseFilepath = stem
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID. When the playlist has artwork the
// cover is downloaded next to the document; a failed download only logs a warning.
// Creates {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(ctx context.Context, export *Export, outputDir string, warn func(msg string, kv ...any)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		stem, err := FileStem(export.Playlist.ID)
		if err != nil {
			return nil, err
		}
		outputDir = stem
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL := export.url(export.Playlist.ArtworkURL); imageURL != "" {
		imageData, err := DownloadImage(ctx, imageURL)
		if err != nil {
			warn("failed to download cover image", "err", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				warn("failed to save cover image", "err", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		stem, err := FileStem(export.Playlist.ID)
		if err != nil {
			return "", err
		}
		path = stem + "_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
