package formatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
	th "github.com/desertthunder/djay/internal/testing"
)

func scenarioExport(t *testing.T, base string) *Export {
	t.Helper()
	p, _ := th.ScenarioCatalog(t).Playlist("p1")
	return &Export{
		Playlist: p,
		Resolve:  func(path string) string { return shared.JoinURL(base, path) },
	}
}

func TestExporters(t *testing.T) {
	export := scenarioExport(t, "http://api.test")

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Duration,Audio URL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "t1,Drop,Steven Cooper,02:17,http://api.test/a.mp3") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "t2,Beat,,01:58,http://api.test/b.mp3") {
			t.Errorf("CSV missing track2 row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Bass House") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Tracks**: 2 tracks") {
				t.Errorf("Markdown missing track count")
			}
			if !strings.Contains(output, "**Duration**: 4 min") {
				t.Errorf("Markdown missing duration")
			}
			if !strings.Contains(output, "1. Steven Cooper - [Drop](http://api.test/a.mp3) [02:17]") {
				t.Errorf("Markdown missing track1, got: %s", output)
			}
			if !strings.Contains(output, "2. Unknown artist - [Beat](http://api.test/b.mp3) [01:58]") {
				t.Errorf("Markdown missing track2, got: %s", output)
			}
			if strings.Contains(output, "![Cover]") {
				t.Errorf("Markdown should not reference a cover")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Bass House") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Tracks: 2 tracks") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Steven Cooper - Drop (02:17)") {
			t.Errorf("Text missing track1, got: %s", output)
		}
	})

	t.Run("counts fall back to track length", func(t *testing.T) {
		bare := &Export{Playlist: &models.Playlist{ID: "x", Name: "Bare", Tracks: []models.Track{{ID: "a", Title: "A"}}}}
		data, err := ExportToText(bare)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Tracks: 1 tracks") {
			t.Errorf("expected fallback count, got: %s", data)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(export.Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"id": "p1"`) || !strings.Contains(output, `"name": "Bass House"`) {
			t.Errorf("JSON missing playlist fields, got: %s", output)
		}
		if strings.Contains(output, "Drop") {
			t.Errorf("metadata should not include tracks")
		}
		if len(export.Playlist.Tracks) != 2 {
			t.Errorf("source playlist must not be modified")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(ctx, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		data, err := DownloadImage(ctx, server.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "jpeg" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(ctx, server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		export := scenarioExport(t, "http://api.test")
		base := filepath.Join(t.TempDir(), "p1")

		result, err := WriteCSVExport(export, base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.TracksFile != base+"_tracks.csv" {
			t.Errorf("unexpected tracks file %s", result.TracksFile)
		}
		if result.MetadataFile != base+"_metadata.json" {
			t.Errorf("unexpected metadata file %s", result.MetadataFile)
		}

		th.AssertFileExists(t, result.TracksFile)
		th.AssertFileExists(t, result.MetadataFile)

		if content := th.MustReadFile(t, result.TracksFile); !strings.Contains(content, "Drop") {
			t.Errorf("CSV missing track data")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/images/playlists/bass-house.jpg" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		t.Run("with cover", func(t *testing.T) {
			export := scenarioExport(t, server.URL)
			dir := filepath.Join(t.TempDir(), "bass-house")

			result, err := WriteMarkdownExport(context.Background(), export, dir, nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != filepath.Join(dir, "cover.jpg") {
				t.Errorf("unexpected cover path %q", result.CoverImage)
			}
			if len(result.Files) != 2 {
				t.Errorf("expected 2 files, got %v", result.Files)
			}

			readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(readme, "![Cover](cover.jpg)") {
				t.Errorf("README missing cover reference")
			}
		})

		t.Run("failed download only warns", func(t *testing.T) {
			p := &models.Playlist{ID: "p9", Name: "Broken", ArtworkURL: "/missing.jpg"}
			export := &Export{Playlist: p, Resolve: func(path string) string { return shared.JoinURL(server.URL, path) }}
			dir := filepath.Join(t.TempDir(), "p9")

			var warned bool
			result, err := WriteMarkdownExport(context.Background(), export, dir, func(string, ...any) { warned = true })
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if !warned {
				t.Error("expected a warning")
			}
			if result.CoverImage != "" {
				t.Errorf("expected no cover, got %q", result.CoverImage)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		export := scenarioExport(t, "")
		path := filepath.Join(t.TempDir(), "out.txt")

		got, err := WriteTextExport(export, path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Playlist: Bass House") {
			t.Errorf("text export missing header")
		}
	})
}

func TestFileStem(t *testing.T) {
	for _, id := range []string{"p1", "bass-house", "mix.2026"} {
		if stem, err := FileStem(id); err != nil || stem != id {
			t.Errorf("%q: expected it unchanged, got %q (%v)", id, stem, err)
		}
	}

	for _, id := range []string{"", ".", "..", "../escaped", "a/b", `a\b`, "/etc/passwd", "nul\x00"} {
		if _, err := FileStem(id); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", id, err)
		}
	}

	t.Run("writers reject a default name from an unsafe id", func(t *testing.T) {
		export := &Export{Playlist: &models.Playlist{ID: "../escaped"}}
		if _, err := WriteCSVExport(export, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("csv: expected ErrInvalidInput, got %v", err)
		}
		if _, err := WriteMarkdownExport(context.Background(), export, "", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("markdown: expected ErrInvalidInput, got %v", err)
		}
		if _, err := WriteTextExport(export, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("text: expected ErrInvalidInput, got %v", err)
		}
	})
}
