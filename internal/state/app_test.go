package state

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	tu "github.com/desertthunder/djay/internal/testing"
	"github.com/go-test/deep"
)

func loaded(t *testing.T, c *models.Catalog) *App {
	t.Helper()
	app := New()
	if !app.CatalogLoaded(app.BeginFetch(), c) {
		t.Fatal("expected catalog to be accepted")
	}
	return app
}

func TestAppScenario(t *testing.T) {
	app := New()
	tok := app.BeginFetch()

	if app.Status() != StatusLoading {
		t.Fatalf("expected loading, got %v", app.Status())
	}
	if app.CurrentTrack() != nil || app.SelectedPlaylist() != nil {
		t.Fatal("nothing should be selected before load")
	}

	app.CatalogLoaded(tok, tu.ScenarioCatalog(t))

	t.Run("default selection", func(t *testing.T) {
		if p := app.SelectedPlaylist(); p == nil || p.ID != "p1" {
			t.Fatalf("expected p1 selected, got %+v", p)
		}
		cur := app.CurrentTrack()
		if cur == nil || cur.ID != "t1" || cur.AudioURL != "/a.mp3" {
			t.Fatalf("expected t1 current, got %+v", cur)
		}
	})

	t.Run("search keeps selection", func(t *testing.T) {
		app.SetQuery("chill")
		if diff := deep.Equal(names(app.Playlists()), []string{"Chill"}); diff != nil {
			t.Error(diff)
		}
		if p := app.SelectedPlaylist(); p.ID != "p1" {
			t.Errorf("expected p1 to stay selected, got %s", p.ID)
		}
	})

	t.Run("selecting a playlist keeps the current track", func(t *testing.T) {
		app.SelectPlaylist("p2")
		p := app.SelectedPlaylist()
		if p.ID != "p2" || len(p.Tracks) != 0 {
			t.Errorf("expected empty p2, got %+v", p)
		}
		if cur := app.CurrentTrack(); cur == nil || cur.ID != "t1" {
			t.Errorf("expected t1 to stay current, got %+v", cur)
		}
	})

	t.Run("clearing search and picking a track", func(t *testing.T) {
		app.SetQuery("")
		app.SelectPlaylist("p1")
		app.SelectTrack(models.TrackRef{PlaylistID: "p1", TrackID: "t2"})
		cur := app.CurrentTrack()
		if cur == nil || cur.ID != "t2" || cur.AudioURL != "/b.mp3" {
			t.Errorf("expected t2 current, got %+v", cur)
		}
	})
}

func TestAppDefaults(t *testing.T) {
	t.Run("empty catalog selects nothing", func(t *testing.T) {
		app := loaded(t, &models.Catalog{})
		if app.SelectedPlaylist() != nil || app.CurrentTrack() != nil {
			t.Error("expected no selection for empty catalog")
		}
		if app.Status() != StatusLoaded {
			t.Errorf("expected loaded, got %v", app.Status())
		}
	})

	t.Run("first playlist without tracks", func(t *testing.T) {
		app := loaded(t, &models.Catalog{Playlists: []models.Playlist{{ID: "x", Name: "Empty"}}})
		if p := app.SelectedPlaylist(); p == nil || p.ID != "x" {
			t.Errorf("expected x selected, got %+v", p)
		}
		if app.CurrentTrack() != nil {
			t.Error("expected no current track")
		}
	})

	t.Run("existing selection survives reload", func(t *testing.T) {
		app := loaded(t, tu.ScenarioCatalog(t))
		app.SelectPlaylist("p2")
		app.CatalogLoaded(app.BeginFetch(), tu.ScenarioCatalog(t))
		if p := app.SelectedPlaylist(); p.ID != "p2" {
			t.Errorf("expected p2 to stay selected, got %s", p.ID)
		}
	})

	t.Run("unknown id falls back to first visible playlist", func(t *testing.T) {
		app := loaded(t, tu.ScenarioCatalog(t))
		app.SelectPlaylist("gone")
		if p := app.SelectedPlaylist(); p == nil || p.ID != "p1" {
			t.Errorf("expected fallback to p1, got %+v", p)
		}
		app.SetQuery("chill")
		if p := app.SelectedPlaylist(); p == nil || p.ID != "p2" {
			t.Errorf("expected fallback to p2, got %+v", p)
		}
		app.SetQuery("nothing matches")
		if p := app.SelectedPlaylist(); p != nil {
			t.Errorf("expected nil, got %+v", p)
		}
	})

	t.Run("dangling track ref resolves to nil", func(t *testing.T) {
		app := loaded(t, tu.ScenarioCatalog(t))
		app.SelectTrack(models.TrackRef{PlaylistID: "p2", TrackID: "t1"})
		if app.CurrentTrack() != nil {
			t.Error("t1 does not belong to p2")
		}
	})
}

func TestAppFetchLifecycle(t *testing.T) {
	t.Run("http error sets banner", func(t *testing.T) {
		app := New()
		app.CatalogFailed(app.BeginFetch(), &services.FetchError{StatusCode: 503})
		if app.Status() != StatusErrored {
			t.Errorf("expected errored, got %v", app.Status())
		}
		if app.Banner() != "API error 503" {
			t.Errorf("unexpected banner %q", app.Banner())
		}
		if len(app.Playlists()) != 0 {
			t.Error("expected no playlists")
		}
	})

	t.Run("generic error", func(t *testing.T) {
		app := New()
		app.CatalogFailed(app.BeginFetch(), errors.New("boom"))
		if app.Banner() != services.GenericFetchMessage {
			t.Errorf("unexpected banner %q", app.Banner())
		}
	})

	t.Run("cancellation leaves no catalog and no banner", func(t *testing.T) {
		app := New()
		tok := app.BeginFetch()
		app.CatalogFailed(tok, fmt.Errorf("%w: %v", shared.ErrCancelled, context.Canceled))
		if app.Banner() != "" || app.Catalog() != nil {
			t.Errorf("expected clean state, got banner %q catalog %v", app.Banner(), app.Catalog())
		}
		if app.Status() != StatusIdle {
			t.Errorf("expected idle, got %v", app.Status())
		}
	})

	t.Run("cancelled fetch ignores its late result", func(t *testing.T) {
		app := New()
		tok := app.BeginFetch()
		app.CancelFetch()
		if app.CatalogLoaded(tok, tu.ScenarioCatalog(t)) {
			t.Error("late result should be ignored")
		}
		if app.Catalog() != nil || app.Banner() != "" {
			t.Error("expected nothing stored")
		}
	})

	t.Run("stale token is ignored", func(t *testing.T) {
		app := New()
		first := app.BeginFetch()
		second := app.BeginFetch()
		if app.CatalogFailed(first, errors.New("old")) {
			t.Error("stale failure should be ignored")
		}
		if !app.CatalogLoaded(second, tu.ScenarioCatalog(t)) {
			t.Error("current result should be accepted")
		}
		if app.Banner() != "" {
			t.Errorf("unexpected banner %q", app.Banner())
		}
	})

	t.Run("failed reload keeps the previous catalog", func(t *testing.T) {
		app := loaded(t, tu.ScenarioCatalog(t))
		app.CatalogFailed(app.BeginFetch(), &services.FetchError{StatusCode: 500})
		if app.Catalog() == nil || len(app.Playlists()) != 2 {
			t.Error("expected previous catalog to be kept")
		}
		if app.Banner() != "API error 500" {
			t.Errorf("unexpected banner %q", app.Banner())
		}

		app.CatalogLoaded(app.BeginFetch(), tu.ScenarioCatalog(t))
		if app.Banner() != "" {
			t.Error("banner should clear after a successful reload")
		}
	})
}

func TestAppPlaylistsMemo(t *testing.T) {
	app := loaded(t, tu.ScenarioCatalog(t))
	app.SetQuery("bass")

	first := app.Playlists()
	second := app.Playlists()
	if len(first) != 1 || &first[0] != &second[0] {
		t.Error("expected memoized slice for unchanged inputs")
	}

	app.SetQuery("chill")
	if third := app.Playlists(); third[0].ID != "p2" {
		t.Errorf("expected recompute after query change, got %s", third[0].ID)
	}
}
