package state

import (
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/services"
)

// FetchStatus is the lifecycle of the catalog request.
type FetchStatus int

const (
	StatusIdle FetchStatus = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s FetchStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	default:
		return "idle"
	}
}

// FetchToken identifies one fetch. Results carrying an outdated token are dropped.
type FetchToken uint64

// App is the selection controller.
type App struct {
	status  FetchStatus
	catalog *models.Catalog
	banner  string
	token   FetchToken

	query              string
	selectedPlaylistID string
	current            models.TrackRef

	memo struct {
		catalog   *models.Catalog
		query     string
		playlists []models.Playlist
	}
}

// New returns an App with nothing loaded.
func New() *App {
	return &App{}
}

// BeginFetch marks a new fetch as in flight and returns its token.
//
// A catalog from an earlier successful load stays visible while reloading.
func (a *App) BeginFetch() FetchToken {
	a.token++
	a.status = StatusLoading
	a.banner = ""
	return a.token
}

// CancelFetch invalidates the in-flight fetch, if any.
func (a *App) CancelFetch() {
	if a.status != StatusLoading {
		return
	}
	a.token++
	if a.catalog != nil {
		a.status = StatusLoaded
	} else {
		a.status = StatusIdle
	}
}

// CatalogLoaded stores a fetched catalog and applies the default selection.
// It reports false when tok is not the in-flight fetch.
func (a *App) CatalogLoaded(tok FetchToken, c *models.Catalog) bool {
	if !a.accepts(tok) {
		return false
	}

	a.catalog = c
	a.status = StatusLoaded
	a.banner = ""

	if a.selectedPlaylistID == "" {
		if p, ok := c.First(); ok {
			a.selectedPlaylistID = p.ID
			if len(p.Tracks) > 0 {
				a.current = p.Ref(p.Tracks[0])
			}
		}
	}
	return true
}

// CatalogFailed records a fetch error. Cancellation leaves no banner and
// keeps whatever catalog was loaded before.
func (a *App) CatalogFailed(tok FetchToken, err error) bool {
	if !a.accepts(tok) {
		return false
	}

	msg, visible := services.BannerMessage(err)
	if !visible {
		if a.catalog != nil {
			a.status = StatusLoaded
		} else {
			a.status = StatusIdle
		}
		return true
	}

	a.status = StatusErrored
	a.banner = msg
	return true
}

func (a *App) accepts(tok FetchToken) bool {
	return a.status == StatusLoading && tok == a.token
}

// SetQuery replaces the search query.
func (a *App) SetQuery(q string) {
	a.query = q
}

// SelectPlaylist changes the selected playlist. The current track is kept.
func (a *App) SelectPlaylist(id string) {
	a.selectedPlaylistID = id
}

// SelectTrack makes ref the current track.
func (a *App) SelectTrack(ref models.TrackRef) {
	a.current = ref
}

// Playlists returns the catalog filtered by the query.
func (a *App) Playlists() []models.Playlist {
	if a.memo.catalog == a.catalog && a.memo.query == a.query && a.memo.playlists != nil {
		return a.memo.playlists
	}

	a.memo.catalog = a.catalog
	a.memo.query = a.query
	a.memo.playlists = Filter(a.catalog, a.query)
	return a.memo.playlists
}

// SelectedPlaylist returns the playlist the detail pane shows.
//
// The selected id is looked up in the full catalog so a playlist hidden by the
// search stays selected. Without a match the first filtered playlist is used.
func (a *App) SelectedPlaylist() *models.Playlist {
	if p, ok := a.catalog.Playlist(a.selectedPlaylistID); ok {
		return p
	}

	if visible := a.Playlists(); len(visible) > 0 {
		p, _ := a.catalog.Playlist(visible[0].ID)
		return p
	}
	return nil
}

// SelectedPlaylistID returns the raw selected id, which may not resolve.
func (a *App) SelectedPlaylistID() string { return a.selectedPlaylistID }

// CurrentTrack resolves the current track against the loaded catalog.
func (a *App) CurrentTrack() *models.Track {
	if a.current.IsZero() {
		return nil
	}
	t, ok := a.catalog.Resolve(a.current)
	if !ok {
		return nil
	}
	return t
}

// CurrentRef returns the current track reference.
func (a *App) CurrentRef() models.TrackRef { return a.current }

func (a *App) Status() FetchStatus { return a.status }
func (a *App) Banner() string { return a.banner }
func (a *App) Query() string { return a.query }
func (a *App) Catalog() *models.Catalog { return a.catalog }
func (a *App) Loading() bool { return a.status == StatusLoading }
