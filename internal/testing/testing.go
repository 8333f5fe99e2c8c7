// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
)

// ScenarioCatalogJSON is the two-playlist catalog used across package tests.
const ScenarioCatalogJSON = `{
  "total_count_text": "2 playlists",
  "total_duration_text": "4 min",
  "playlists": [
    {
      "id": "p1",
      "name": "Bass House",
      "art_work_url": "/images/playlists/bass-house.jpg",
      "tracks_count_text": "2 tracks",
      "total_duration_text": "4 min",
      "tracks": [
        {"id": "t1", "title": "Drop", "artist_name": "Steven Cooper", "art_work_url": "/images/artists/steven-cooper.jpg", "duration": "02:17", "audio_url": "/a.mp3"},
        {"id": "t2", "title": "Beat", "artist_name": "", "art_work_url": "", "duration": "01:58", "audio_url": "/b.mp3"}
      ]
    },
    {"id": "p2", "name": "Chill", "art_work_url": "", "tracks_count_text": "0 tracks", "total_duration_text": "0 min", "tracks": []}
  ]
}`

// ScenarioCatalog decodes [ScenarioCatalogJSON] into a fresh catalog.
func ScenarioCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	var c models.Catalog
	if err := json.Unmarshal([]byte(ScenarioCatalogJSON), &c); err != nil {
		t.Fatalf("failed to decode scenario catalog: %v", err)
	}
	return &c
}

// FakeCatalogService is a test double for [services.CatalogFetcher].
//
// When Block is set, FetchCatalog waits for it to close or for ctx to end.
// With LimitReloads set, AllowReload grants only ReloadBudget reloads.
type FakeCatalogService struct {
	Catalog      *models.Catalog
	Err          error
	LimitReloads bool
	ReloadBudget int
	Block        chan struct{}
	BaseURL      string

	mu    sync.Mutex
	calls int
}

func (f *FakeCatalogService) FetchCatalog(ctx context.Context) (*models.Catalog, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, shared.ErrCancelled
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Catalog, nil
}

func (f *FakeCatalogService) AllowReload() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.LimitReloads {
		return true
	}
	if f.ReloadBudget <= 0 {
		return false
	}
	f.ReloadBudget--
	return true
}

func (f *FakeCatalogService) ResolveURL(path string) string {
	return shared.JoinURL(f.BaseURL, path)
}

// Calls returns how many fetches were made.
func (f *FakeCatalogService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeElement is a test double for a media element (see player.Element).
//
// LoadErr, PlayErr and PauseErr are returned by the matching calls. Gate and
// PauseGate, when set, hold Play and Pause until closed or the context ends.
type FakeElement struct {
	LoadErr   error
	PlayErr   error
	PauseErr  error
	Gate      chan struct{}
	PauseGate chan struct{}

	mu     sync.Mutex
	loaded []string
	plays  int
	pauses int
	closed bool
}

func (f *FakeElement) Load(ctx context.Context, url string) error {
	f.mu.Lock()
	f.loaded = append(f.loaded, url)
	err := f.LoadErr
	f.mu.Unlock()
	return err
}

func (f *FakeElement) Play(ctx context.Context) error {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return f.PlayErr
}

func (f *FakeElement) Pause(ctx context.Context) error {
	if f.PauseGate != nil {
		select {
		case <-f.PauseGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.PauseErr
}

func (f *FakeElement) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Loaded returns the URLs passed to Load, in order.
func (f *FakeElement) Loaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loaded...)
}

// Counts returns the number of successful Play calls and Pause calls.
func (f *FakeElement) Counts() (plays, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays, f.pauses
}

// Closed reports whether Close was called.
func (f *FakeElement) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ErrAutoplayBlocked mimics a rejected playback start.
var ErrAutoplayBlocked = errors.New("playback start rejected")

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
