package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/djay/internal/shared"
	"github.com/go-test/deep"
)

const scenarioJSON = `{
  "playlists": [
    {
      "id": "p1",
      "name": "Bass House",
      "art_work_url": "/images/playlists/bass-house.jpg",
      "tracks_count_text": "2 tracks",
      "total_duration_text": "4 min",
      "tracks": [
        {"id": "t1", "title": "Drop", "artist_name": "Steven Cooper", "art_work_url": "", "duration": "02:17", "audio_url": "/a.mp3"},
        {"id": "t2", "title": "Beat", "artist_name": "", "art_work_url": "", "duration": "01:58", "audio_url": "/b.mp3"}
      ]
    },
    {"id": "p2", "name": "Chill", "tracks": []}
  ]
}`

func decodeScenario(t *testing.T) *Catalog {
	t.Helper()
	var c Catalog
	if err := json.Unmarshal([]byte(scenarioJSON), &c); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	return &c
}

func TestCatalog(t *testing.T) {
	t.Run("Decode", func(t *testing.T) {
		c := decodeScenario(t)

		want := Playlist{
			ID:                "p1",
			Name:              "Bass House",
			ArtworkURL:        "/images/playlists/bass-house.jpg",
			TracksCountText:   "2 tracks",
			TotalDurationText: "4 min",
			Tracks: []Track{
				{ID: "t1", Title: "Drop", ArtistName: "Steven Cooper", Duration: "02:17", AudioURL: "/a.mp3"},
				{ID: "t2", Title: "Beat", Duration: "01:58", AudioURL: "/b.mp3"},
			},
		}
		if diff := deep.Equal(c.Playlists[0], want); diff != nil {
			t.Error(diff)
		}
		if c.TrackCount() != 2 {
			t.Errorf("expected 2 tracks, got %d", c.TrackCount())
		}
	})

	t.Run("Lookups", func(t *testing.T) {
		c := decodeScenario(t)

		p, ok := c.Playlist("p2")
		if !ok || p.Name != "Chill" {
			t.Errorf("expected to find p2, got %+v", p)
		}

		if _, ok := c.Playlist("missing"); ok {
			t.Error("expected missing playlist lookup to fail")
		}

		first, ok := c.First()
		if !ok || first.ID != "p1" {
			t.Errorf("expected first playlist p1, got %+v", first)
		}

		track, ok := c.Resolve(TrackRef{PlaylistID: "p1", TrackID: "t2"})
		if !ok || track.Title != "Beat" {
			t.Errorf("expected to resolve t2, got %+v", track)
		}

		if _, ok := c.Resolve(TrackRef{PlaylistID: "p2", TrackID: "t2"}); ok {
			t.Error("track ids must be resolved within their playlist")
		}
	})

	t.Run("Nil Catalog", func(t *testing.T) {
		var c *Catalog
		if _, ok := c.First(); ok {
			t.Error("nil catalog has no first playlist")
		}
		if _, ok := c.Resolve(TrackRef{PlaylistID: "p1", TrackID: "t1"}); ok {
			t.Error("nil catalog resolves nothing")
		}
		if err := c.Validate(); !errors.Is(err, shared.ErrInvalidCatalog) {
			t.Errorf("expected ErrInvalidCatalog, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := decodeScenario(t).Validate(); err != nil {
			t.Errorf("expected scenario catalog to be valid, got %v", err)
		}

		dupPlaylists := &Catalog{Playlists: []Playlist{{ID: "p1"}, {ID: "p1"}}}
		if err := dupPlaylists.Validate(); !errors.Is(err, shared.ErrInvalidCatalog) {
			t.Errorf("expected duplicate playlist ids to be rejected, got %v", err)
		}

		dupTracks := &Catalog{Playlists: []Playlist{{ID: "p1", Tracks: []Track{{ID: "t1"}, {ID: "t1"}}}}}
		if err := dupTracks.Validate(); !errors.Is(err, shared.ErrInvalidCatalog) {
			t.Errorf("expected duplicate track ids to be rejected, got %v", err)
		}

		sameTrackIDs := &Catalog{Playlists: []Playlist{
			{ID: "p1", Tracks: []Track{{ID: "t1"}}},
			{ID: "p2", Tracks: []Track{{ID: "t1"}}},
		}}
		if err := sameTrackIDs.Validate(); err != nil {
			t.Errorf("track ids may repeat across playlists, got %v", err)
		}
	})
}

func TestPlayEvent(t *testing.T) {
	c := decodeScenario(t)
	p := &c.Playlists[0]

	event := NewPlayEvent(p, &p.Tracks[1], time.Now())
	if err := event.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
	if event.Ref() != (TrackRef{PlaylistID: "p1", TrackID: "t2"}) {
		t.Errorf("unexpected ref %+v", event.Ref())
	}

	empty := &PlayEvent{}
	if err := empty.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
