package models

import (
	"fmt"

	"github.com/desertthunder/djay/internal/shared"
)

// Catalog is the full response of the playlists endpoint.
//
// The summary strings are optional; not every API variant sends them.
type Catalog struct {
	TotalCountText    string     `json:"total_count_text,omitempty"`
	TotalDurationText string     `json:"total_duration_text,omitempty"`
	Playlists         []Playlist `json:"playlists"`
}

// Playlist is an ordered collection of tracks. Track order is display order.
type Playlist struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ArtworkURL        string  `json:"art_work_url"`
	TracksCountText   string  `json:"tracks_count_text"`
	TotalDurationText string  `json:"total_duration_text"`
	Tracks            []Track `json:"tracks"`
}

// Track is a playable entry of a [Playlist]. Duration is preformatted for display.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistName string `json:"artist_name"`
	ArtworkURL string `json:"art_work_url"`
	Duration   string `json:"duration"`
	AudioURL   string `json:"audio_url"`
}

// TrackRef identifies a track. Track ids are only unique within their playlist.
type TrackRef struct {
	PlaylistID string
	TrackID    string
}

// IsZero reports whether r refers to nothing.
func (r TrackRef) IsZero() bool {
	return r.PlaylistID == "" && r.TrackID == ""
}

// Playlist returns the playlist with the given id.
func (c *Catalog) Playlist(id string) (*Playlist, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Playlists {
		if c.Playlists[i].ID == id {
			return &c.Playlists[i], true
		}
	}
	return nil, false
}

// First returns the first playlist of the catalog, if any.
func (c *Catalog) First() (*Playlist, bool) {
	if c == nil || len(c.Playlists) == 0 {
		return nil, false
	}
	return &c.Playlists[0], true
}

// Resolve looks up the track a [TrackRef] points at.
func (c *Catalog) Resolve(ref TrackRef) (*Track, bool) {
	p, ok := c.Playlist(ref.PlaylistID)
	if !ok {
		return nil, false
	}
	return p.Track(ref.TrackID)
}

// TrackCount returns the number of tracks across all playlists.
func (c *Catalog) TrackCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, p := range c.Playlists {
		n += len(p.Tracks)
	}
	return n
}

// Validate rejects catalogs with duplicate playlist ids or duplicate track ids within a playlist.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: empty response", shared.ErrInvalidCatalog)
	}

	seen := make(map[string]struct{}, len(c.Playlists))
	for _, p := range c.Playlists {
		if p.ID == "" {
			return fmt.Errorf("%w: playlist %q has no id", shared.ErrInvalidCatalog, p.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate playlist id %q", shared.ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}

		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Track returns the track with the given id.
func (p *Playlist) Track(id string) (*Track, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			return &p.Tracks[i], true
		}
	}
	return nil, false
}

// Ref returns the [TrackRef] of t within p.
func (p *Playlist) Ref(t Track) TrackRef {
	return TrackRef{PlaylistID: p.ID, TrackID: t.ID}
}

// Validate rejects tracks without ids and duplicate track ids.
func (p *Playlist) Validate() error {
	seen := make(map[string]struct{}, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("%w: track %q in playlist %q has no id", shared.ErrInvalidCatalog, t.Title, p.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate track id %q in playlist %q", shared.ErrInvalidCatalog, t.ID, p.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
