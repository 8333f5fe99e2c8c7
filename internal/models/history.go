package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/djay/internal/shared"
)

var _ Model = (*PlayEvent)(nil)

// PlayEvent records a track that reached the playing state during the current session.
type PlayEvent struct {
	id         string
	sequence   int
	ref        TrackRef
	title      string
	artistName string
	audioURL   string
	playedAt   time.Time
}

// NewPlayEvent creates an unsaved PlayEvent for track t of playlist p.
func NewPlayEvent(p *Playlist, t *Track, playedAt time.Time) *PlayEvent {
	return &PlayEvent{
		ref:        p.Ref(*t),
		title:      t.Title,
		artistName: t.ArtistName,
		audioURL:   t.AudioURL,
		playedAt:   playedAt,
	}
}

// RestorePlayEvent rebuilds a persisted PlayEvent from its stored columns.
func RestorePlayEvent(id string, sequence int, ref TrackRef, title, artist, audioURL string, playedAt time.Time) *PlayEvent {
	return &PlayEvent{
		id:         id,
		sequence:   sequence,
		ref:        ref,
		title:      title,
		artistName: artist,
		audioURL:   audioURL,
		playedAt:   playedAt,
	}
}

func (e *PlayEvent) ID() string           { return e.id }
func (e *PlayEvent) CreatedAt() time.Time { return e.playedAt }
func (e *PlayEvent) Sequence() int        { return e.sequence }
func (e *PlayEvent) Ref() TrackRef        { return e.ref }
func (e *PlayEvent) Title() string        { return e.title }
func (e *PlayEvent) ArtistName() string   { return e.artistName }
func (e *PlayEvent) AudioURL() string     { return e.audioURL }

// SetID assigns the persisted identity. Called by the repository on insert.
func (e *PlayEvent) SetID(id string, sequence int) {
	e.id = id
	e.sequence = sequence
}

// Validate checks that the event points at a track and carries what the history view displays.
func (e *PlayEvent) Validate() error {
	if e.ref.PlaylistID == "" || e.ref.TrackID == "" {
		return fmt.Errorf("%w: play event without track reference", shared.ErrInvalidInput)
	}
	if e.title == "" {
		return fmt.Errorf("%w: play event without title", shared.ErrInvalidInput)
	}
	if e.playedAt.IsZero() {
		return fmt.Errorf("%w: play event without timestamp", shared.ErrInvalidInput)
	}
	return nil
}
