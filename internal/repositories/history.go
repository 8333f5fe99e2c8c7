package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
)

var _ models.Repository[*models.PlayEvent] = (*HistoryRepository)(nil)

// HistoryRepository implements models.Repository[*models.PlayEvent] for the session play history.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a [models.PlayEvent] with a generated ID and the next sequence number
func (r *HistoryRepository) Create(event *models.PlayEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "play_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	ref := event.Ref()

	query := `
		INSERT INTO play_history (id, sequence, playlist_id, track_id, title, artist_name, audio_url, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		ref.PlaylistID,
		ref.TrackID,
		event.Title(),
		event.ArtistName(),
		event.AudioURL(),
		event.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play event: %w", err)
	}

	event.SetID(id, sequence)
	return nil
}

// Get retrieves a play event by ID
func (r *HistoryRepository) Get(id string) (*models.PlayEvent, error) {
	query := `
		SELECT id, sequence, playlist_id, track_id, title, artist_name, audio_url, played_at
		FROM play_history
		WHERE id = ?
	`

	event, err := scanEvent(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: play event %s", shared.ErrTrackNotFound, id)
	}
	return event, err
}

// List returns up to limit play events, most recent first. A limit of zero or less returns everything.
func (r *HistoryRepository) List(limit int) ([]*models.PlayEvent, error) {
	query := `
		SELECT id, sequence, playlist_id, track_id, title, artist_name, audio_url, played_at
		FROM play_history
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	var events []*models.PlayEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// Delete removes a play event by ID
func (r *HistoryRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM play_history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete play event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: play event %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// Count returns the number of recorded play events
func (r *HistoryRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM play_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count play history: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a [sql.Row] or [sql.Rows] into a [models.PlayEvent]
func scanEvent(s scanner) (*models.PlayEvent, error) {
	var (
		id         string
		sequence   int
		playlistID string
		trackID    string
		title      string
		artistName string
		audioURL   string
		playedAt   time.Time
	)

	err := s.Scan(&id, &sequence, &playlistID, &trackID, &title, &artistName, &audioURL, &playedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan play event: %w", err)
	}

	ref := models.TrackRef{PlaylistID: playlistID, TrackID: trackID}
	return models.RestorePlayEvent(id, sequence, ref, title, artistName, audioURL, playedAt), nil
}
