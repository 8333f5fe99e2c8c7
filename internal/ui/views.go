package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/player"
)

const (
	loadingText     = "Loading…"
	noMatchesText   = "No matches."
	noPlaylistsText = "No playlists."
	noTracksText    = "No tracks in this playlist yet."
	pickTrackText   = "Pick a track to play"
	unknownArtist   = "Unknown artist"
	artPlaceholder  = "♪"
	artPresent      = "▣"
)

func artwork(url string) string {
	if url == "" {
		return styles.muted.Render(artPlaceholder)
	}
	return artPresent
}

func artistName(t models.Track) string {
	if strings.TrimSpace(t.ArtistName) == "" {
		return unknownArtist
	}
	return t.ArtistName
}

func marker(cursor bool) string {
	if cursor {
		return "›"
	}
	return " "
}

// renderPlaylistEntry draws one line of the playlist pane.
func renderPlaylistEntry(p models.Playlist, active, cursor bool) string {
	name := p.Name
	switch {
	case cursor:
		name = styles.cursor.Render(name)
	case active:
		name = styles.active.Render(name)
	}

	meta := joinNonEmpty(" · ", p.TracksCountText, p.TotalDurationText)
	line := fmt.Sprintf("%s %s %s", marker(cursor), artwork(p.ArtworkURL), name)
	if meta != "" {
		line += "  " + styles.muted.Render(meta)
	}
	return line
}

// renderTrackRow draws one track of the detail pane. The active row is the current track.
func renderTrackRow(t models.Track, active, cursor bool) string {
	indicator := " "
	if active {
		indicator = "▶"
	}

	title := t.Title
	switch {
	case cursor:
		title = styles.cursor.Render(title)
	case active:
		title = styles.active.Render(title)
	}

	return fmt.Sprintf("%s %s %s %s  %s",
		marker(cursor), indicator, title,
		styles.muted.Render("· "+artistName(t)),
		styles.muted.Render(t.Duration),
	)
}

// renderPlayerBar draws the now-playing line.
func renderPlayerBar(t *models.Track, state player.State) string {
	if t == nil {
		return styles.bar.Render(fmt.Sprintf("%s %s", styles.muted.Render(artPlaceholder), styles.muted.Render(pickTrackText)))
	}

	return styles.bar.Render(fmt.Sprintf("%s %s %s  %s  %s",
		artwork(t.ArtworkURL),
		styles.title.Render(t.Title),
		styles.muted.Render("· "+artistName(*t)),
		t.Duration,
		stateLabel(state),
	))
}

func stateLabel(s player.State) string {
	switch s {
	case player.Playing:
		return styles.As("▶ playing", lipgloss.Color("#04B575"))
	case player.Paused:
		return styles.As("❚❚ paused", lipgloss.Color("#FFA500"))
	case player.Loading:
		return styles.As("… loading", lipgloss.Color("#626262"))
	default:
		return styles.As("■ stopped", lipgloss.Color("#626262"))
	}
}

// renderBanner draws the fetch error banner; empty text draws nothing.
func renderBanner(text string) string {
	if text == "" {
		return ""
	}
	return styles.banner.Render(text)
}

// renderDetailHeader draws the title block of the selected playlist.
//
// Catalog-wide totals are shown next to the playlist's own when the API sends them.
func renderDetailHeader(p *models.Playlist, c *models.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", artwork(p.ArtworkURL), styles.title.Render(p.Name))

	meta := joinNonEmpty(" · ", p.TracksCountText, p.TotalDurationText)
	if meta == "" {
		meta = fmt.Sprintf("%d tracks", len(p.Tracks))
	}
	b.WriteString(styles.muted.Render(meta))

	if c != nil {
		if totals := joinNonEmpty(" · ", c.TotalCountText, c.TotalDurationText); totals != "" {
			b.WriteString(styles.muted.Render("  (library: " + totals + ")"))
		}
	}
	return b.String()
}

// renderHistory lists session plays, newest first.
func renderHistory(events []*models.PlayEvent) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Played this session"))
	b.WriteString("\n\n")

	if len(events) == 0 {
		b.WriteString(styles.muted.Render("Nothing played yet."))
		return b.String()
	}

	for _, e := range events {
		artist := e.ArtistName()
		if strings.TrimSpace(artist) == "" {
			artist = unknownArtist
		}
		fmt.Fprintf(&b, "%3d  %s %s  %s\n",
			e.Sequence(),
			e.Title(),
			styles.muted.Render("· "+artist),
			styles.muted.Render(e.CreatedAt().Format("15:04:05")),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
