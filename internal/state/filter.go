package state

import (
	"strings"

	"github.com/desertthunder/djay/internal/models"
)

// Filter returns the playlists of c whose name contains query, ignoring case
// and surrounding whitespace. An empty query returns c.Playlists unchanged.
func Filter(c *models.Catalog, query string) []models.Playlist {
	if c == nil {
		return nil
	}

	q := normalize(query)
	if q == "" {
		return c.Playlists
	}

	out := make([]models.Playlist, 0, len(c.Playlists))
	for _, p := range c.Playlists {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
