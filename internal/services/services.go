// package services defines the clients for the playlists API
package services

import (
	"context"

	"github.com/desertthunder/djay/internal/models"
)

// CatalogPath is the catalog resource, relative to the API base URL.
const CatalogPath = "/api/v1/playlists"

// CatalogFetcher loads the playlist catalog.
type CatalogFetcher interface {
	// FetchCatalog performs one request for the catalog.
	// Cancelling ctx yields [shared.ErrCancelled].
	FetchCatalog(ctx context.Context) (*models.Catalog, error)

	// AllowReload reports whether an explicit user reload may start now.
	// A true result consumes the reload allowance.
	AllowReload() bool

	// ResolveURL turns a media or artwork path from the catalog into an absolute URL.
	ResolveURL(path string) string
}
