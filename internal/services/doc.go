// Package services implements the client side of the playlists API.
//
// # API Service
//
// [APIService] performs raw GET requests relative to the configured base URL.
// Paths are joined with exactly one separating slash (see [shared.JoinURL]).
// The CLI's `api get` command prints these responses as-is for debugging.
//
// # Catalog Service
//
// [CatalogService] implements [CatalogFetcher] on top of [APIService]:
//
//	GET {base}/api/v1/playlists -> models.Catalog
//
// Each request is bounded by a timeout. Explicit reloads go through a
// token-bucket limiter so holding down the reload key cannot flood the API.
// Failed requests are never retried.
//
// # Error Handling
//
// Errors returned by [CatalogService.FetchCatalog] are one of:
//   - [shared.ErrCancelled] : the caller's context was cancelled; not user-visible
//   - [*FetchError] with StatusCode : non-2xx response, banner "API error <status>"
//   - [*FetchError] with Timeout : the request hit the deadline
//   - [*FetchError] : any other transport, decode or validation failure
//
// [BannerMessage] converts any of these into the one line the UI shows.
package services
