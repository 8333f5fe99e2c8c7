// Package server provides HTTP routing, middleware and the handlers behind `djay serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Catalog Fixture
//
// [CatalogHandler] serves a catalog JSON file at the playlists endpoint so the
// TUI can be pointed at a local directory of audio and artwork. The file is
// validated on load and reloaded whenever it changes on disk (see
// [CatalogHandler.Watch]). A file that fails to parse keeps the previous
// catalog in place; with no good catalog at all the endpoint answers 503.
//
// [MediaHandler] serves everything else from a directory, which is where
// relative audio_url and art_work_url paths of the catalog resolve to.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
