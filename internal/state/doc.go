// Package state holds the application state of the playlist browser: the
// fetched catalog, the search query, the selected playlist and the current
// track.
//
// [App] is a plain value owned by the UI loop. Every mutation goes through its
// methods; the filtered playlist list, the selected playlist and the current
// track are derived on read.
package state
