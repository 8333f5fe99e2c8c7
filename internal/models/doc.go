// Package models defines the catalog entities served by the playlists API and the session entities built on top of them.
//
// The package contains two categories of types:
//
// 1. Catalog DTOs: immutable values decoded from GET /api/v1/playlists
//   - [Catalog] : the full response, an ordered list of playlists
//   - [Playlist] : a playlist with display fields and ordered tracks
//   - [Track] : a playable track with display fields and an audio URL
//   - [TrackRef] : the (playlist id, track id) pair that identifies a track
//
// 2. Session entities: records that only live for the current process
//   - [PlayEvent] : a track that reached the playing state
//
// Session entities implement the [Model] interface and are stored through a [Repository].
package models
