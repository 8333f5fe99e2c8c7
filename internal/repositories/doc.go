// Package repositories implements SQLite persistence for session entities.
//
// Key Implementations:
//   - [HistoryRepository] : tracks that started playing during the current session
//
// The database is opened in memory by default, so nothing outlives the
// process. Sequence numbers give a stable play order independent of UUIDs and
// timestamps; [NextSequence] increments per-table counters in dedicated
// sequence tables.
package repositories
