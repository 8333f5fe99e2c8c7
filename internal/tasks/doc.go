// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk export
//
// [Exporter.BulkExport] fetches the catalog once, then writes every requested
// playlist with a pool of workers:
//
//   - Unknown playlist ids are reported as failed results, not as an error
//   - Jobs are paced by a [rate.Limiter] since markdown exports download artwork
//   - An export_manifest.json summarizing the run is written to the output directory
//
// # Progress Reporting
//
// Operations take an optional send-only channel of [ProgressUpdate].
// Updates use select with default, so a slow or absent reader never blocks an export.
package tasks
