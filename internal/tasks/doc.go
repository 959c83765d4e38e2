// Package tasks turns batches of recognized text into playlist entries with real-time progress reporting.
//
// # Ingestion
//
// [Ingestor.Run] processes a batch in input order:
//
//  1. Normalize whitespace; an empty result is skipped without a search
//  2. Search the catalog for the first matching track
//  3. Append the match to the managed playlist
//
// A search or append failure marks that item failed and the batch continues. Each item ends in
// exactly one outcome (added, no_match, failed or skipped).
//
// # Watching
//
// [Ingestor.Watch] uses fsnotify to pick up text files dropped into a directory, one item per line,
// and renames each file with [ProcessedSuffix] once ingested.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # History
//
// The optional [Recorder] interface persists each run and its items (repositories.History).
// Recording errors are logged and never interrupt a run.
package tasks
