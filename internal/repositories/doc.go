// Package repositories implements SQLite persistence for ingestion history.
//
// [IngestRunRepository] implements models.Repository for runs with soft deletes and atomic
// sequence generation. [IngestItemRepository] stores the per-text outcome of each run.
// [History] combines both into the recorder the ingest task writes to.
//
// Sequence numbers provide stable, human-readable run numbers (e.g. run #15) independent of UUIDs.
// The [NextSequence] function atomically increments per-table counters in dedicated sequence tables.
package repositories
