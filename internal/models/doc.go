// Package models defines domain entities and persistence interfaces for upl.
//
// The package contains two categories of types:
//
// 1. Session and catalog values: lightweight structs passed between the auth core and its callers
//   - [Credential] : the access token, refresh token and expiry owned by the authenticator
//   - [Profile] : the current user's profile
//   - [Playlist] : a playlist handle resolved by name lookup or creation
//
// 2. Persistent Entities: database-backed ingestion history
//   - [IngestRun] : one batch of recognized texts processed by the orchestrator
//   - [IngestItem] : the outcome for a single recognized text in a run
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
