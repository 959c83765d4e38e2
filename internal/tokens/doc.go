// Package tokens persists the session [models.Credential] as three string keys.
//
// # Layout
//
// Every backend stores the same three keys, all string valued:
//   - access_token
//   - refresh_token
//   - token_expiration (epoch milliseconds, base 10)
//
// There is no schema versioning.
//
// # Backends
//
//   - [SQLiteStore] : a key/value table written in a single transaction
//   - [BoltStore] : a bbolt bucket written in a single db.Update
//   - [KeyringStore] : the OS keychain. Three separate writes, so a crash mid-Set can leave a mix of old and new values
//   - [MemoryStore] : process memory, for tests and throwaway sessions
//
// None of the file backends encrypt at rest. The keychain encrypts when the platform does.
//
// [Store.Get] never fails for a missing key. It reports absence with its boolean result instead.
package tokens
