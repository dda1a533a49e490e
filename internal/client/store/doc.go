// Package store is the authoritative local state of all measurement records,
// active and tombstoned.
//
// # Lifecycle
//
// A Store is constructed once at process start with New, hydrated from a
// Persister with Hydrate, handed to the services and the sync orchestrator,
// and written back with Persist after mutations. Nothing in this package is
// global.
//
// # Sync bookkeeping
//
// The store is the only writer of DeletedAt and SyncedAt:
//
//   - Add and Delete leave the record unsynced (SyncedAt == nil);
//   - MarkSynced stamps records confirmed written to the remote;
//   - MergeFromCloud applies the merge policy (see Merge);
//   - PurgeOldDeleted drops expired, propagated tombstones.
//
// # Concurrency
//
// All methods are safe for concurrent use. Reads return deep copies; merge
// builds a new collection and swaps it in under the write lock.
package store
