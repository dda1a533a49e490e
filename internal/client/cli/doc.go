// Package cli provides the interactive bodykeeper command-line client.
//
// It wires configuration, the local SQLite database, the record store, the
// cloud channel (a synced drive folder or an S3 bucket), the sync
// orchestrator, and an interactive REPL that keeps working offline.
//
// Key features:
//   - Add / List / Show / Delete measurements
//   - Attach and remove progress photos
//   - Toggle cloud sync, sync on demand, inspect status and pass history
//
// Background work started by App.Start: the sync loop serving requests, a
// cloud availability watcher that requests a pass when the cloud comes
// back, and an fsnotify watcher on the drive folder.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// NewRootCmd exposes the same application as cobra commands.
package cli
