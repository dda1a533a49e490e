// Package cloudsync runs sync passes between the record store and a remote
// channel.
//
// A pass checks availability, pushes unsynced records, pulls records the
// device does not know or that changed remotely, moves photos, and finally
// garbage-collects expired tombstones. Per-record failures are collected in
// the pass result; photo and GC failures are only logged. Only one pass runs
// at a time: a pass started while another is in flight returns a Skipped
// result immediately.
//
// Callers either run a pass directly with Sync, or call Request from any
// goroutine and let Run perform the passes in the background. Requests made
// while a pass is queued coalesce into one.
package cloudsync
