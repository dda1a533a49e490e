// Package remote is the key-addressed object channel between the local store
// and the cloud file area.
//
// Keys are slash-separated paths relative to the sync root:
//
//	measurements/<clientId>.json   one JSON object per record
//	photos/<clientId>.jpg          optional photo blob
//
// Two backends implement Channel: Drive, a folder kept in sync by a desktop
// cloud-drive client (it may hold ".<name>.icloud" placeholders that must be
// materialized before reading), and S3, an S3-compatible bucket. Watcher
// reports changes in a Drive folder so a sync pass can be requested.
package remote
