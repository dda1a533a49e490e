// Package passes keeps a bounded history of sync passes in the local
// database, so the CLI can show when the device last talked to the cloud
// and what each pass did.
//
// Skipped passes are never recorded. Repository.Append inserts a pass and
// trims the table to the newest N rows in the same transaction.
package passes
