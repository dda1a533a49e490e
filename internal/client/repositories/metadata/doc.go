// Package metadata persists key-value pairs in the "metadata" table of the
// local SQLite database.
//
// SQLiteRepository works over dbx.DBTX, so it can run on a *sql.DB or inside
// a transaction.
package metadata
