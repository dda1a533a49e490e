package models

import (
	"fmt"
	"time"
)

// SyncStatus is what the UI shows about cloud sync.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// SyncResult summarizes one sync pass. A pass with Errors is degraded but
// completed; Unavailable and Skipped passes performed no remote I/O.
type SyncResult struct {
	Pushed int
	Pulled int
	Purged int
	Errors []string

	PhotosUploaded   int
	PhotosDownloaded int

	// Unavailable is set when the cloud account could not be reached.
	Unavailable bool
	// Skipped is set when another pass was already in flight.
	Skipped bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Completed reports whether the pass ran to the end, with or without errors.
func (r SyncResult) Completed() bool {
	return !r.Unavailable && !r.Skipped
}

// Status maps the result to the status shown to the user.
func (r SyncResult) Status() SyncStatus {
	switch {
	case r.Skipped:
		return SyncStatusSyncing
	case r.Unavailable, len(r.Errors) > 0:
		return SyncStatusError
	default:
		return SyncStatusSynced
	}
}

func (r SyncResult) String() string {
	switch {
	case r.Skipped:
		return "sync already in progress"
	case r.Unavailable:
		return "cloud is not available"
	}
	return fmt.Sprintf("pushed %d, pulled %d, purged %d, errors %d", r.Pushed, r.Pulled, r.Purged, len(r.Errors))
}
