package remote

import (
	"context"
	"time"
)

// Entry is one object listed by Readdir.
type Entry struct {
	// Name is the base name, with any placeholder decoration removed.
	Name    string
	ModTime time.Time
	// Placeholder is set when the object exists remotely but is not yet
	// downloaded; TriggerSync materializes it.
	Placeholder bool
}

// Channel is the remote object store used by the sync orchestrator.
// All keys are slash-separated and relative to the sync root.
type Channel interface {
	// IsCloudAvailable reports whether the remote can be used right now.
	IsCloudAvailable(ctx context.Context) bool

	Exists(ctx context.Context, key string) (bool, error)
	Mkdir(ctx context.Context, dir string) error
	// Readdir lists the objects directly under dir. A missing dir yields an
	// empty list.
	Readdir(ctx context.Context, dir string) ([]Entry, error)

	ReadFile(ctx context.Context, key string) ([]byte, error)
	WriteFile(ctx context.Context, key string, data []byte) error
	// Unlink removes key; a missing key returns an error wrapping ErrNotExist.
	Unlink(ctx context.Context, key string) error

	UploadFile(ctx context.Context, key, localPath string) error
	DownloadFile(ctx context.Context, key, localPath string) error

	// TriggerSync forces key to be available for reading. It is a no-op for
	// backends without placeholders.
	TriggerSync(ctx context.Context, key string) error
}
