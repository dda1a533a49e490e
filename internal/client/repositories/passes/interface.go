package passes

import (
	"context"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
)

// Repository stores summaries of completed or unavailable sync passes.
type Repository interface {
	// Append records a pass summary and keeps only the newest keep passes,
	// atomically.
	Append(ctx context.Context, r models.SyncResult, keep int) error

	// Recent returns up to limit passes, newest first.
	Recent(ctx context.Context, limit int) ([]models.SyncResult, error)
}
