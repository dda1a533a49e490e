package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/dbx"
)

// timeLayout is fixed-width so that the text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, p models.SyncResult, keep int) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Record(ctx, p); err != nil {
			return err
		}
		_, err := repo.Prune(ctx, keep)
		return err
	})
}

// Record inserts one pass summary.
func (r *SQLiteRepository) Record(ctx context.Context, p models.SyncResult) error {
	query := `INSERT INTO sync_passes (started_at, finished_at, unavailable, pushed, pulled, purged,
			photos_uploaded, photos_downloaded, errors)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	errs, err := json.Marshal(p.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode pass errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		p.StartedAt.UTC().Format(timeLayout),
		p.FinishedAt.UTC().Format(timeLayout),
		p.Unavailable, p.Pushed, p.Pulled, p.Purged,
		p.PhotosUploaded, p.PhotosDownloaded,
		string(errs),
	)
	if err != nil {
		return fmt.Errorf("failed to record sync pass: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.SyncResult, error) {
	query := `SELECT started_at, finished_at, unavailable, pushed, pulled, purged,
			photos_uploaded, photos_downloaded, errors
			FROM sync_passes ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error selecting sync passes: %w", err)
	}
	defer rows.Close()

	var result []models.SyncResult
	for rows.Next() {
		var (
			p                 models.SyncResult
			started, finished string
			errs              string
		)
		err := rows.Scan(&started, &finished, &p.Unavailable, &p.Pushed, &p.Pulled, &p.Purged,
			&p.PhotosUploaded, &p.PhotosDownloaded, &errs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync pass: %w", err)
		}

		if p.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("bad started_at %q: %w", started, err)
		}
		if p.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("bad finished_at %q: %w", finished, err)
		}
		if err := json.Unmarshal([]byte(errs), &p.Errors); err != nil {
			return nil, fmt.Errorf("bad errors column: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync passes: %w", err)
	}

	return result, nil
}

// Prune deletes all but the newest keep passes and returns how many rows
// were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	query := `DELETE FROM sync_passes WHERE id NOT IN (
			SELECT id FROM sync_passes ORDER BY started_at DESC, id DESC LIMIT ?)`

	result, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync passes: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
