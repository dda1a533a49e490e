package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/remote"
)

// push writes every dirty record and marks the confirmed ones synced in one
// batch.
func (s *Syncer) push(ctx context.Context, dirty []models.Measurement, res *models.SyncResult) {
	written := make([]models.Measurement, 0, len(dirty))
	for _, m := range dirty {
		data, err := remote.EncodeMeasurement(m)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push %s: %v", m.ClientID, err))
			continue
		}
		if err := s.ch.WriteFile(ctx, remote.MeasurementPath(m.ClientID), data); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push %s: %v", m.ClientID, err))
			continue
		}
		written = append(written, m)
	}

	marked := s.store.MarkPushed(written)
	res.Pushed = len(marked)
	s.log.Debug(ctx, "push done", "dirty", len(dirty), "pushed", res.Pushed)
}

// needsRead decides whether a listed remote object must be fetched.
// Unknown and unsynced records are always read. A synced active record is
// read again only when its object changed after the local sync, which is how
// a deletion or a photo change made elsewhere arrives; the merge re-stamps
// SyncedAt so the object is not read again. Synced tombstones are final.
func needsRead(local models.Measurement, known bool, e remote.Entry) bool {
	switch {
	case !known, !local.IsSynced():
		return true
	case local.IsDeleted():
		return false
	default:
		return e.ModTime.After(*local.SyncedAt)
	}
}

// pull fetches the records that need reading, merges them and returns the
// ids whose photo must be downloaded: inserted records and re-read records
// that carry a photo.
func (s *Syncer) pull(ctx context.Context, res *models.SyncResult) []string {
	entries, err := s.ch.Readdir(ctx, remote.MeasurementsDirKey)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list %s: %v", remote.MeasurementsDirKey, err))
		return nil
	}

	var fetched []models.Measurement
	for _, e := range entries {
		id, ok := remote.ClientIDFromName(e.Name)
		if !ok {
			continue
		}
		local, known := s.store.Get(id)
		if !needsRead(local, known, e) {
			continue
		}

		m, err := s.fetch(ctx, id, e.Name)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("pull %s: %v", id, err))
			continue
		}
		s.localize(&m)
		fetched = append(fetched, m)
	}

	report := s.store.MergeFromCloud(fetched)
	for _, c := range report.Conflicts {
		res.Errors = append(res.Errors, c.Error())
	}
	res.Pulled = report.Applied()
	s.log.Debug(ctx, "pull done", "listed", len(entries), "fetched", len(fetched),
		"inserted", len(report.Inserted), "tombstoned", len(report.Tombstoned),
		"photo_changed", len(report.PhotoChanged), "refreshed", len(report.Refreshed))

	photoIDs := slices.Clone(report.Inserted)
	for _, id := range slices.Concat(report.PhotoChanged, report.Refreshed) {
		m, ok := s.store.Get(id)
		switch {
		case !ok:
		case m.HasPhoto:
			photoIDs = append(photoIDs, id)
		default:
			if err := s.local.Remove(id); err != nil {
				s.log.Warn(ctx, "failed to remove detached photo", "client_id", id, "error", err)
			}
		}
	}
	return photoIDs
}

func (s *Syncer) fetch(ctx context.Context, id, name string) (models.Measurement, error) {
	key := remote.MeasurementPath(id)
	if err := s.ch.TriggerSync(ctx, key); err != nil {
		return models.Measurement{}, err
	}
	data, err := s.ch.ReadFile(ctx, key)
	if err != nil {
		return models.Measurement{}, err
	}
	return remote.DecodeMeasurement(name, data)
}

// localize points a pulled record's photo reference at this device.
func (s *Syncer) localize(m *models.Measurement) {
	if m.HasPhoto {
		m.PhotoURI = s.local.LocalPath(m.ClientID)
	} else {
		m.PhotoURI = ""
	}
}

// pushPhotos uploads or removes the photos of records that were dirty at the
// start of the pass.
func (s *Syncer) pushPhotos(ctx context.Context, dirty []models.Measurement, res *models.SyncResult) {
	for _, d := range dirty {
		m, ok := s.store.Get(d.ClientID)
		if !ok || m.IsDeleted() {
			continue
		}
		if !m.HasPhoto {
			if err := s.transfer.RemoveRemote(ctx, m.ClientID); err != nil {
				s.log.Warn(ctx, "failed to remove remote photo", "client_id", m.ClientID, "error", err)
			}
			continue
		}
		if err := s.transfer.Upload(ctx, m); err != nil {
			s.log.Warn(ctx, "failed to upload photo", "client_id", m.ClientID, "error", err)
			continue
		}
		res.PhotosUploaded++
	}
}

// pullPhotos downloads the photos of the given records, replacing any local
// copy, and retries those of active records whose local file is still
// missing.
func (s *Syncer) pullPhotos(ctx context.Context, pulled []string, res *models.SyncResult) {
	// value: download even when a local file exists
	want := make(map[string]bool, len(pulled))
	for _, id := range pulled {
		want[id] = true
	}
	for _, m := range s.store.Active() {
		if _, ok := want[m.ClientID]; !ok && m.HasPhoto && !s.local.Exists(m.ClientID) {
			want[m.ClientID] = false
		}
	}

	for id, replace := range want {
		m, ok := s.store.Get(id)
		if !ok || m.IsDeleted() || !m.HasPhoto || (!replace && s.local.Exists(id)) {
			continue
		}
		err := s.transfer.Download(ctx, id)
		switch {
		case errors.Is(err, remote.ErrNotExist):
			s.log.Debug(ctx, "photo not uploaded yet", "client_id", id)
		case err != nil:
			s.log.Warn(ctx, "failed to download photo", "client_id", id, "error", err)
		default:
			res.PhotosDownloaded++
		}
	}
}

// gc drops expired tombstones locally and removes their remote objects and
// photos. Remote failures are swallowed: a leftover object is re-imported as
// a tombstone and collected again.
func (s *Syncer) gc(ctx context.Context, res *models.SyncResult) {
	purged := s.store.PurgeOldDeleted()
	res.Purged = len(purged)

	for _, id := range purged {
		if err := s.ch.Unlink(ctx, remote.MeasurementPath(id)); err != nil && !errors.Is(err, remote.ErrNotExist) {
			s.log.Debug(ctx, "failed to unlink purged record", "client_id", id, "error", err)
		}
		if err := s.transfer.Purge(ctx, id); err != nil {
			s.log.Debug(ctx, "failed to purge photo", "client_id", id, "error", err)
		}
	}
}
