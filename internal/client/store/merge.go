package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

// MergeReport describes what a merge changed.
type MergeReport struct {
	// Inserted lists records that were unknown locally.
	Inserted []string
	// Tombstoned lists local active records that took a remote tombstone.
	Tombstoned []string
	// PhotoChanged lists synced active records that took the remote photo
	// reference.
	PhotoChanged []string
	// Refreshed lists synced active records whose remote copy matched. Only
	// their SyncedAt moved.
	Refreshed []string
	// Conflicts holds entries that were rejected or left untouched because
	// they contradict local state. They never abort the merge.
	Conflicts []error
}

// Applied returns the number of records the merge changed. Refreshed
// records are not counted.
func (r MergeReport) Applied() int {
	return len(r.Inserted) + len(r.Tombstoned) + len(r.PhotoChanged)
}

// Merge reconciles local with records pulled from the remote and returns the
// new collection, sorted by MeasuredAt descending. Neither input is modified.
//
// Policy, keyed strictly on ClientID:
//   - unknown remote record: inserted with SyncedAt = now;
//   - remote tombstone over a local active record: the local record takes the
//     remote DeletedAt and SyncedAt = now;
//   - remote active copy over a synced local active record: the local record
//     takes the remote HasPhoto and PhotoURI if they differ, and SyncedAt =
//     now either way;
//   - anything else leaves the local record unchanged, so a local tombstone
//     is never resurrected by a remote active copy and an unsynced local
//     change is never overwritten.
//
// Remote photo references must already point at this device. Two active
// copies with different payloads are reported as
// common.ErrDivergentDuplicate; the local copy wins. Applying the same remote
// set twice at the same time yields the same collection as applying it once.
func Merge(local, remote []models.Measurement, now time.Time) ([]models.Measurement, MergeReport) {
	var report MergeReport

	merged := make([]models.Measurement, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))
	for _, m := range local {
		index[m.ClientID] = len(merged)
		merged = append(merged, m.Clone())
	}

	for _, r := range remote {
		if r.ClientID == "" {
			report.Conflicts = append(report.Conflicts, fmt.Errorf("%w: remote record without clientId", common.ErrorValidation))
			continue
		}

		i, ok := index[r.ClientID]
		if !ok {
			c := r.Clone()
			c.SyncedAt = models.TimePtr(now)
			index[c.ClientID] = len(merged)
			merged = append(merged, c)
			report.Inserted = append(report.Inserted, c.ClientID)
			continue
		}

		l := &merged[i]
		switch {
		case r.IsDeleted() && !l.IsDeleted():
			l.DeletedAt = models.TimePtr(*r.DeletedAt)
			l.SyncedAt = models.TimePtr(now)
			report.Tombstoned = append(report.Tombstoned, l.ClientID)
		case r.IsDeleted() || l.IsDeleted():
			// local tombstone stays; two tombstones keep the local DeletedAt
		case !l.SamePayload(r):
			report.Conflicts = append(report.Conflicts, fmt.Errorf("%w: %s", common.ErrDivergentDuplicate, r.ClientID))
		case !l.IsSynced():
			// the local change goes out on the next push
		case l.HasPhoto != r.HasPhoto || l.PhotoURI != r.PhotoURI:
			l.HasPhoto = r.HasPhoto
			l.PhotoURI = r.PhotoURI
			l.SyncedAt = models.TimePtr(now)
			report.PhotoChanged = append(report.PhotoChanged, l.ClientID)
		default:
			l.SyncedAt = models.TimePtr(now)
			report.Refreshed = append(report.Refreshed, l.ClientID)
		}
	}

	SortByMeasuredAt(merged)
	return merged, report
}

// SortByMeasuredAt orders records newest first. Ties are broken by ClientID
// so the order is deterministic.
func SortByMeasuredAt(ms []models.Measurement) {
	slices.SortStableFunc(ms, func(a, b models.Measurement) int {
		if c := b.MeasuredAt.Compare(a.MeasuredAt); c != 0 {
			return c
		}
		switch {
		case a.ClientID < b.ClientID:
			return -1
		case a.ClientID > b.ClientID:
			return 1
		}
		return 0
	})
}
