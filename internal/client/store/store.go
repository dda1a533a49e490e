package store

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/google/uuid"
)

// DefaultRetention is how long a propagated tombstone is kept before it may
// be garbage-collected.
const DefaultRetention = 30 * 24 * time.Hour

// Store holds every measurement record known to this device.
type Store struct {
	mu               sync.RWMutex
	records          []models.Measurement
	cloudSyncEnabled bool
	lastSyncedAt     *time.Time
	hydrated         bool

	persistMu sync.Mutex
	persister Persister

	retention time.Duration
	now       func() time.Time
	newID     func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetention sets the tombstone retention window.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithIDGenerator replaces the clientId generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty, not yet hydrated store backed by p.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		retention: DefaultRetention,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add creates a new active, unsynced record from f and returns a copy of it.
func (s *Store) Add(f models.Fields) models.Measurement {
	now := s.now()
	m := models.Measurement{
		ClientID:       s.newID(),
		Formula:        f.Formula,
		Gender:         f.Gender,
		System:         f.System,
		Results:        f.Results,
		Classification: f.Classification,
		MeasuredAt:     now,
		Version:        now,
		Inputs:         maps.Clone(f.Inputs),
		HasPhoto:       f.HasPhoto,
		PhotoURI:       f.PhotoURI,
	}

	s.mu.Lock()
	s.records = slices.Insert(s.records, 0, m)
	s.mu.Unlock()

	return m.Clone()
}

// Delete tombstones the record and marks it unsynced. Unknown ids and
// records that are already tombstoned are left alone. It reports whether
// anything changed.
func (s *Store) Delete(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(clientID)
	if i < 0 || s.records[i].IsDeleted() {
		return false
	}
	s.records[i].DeletedAt = models.TimePtr(s.now())
	s.records[i].SyncedAt = nil
	return true
}

// AttachPhoto records a photo on an active record and marks it unsynced.
func (s *Store) AttachPhoto(clientID, uri string) bool {
	return s.updateActive(clientID, func(m *models.Measurement) {
		m.HasPhoto = true
		m.PhotoURI = uri
	})
}

// DetachPhoto clears the photo of an active record and marks it unsynced.
func (s *Store) DetachPhoto(clientID string) bool {
	return s.updateActive(clientID, func(m *models.Measurement) {
		m.HasPhoto = false
		m.PhotoURI = ""
	})
}

func (s *Store) updateActive(clientID string, fn func(*models.Measurement)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(clientID)
	if i < 0 || s.records[i].IsDeleted() {
		return false
	}
	fn(&s.records[i])
	s.records[i].SyncedAt = nil
	return true
}

// Get returns the record with the given id, tombstones included.
func (s *Store) Get(clientID string) (models.Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(clientID)
	if i < 0 {
		return models.Measurement{}, false
	}
	return s.records[i].Clone(), true
}

// All returns every record, tombstones included, newest first.
func (s *Store) All() []models.Measurement {
	return s.filter(func(models.Measurement) bool { return true })
}

// Active returns the records visible to the user, newest first.
func (s *Store) Active() []models.Measurement {
	return s.filter(func(m models.Measurement) bool { return !m.IsDeleted() })
}

// Unsynced returns exactly the records with SyncedAt == nil.
func (s *Store) Unsynced() []models.Measurement {
	return s.filter(func(m models.Measurement) bool { return !m.IsSynced() })
}

func (s *Store) filter(keep func(models.Measurement) bool) []models.Measurement {
	s.mu.RLock()
	out := make([]models.Measurement, 0, len(s.records))
	for _, m := range s.records {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	s.mu.RUnlock()

	SortByMeasuredAt(out)
	return out
}

// MarkSynced stamps SyncedAt = now on the given records. Call it only after
// the remote write was confirmed.
func (s *Store) MarkSynced(clientIDs []string) {
	if len(clientIDs) == 0 {
		return
	}
	ids := make(map[string]struct{}, len(clientIDs))
	for _, id := range clientIDs {
		ids[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := range s.records {
		if _, ok := ids[s.records[i].ClientID]; ok {
			s.records[i].SyncedAt = models.TimePtr(now)
		}
	}
}

// MarkPushed is MarkSynced for the records a push wrote, as they were read
// before the write. A record that changed in the meantime (deleted, or its
// photo attached or detached) stays unsynced so its newer state goes out on
// the next pass. It returns the ids that were marked.
func (s *Store) MarkPushed(pushed []models.Measurement) []string {
	if len(pushed) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var marked []string
	for _, p := range pushed {
		i := s.indexOf(p.ClientID)
		if i < 0 {
			continue
		}
		cur := &s.records[i]
		if cur.IsDeleted() != p.IsDeleted() || cur.HasPhoto != p.HasPhoto || cur.PhotoURI != p.PhotoURI {
			continue
		}
		cur.SyncedAt = models.TimePtr(now)
		marked = append(marked, cur.ClientID)
	}
	return marked
}

// MergeFromCloud applies Merge to the current collection and swaps the
// result in atomically.
func (s *Store) MergeFromCloud(remote []models.Measurement) MergeReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, report := Merge(s.records, remote, s.now())
	s.records = merged
	return report
}

// PurgeOldDeleted drops tombstones that are older than the retention window
// and whose deletion was confirmed on the remote. It returns the purged ids
// so the remote object and the photos can be removed as well.
func (s *Store) PurgeOldDeleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)

	var purged []string
	kept := s.records[:0:0]
	for _, m := range s.records {
		if m.IsDeleted() && m.IsSynced() && m.DeletedAt.Before(cutoff) {
			purged = append(purged, m.ClientID)
			continue
		}
		kept = append(kept, m)
	}
	s.records = kept

	return purged
}

// Len returns the number of records, tombstones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// CloudSyncEnabled reports the persisted cloud sync toggle.
func (s *Store) CloudSyncEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloudSyncEnabled
}

// SetCloudSyncEnabled changes the cloud sync toggle.
func (s *Store) SetCloudSyncEnabled(enabled bool) {
	s.mu.Lock()
	s.cloudSyncEnabled = enabled
	s.mu.Unlock()
}

// LastSyncedAt returns the end time of the last completed pass, if any.
func (s *Store) LastSyncedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSyncedAt == nil {
		return nil
	}
	return models.TimePtr(*s.lastSyncedAt)
}

// SetLastSyncedAt records the end time of a completed pass.
func (s *Store) SetLastSyncedAt(t time.Time) {
	s.mu.Lock()
	s.lastSyncedAt = models.TimePtr(t)
	s.mu.Unlock()
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) indexOf(clientID string) int {
	return slices.IndexFunc(s.records, func(m models.Measurement) bool {
		return m.ClientID == clientID
	})
}
