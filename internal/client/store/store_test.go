package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type memPersister struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (p *memPersister) Load(context.Context) ([]byte, error) { return p.data, p.loadErr }
func (p *memPersister) Save(_ context.Context, data []byte) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.data = append([]byte(nil), data...)
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := New(&memPersister{}, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, s.Hydrate(context.Background()))
	return s, clock
}

func navyFields() models.Fields {
	return models.Fields{
		Formula:        models.FormulaNavy,
		Gender:         models.GenderMale,
		System:         models.SystemMetric,
		Inputs:         map[string]float64{"waist": 85, "neck": 38, "height": 180},
		Results:        models.Results{BodyFatPercentage: 17.2, FatMass: 13.8, LeanMass: 66.2},
		Classification: "fitness",
	}
}

func TestAdd_CreatesActiveUnsyncedRecord(t *testing.T) {
	s, clock := newTestStore(t)

	f := navyFields()
	m := s.Add(f)

	require.Equal(t, "id-1", m.ClientID)
	require.Equal(t, clock.Now(), m.MeasuredAt)
	require.Equal(t, clock.Now(), m.Version)
	require.Nil(t, m.DeletedAt)
	require.Nil(t, m.SyncedAt)
	require.Equal(t, f.Results, m.Results)

	f.Inputs["waist"] = 120
	got, ok := s.Get(m.ClientID)
	require.True(t, ok)
	require.Equal(t, 85.0, got.Inputs["waist"], "store must not alias caller maps")
}

func TestAdd_DefaultIDsAreUnique(t *testing.T) {
	s := New(&memPersister{})
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := s.Add(navyFields()).ClientID
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDelete_ResetsSyncState(t *testing.T) {
	s, clock := newTestStore(t)
	m := s.Add(navyFields())
	s.MarkSynced([]string{m.ClientID})

	clock.Advance(time.Hour)
	require.True(t, s.Delete(m.ClientID))

	got, _ := s.Get(m.ClientID)
	require.NotNil(t, got.DeletedAt)
	require.Equal(t, clock.Now(), *got.DeletedAt)
	require.Nil(t, got.SyncedAt)
}

func TestDelete_UnknownAndRepeated(t *testing.T) {
	s, clock := newTestStore(t)
	m := s.Add(navyFields())

	require.False(t, s.Delete("missing"))
	require.Equal(t, 1, s.Len())

	require.True(t, s.Delete(m.ClientID))
	first, _ := s.Get(m.ClientID)

	clock.Advance(time.Hour)
	require.False(t, s.Delete(m.ClientID))
	second, _ := s.Get(m.ClientID)
	require.Equal(t, *first.DeletedAt, *second.DeletedAt, "deletion time is kept")
}

func TestActive_ExcludesTombstonesAndSortsNewestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	a := s.Add(navyFields())
	clock.Advance(time.Minute)
	b := s.Add(navyFields())
	clock.Advance(time.Minute)
	c := s.Add(navyFields())

	s.Delete(b.ClientID)

	active := s.Active()
	require.Len(t, active, 2)
	require.Equal(t, c.ClientID, active[0].ClientID)
	require.Equal(t, a.ClientID, active[1].ClientID)

	require.Len(t, s.All(), 3, "internal iteration includes tombstones")
}

func TestUnsyncedAndMarkSynced_Partition(t *testing.T) {
	s, _ := newTestStore(t)
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, s.Add(navyFields()).ClientID)
	}

	require.Len(t, s.Unsynced(), 4)

	s.MarkSynced(ids[:2])
	unsynced := s.Unsynced()
	require.Len(t, unsynced, 2)
	for _, m := range unsynced {
		require.NotContains(t, ids[:2], m.ClientID)
		require.Nil(t, m.SyncedAt)
	}
	for _, m := range s.All() {
		require.Equal(t, m.SyncedAt == nil, !containsID(ids[:2], m.ClientID))
	}

	s.MarkSynced(nil)
	require.Len(t, s.Unsynced(), 2)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestPhotoAttachDetach(t *testing.T) {
	s, _ := newTestStore(t)
	m := s.Add(navyFields())
	s.MarkSynced([]string{m.ClientID})

	require.True(t, s.AttachPhoto(m.ClientID, "/data/photos/id-1.jpg"))
	got, _ := s.Get(m.ClientID)
	require.True(t, got.HasPhoto)
	require.Equal(t, "/data/photos/id-1.jpg", got.PhotoURI)
	require.Nil(t, got.SyncedAt, "photo change must be pushed")

	require.True(t, s.DetachPhoto(m.ClientID))
	got, _ = s.Get(m.ClientID)
	require.False(t, got.HasPhoto)
	require.Empty(t, got.PhotoURI)

	s.Delete(m.ClientID)
	require.False(t, s.AttachPhoto(m.ClientID, "x"), "tombstones are not editable")
	require.False(t, s.DetachPhoto("missing"))
}

func TestPurgeOldDeleted_Safety(t *testing.T) {
	s, clock := newTestStore(t)

	active := s.Add(navyFields())
	s.MarkSynced([]string{active.ClientID})

	oldSynced := s.Add(navyFields())
	s.Delete(oldSynced.ClientID)
	s.MarkSynced([]string{oldSynced.ClientID})

	oldUnsynced := s.Add(navyFields())
	s.Delete(oldUnsynced.ClientID)

	clock.Advance(DefaultRetention + time.Hour)

	young := s.Add(navyFields())
	s.Delete(young.ClientID)
	s.MarkSynced([]string{young.ClientID})

	purged := s.PurgeOldDeleted()
	require.Equal(t, []string{oldSynced.ClientID}, purged)

	_, ok := s.Get(oldSynced.ClientID)
	require.False(t, ok)
	for _, id := range []string{active.ClientID, oldUnsynced.ClientID, young.ClientID} {
		_, ok := s.Get(id)
		require.True(t, ok, "record %s must survive", id)
	}

	require.Empty(t, s.PurgeOldDeleted())
}

func TestPurgeOldDeleted_CustomRetention(t *testing.T) {
	clock := newFakeClock()
	s := New(&memPersister{}, WithClock(clock.Now), WithRetention(time.Hour))

	m := s.Add(navyFields())
	s.Delete(m.ClientID)
	s.MarkSynced([]string{m.ClientID})

	clock.Advance(59 * time.Minute)
	require.Empty(t, s.PurgeOldDeleted())

	clock.Advance(2 * time.Minute)
	require.Equal(t, []string{m.ClientID}, s.PurgeOldDeleted())
}

func TestSettings(t *testing.T) {
	s, clock := newTestStore(t)
	require.False(t, s.CloudSyncEnabled())
	require.Nil(t, s.LastSyncedAt())

	s.SetCloudSyncEnabled(true)
	s.SetLastSyncedAt(clock.Now())

	require.True(t, s.CloudSyncEnabled())
	require.Equal(t, clock.Now(), *s.LastSyncedAt())
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := New(&memPersister{})
	require.NoError(t, s.Hydrate(context.Background()))

	remote := []models.Measurement{{ClientID: "remote-1", Formula: models.FormulaBMI, MeasuredAt: time.Now()}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m := s.Add(navyFields())
				s.MergeFromCloud(remote)
				s.MarkSynced([]string{m.ClientID})
				s.Delete(m.ClientID)
				_ = s.Active()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 8*50+1, s.Len())
	require.Len(t, s.Active(), 1, "only the remote record stays active")
}

func TestMarkPushed_SkipsRecordsChangedDuringPush(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.Add(navyFields())
	b := s.Add(navyFields())
	c := s.Add(navyFields())

	snapshot := s.Unsynced()

	s.Delete(b.ClientID)
	s.AttachPhoto(c.ClientID, "/p/c.jpg")

	marked := s.MarkPushed(append(snapshot, models.Measurement{ClientID: "gone"}))
	require.Equal(t, []string{a.ClientID}, marked)

	require.ElementsMatch(t, []string{b.ClientID, c.ClientID}, ids(s.Unsynced()))
}
