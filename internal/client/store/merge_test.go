package store

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	t0  = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	now = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
)

func rec(id string, measuredAt time.Time) models.Measurement {
	return models.Measurement{
		ClientID:       id,
		Formula:        models.FormulaBMI,
		Gender:         models.GenderFemale,
		System:         models.SystemMetric,
		Inputs:         map[string]float64{"weight": 60, "height": 165, "age": 30},
		Results:        models.Results{BodyFatPercentage: 24.1, FatMass: 14.5, LeanMass: 45.5},
		Classification: "average",
		MeasuredAt:     measuredAt,
		Version:        measuredAt,
	}
}

func tombstone(m models.Measurement, at time.Time) models.Measurement {
	m.DeletedAt = models.TimePtr(at)
	return m
}

func synced(m models.Measurement, at time.Time) models.Measurement {
	m.SyncedAt = models.TimePtr(at)
	return m
}

func withPhoto(m models.Measurement, uri string) models.Measurement {
	m.HasPhoto = true
	m.PhotoURI = uri
	return m
}

func ids(ms []models.Measurement) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ClientID)
	}
	return out
}

func find(t *testing.T, ms []models.Measurement, id string) models.Measurement {
	t.Helper()
	for _, m := range ms {
		if m.ClientID == id {
			return m
		}
	}
	t.Fatalf("record %s not found", id)
	return models.Measurement{}
}

func TestMerge_Policy(t *testing.T) {
	tests := []struct {
		name           string
		local          []models.Measurement
		remote         []models.Measurement
		wantInserted   []string
		wantTombstoned []string
		check          func(t *testing.T, merged []models.Measurement)
	}{
		{
			name:         "unknown remote record is inserted as synced",
			remote:       []models.Measurement{rec("a", t0)},
			wantInserted: []string{"a"},
			check: func(t *testing.T, merged []models.Measurement) {
				a := find(t, merged, "a")
				require.NotNil(t, a.SyncedAt)
				require.Equal(t, now, *a.SyncedAt)
			},
		},
		{
			name:         "unknown remote tombstone is inserted too",
			remote:       []models.Measurement{tombstone(rec("a", t0), t0.Add(time.Hour))},
			wantInserted: []string{"a"},
			check: func(t *testing.T, merged []models.Measurement) {
				require.True(t, find(t, merged, "a").IsDeleted())
			},
		},
		{
			name:           "remote tombstone deletes local active record",
			local:          []models.Measurement{synced(rec("a", t0), t0)},
			remote:         []models.Measurement{tombstone(rec("a", t0), t0.Add(2*time.Hour))},
			wantTombstoned: []string{"a"},
			check: func(t *testing.T, merged []models.Measurement) {
				a := find(t, merged, "a")
				require.Equal(t, t0.Add(2*time.Hour), *a.DeletedAt)
				require.Equal(t, now, *a.SyncedAt)
			},
		},
		{
			name:   "remote active never resurrects local tombstone",
			local:  []models.Measurement{tombstone(rec("a", t0), t0.Add(time.Hour))},
			remote: []models.Measurement{synced(rec("a", t0), t0)},
			check: func(t *testing.T, merged []models.Measurement) {
				a := find(t, merged, "a")
				require.True(t, a.IsDeleted())
				require.Nil(t, a.SyncedAt, "local tombstone still needs a push")
			},
		},
		{
			name:   "both tombstoned keeps local deletion time",
			local:  []models.Measurement{tombstone(rec("a", t0), t0.Add(time.Hour))},
			remote: []models.Measurement{tombstone(rec("a", t0), t0.Add(3*time.Hour))},
			check: func(t *testing.T, merged []models.Measurement) {
				require.Equal(t, t0.Add(time.Hour), *find(t, merged, "a").DeletedAt)
			},
		},
		{
			name:   "unsynced local active copy is left alone",
			local:  []models.Measurement{rec("a", t0)},
			remote: []models.Measurement{withPhoto(rec("a", t0), "/photos/a.jpg")},
			check: func(t *testing.T, merged []models.Measurement) {
				a := find(t, merged, "a")
				require.Nil(t, a.SyncedAt)
				require.False(t, a.HasPhoto)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, report := Merge(tt.local, tt.remote, now)
			require.Equal(t, tt.wantInserted, report.Inserted)
			require.Equal(t, tt.wantTombstoned, report.Tombstoned)
			require.Empty(t, report.Conflicts)
			tt.check(t, merged)
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	local := []models.Measurement{
		synced(rec("a", t0), t0),
		rec("b", t0.Add(time.Hour)),
		tombstone(rec("c", t0), t0.Add(2*time.Hour)),
	}
	remote := []models.Measurement{
		tombstone(rec("a", t0), t0.Add(5*time.Hour)),
		rec("c", t0),
		rec("d", t0.Add(3*time.Hour)),
		tombstone(rec("e", t0.Add(-time.Hour)), t0),
	}

	once, first := Merge(local, remote, now)
	twice, second := Merge(once, remote, now)

	require.Empty(t, cmp.Diff(once, twice))
	require.Equal(t, 3, first.Applied())
	require.Zero(t, second.Applied())
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	local := []models.Measurement{synced(rec("a", t0), t0)}
	remote := []models.Measurement{tombstone(rec("a", t0), t0.Add(time.Hour)), rec("b", t0)}

	localBefore := []models.Measurement{local[0].Clone()}
	remoteBefore := []models.Measurement{remote[0].Clone(), remote[1].Clone()}

	merged, _ := Merge(local, remote, now)
	merged[0].Inputs["weight"] = 999

	require.Empty(t, cmp.Diff(localBefore, local))
	require.Empty(t, cmp.Diff(remoteBefore, remote))
}

func TestMerge_Conflicts(t *testing.T) {
	divergent := rec("a", t0)
	divergent.Results.BodyFatPercentage = 40

	local := []models.Measurement{synced(rec("a", t0), t0)}
	remote := []models.Measurement{divergent, {Formula: models.FormulaNavy}}

	merged, report := Merge(local, remote, now)

	require.Len(t, report.Conflicts, 2)
	require.ErrorIs(t, report.Conflicts[0], common.ErrDivergentDuplicate)
	require.ErrorIs(t, report.Conflicts[1], common.ErrorValidation)
	require.Equal(t, []string{"a"}, ids(merged))
	require.Equal(t, 24.1, merged[0].Results.BodyFatPercentage, "local copy wins")
}

func TestMerge_SortsNewestFirst(t *testing.T) {
	local := []models.Measurement{rec("b", t0), rec("c", t0.Add(2*time.Hour))}
	remote := []models.Measurement{rec("a", t0), rec("d", t0.Add(time.Hour))}

	merged, _ := Merge(local, remote, now)
	require.Equal(t, []string{"c", "d", "a", "b"}, ids(merged))
}

func TestMerge_SyncedActiveCopy(t *testing.T) {
	tests := []struct {
		name        string
		local       models.Measurement
		remote      models.Measurement
		wantChanged []string
		wantRefresh []string
		wantPhoto   bool
		wantURI     string
	}{
		{
			name:        "unchanged copy only re-stamps SyncedAt",
			local:       synced(rec("a", t0), t0),
			remote:      rec("a", t0),
			wantRefresh: []string{"a"},
		},
		{
			name:        "photo attached elsewhere is adopted",
			local:       synced(rec("a", t0), t0),
			remote:      withPhoto(rec("a", t0), "/local/photos/a.jpg"),
			wantChanged: []string{"a"},
			wantPhoto:   true,
			wantURI:     "/local/photos/a.jpg",
		},
		{
			name:        "photo detached elsewhere is adopted",
			local:       synced(withPhoto(rec("a", t0), "/local/photos/a.jpg"), t0),
			remote:      rec("a", t0),
			wantChanged: []string{"a"},
		},
		{
			name:        "same photo only re-stamps SyncedAt",
			local:       synced(withPhoto(rec("a", t0), "/local/photos/a.jpg"), t0),
			remote:      withPhoto(rec("a", t0), "/local/photos/a.jpg"),
			wantRefresh: []string{"a"},
			wantPhoto:   true,
			wantURI:     "/local/photos/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, report := Merge([]models.Measurement{tt.local}, []models.Measurement{tt.remote}, now)

			require.Empty(t, report.Conflicts)
			require.Equal(t, tt.wantChanged, report.PhotoChanged)
			require.Equal(t, tt.wantRefresh, report.Refreshed)
			require.Equal(t, len(tt.wantChanged), report.Applied())

			a := find(t, merged, "a")
			require.Equal(t, now, *a.SyncedAt)
			require.Equal(t, tt.wantPhoto, a.HasPhoto)
			require.Equal(t, tt.wantURI, a.PhotoURI)
		})
	}
}

// Device 1 deletes while device 2 is offline; device 2 pulls the tombstone.
func TestMerge_RemoteTombstoneAppliesToActive(t *testing.T) {
	device2 := []models.Measurement{synced(rec("x", t0), t0)}
	cloud := []models.Measurement{tombstone(rec("x", t0), t0.Add(24*time.Hour))}

	merged, report := Merge(device2, cloud, now)

	require.Equal(t, []string{"x"}, report.Tombstoned)
	x := find(t, merged, "x")
	require.True(t, x.IsDeleted())
	require.True(t, x.IsSynced())
}

// Local delete wins over a stale remote active copy and is then pushed.
func TestMerge_LocalDeleteWinsOverStaleRemote(t *testing.T) {
	s, clock := newTestStore(t)
	m := s.Add(navyFields())
	s.MarkSynced([]string{m.ClientID})

	clock.Advance(time.Hour)
	s.Delete(m.ClientID)

	remoteActive := m
	remoteActive.SyncedAt = nil
	report := s.MergeFromCloud([]models.Measurement{remoteActive})
	require.Zero(t, report.Applied())

	got, _ := s.Get(m.ClientID)
	require.True(t, got.IsDeleted())
	require.Equal(t, []string{m.ClientID}, ids(s.Unsynced()))
}

// A record created on another device appears locally after merge.
func TestMerge_InsertsRecordFromOtherDevice(t *testing.T) {
	s, clock := newTestStore(t)
	local := s.Add(navyFields())

	report := s.MergeFromCloud([]models.Measurement{rec("other-device", clock.Now().Add(time.Minute))})
	require.Equal(t, []string{"other-device"}, report.Inserted)

	active := s.Active()
	require.Equal(t, []string{"other-device", local.ClientID}, ids(active))
	require.Equal(t, []string{local.ClientID}, ids(s.Unsynced()))
}

func TestMerge_EmptyRemoteLeavesStoreUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	m := s.Add(navyFields())
	s.MarkSynced([]string{m.ClientID})
	before := s.All()

	report := s.MergeFromCloud(nil)

	require.Zero(t, report.Applied())
	require.Empty(t, cmp.Diff(before, s.All()))
}
