package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

// snapshotSchema is bumped whenever the persisted layout changes.
const snapshotSchema = 1

// Persister loads and saves the serialized store.
type Persister interface {
	// Load returns nil, nil when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// KV is the subset of the local key-value store used by KVPersister.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVPersister keeps the whole store as one blob under a single key.
type KVPersister struct {
	kv  KV
	key string
}

// NewKVPersister returns a Persister over kv. An empty key means
// common.StateKey.
func NewKVPersister(kv KV, key string) *KVPersister {
	if key == "" {
		key = common.StateKey
	}
	return &KVPersister{kv: kv, key: key}
}

func (p *KVPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return data, err
}

func (p *KVPersister) Save(ctx context.Context, data []byte) error {
	return p.kv.Set(ctx, p.key, data)
}

type snapshot struct {
	Schema           int                  `json:"schema"`
	Records          []models.Measurement `json:"records"`
	CloudSyncEnabled bool                 `json:"cloudSyncEnabled"`
	LastSyncedAt     *time.Time           `json:"lastSyncedAt"`
}

// Hydrate replaces the in-memory state with the persisted one. The store is
// usable (Hydrated() == true) only after Hydrate succeeded once.
func (s *Store) Hydrate(ctx context.Context) error {
	data, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var snap snapshot
	if len(data) > 0 {
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		if snap.Schema > snapshotSchema {
			return fmt.Errorf("decode state: unsupported schema %d", snap.Schema)
		}
	}
	SortByMeasuredAt(snap.Records)

	s.mu.Lock()
	s.records = snap.Records
	s.cloudSyncEnabled = snap.CloudSyncEnabled
	s.lastSyncedAt = snap.LastSyncedAt
	s.hydrated = true
	s.mu.Unlock()

	return nil
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Persist writes the current state. Concurrent calls are serialized so the
// last write always carries the newest snapshot.
func (s *Store) Persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	if !s.hydrated {
		s.mu.RUnlock()
		return common.ErrNotHydrated
	}
	snap := snapshot{
		Schema:           snapshotSchema,
		Records:          s.records,
		CloudSyncEnabled: s.cloudSyncEnabled,
		LastSyncedAt:     s.lastSyncedAt,
	}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := s.persister.Save(ctx, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
