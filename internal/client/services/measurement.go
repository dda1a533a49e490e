package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/bodyfat"
	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/photos"
	"github.com/dmitrijs2005/bodykeeper/internal/client/store"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
	"github.com/dmitrijs2005/bodykeeper/internal/logging"
)

// Syncer is the part of cloudsync.Syncer the service drives.
type Syncer interface {
	Sync(ctx context.Context) models.SyncResult
	Request()
	Status() (models.SyncStatus, *models.SyncResult)
}

// HistoryReader returns recent sync passes, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.SyncResult, error)
}

// NewMeasurement is the user input for a new record.
type NewMeasurement struct {
	Formula models.Formula
	Gender  models.Gender
	System  models.System
	Inputs  map[string]float64
}

// Status is what the CLI shows about the store and cloud sync.
type Status struct {
	CloudSyncEnabled bool
	Sync             models.SyncStatus
	LastSyncedAt     *time.Time
	LastPass         *models.SyncResult
	Active           int
	Pending          int
}

// MeasurementService defines the operations available to the CLI.
//
// Every call fails with common.ErrNotHydrated until the store was hydrated.
// Mutations persist the store before returning and request a sync pass
// when cloud sync is enabled.
type MeasurementService interface {
	Add(ctx context.Context, in NewMeasurement) (models.Measurement, error)
	List(ctx context.Context) ([]models.Measurement, error)
	Get(ctx context.Context, id string) (models.Measurement, error)
	Delete(ctx context.Context, id string) error
	AttachPhoto(ctx context.Context, id, src string) error
	DetachPhoto(ctx context.Context, id string) error

	SetCloudSync(ctx context.Context, enabled bool) error
	CloudSyncEnabled(ctx context.Context) (bool, error)
	SyncNow(ctx context.Context) (models.SyncResult, error)
	RequestSync()
	Status(ctx context.Context) (Status, error)
	History(ctx context.Context, limit int) ([]models.SyncResult, error)
}

type measurementService struct {
	store   *store.Store
	photos  *photos.Store
	syncer  Syncer
	history HistoryReader
	log     logging.Logger
}

// NewMeasurementService wires the service. history may be nil.
func NewMeasurementService(st *store.Store, ph *photos.Store, syncer Syncer, history HistoryReader, log logging.Logger) MeasurementService {
	if log == nil {
		log = logging.Nop()
	}
	return &measurementService{store: st, photos: ph, syncer: syncer, history: history, log: log}
}

func (s *measurementService) ready() error {
	if !s.store.Hydrated() {
		return common.ErrNotHydrated
	}
	return nil
}

// commit persists the store and asks for a pass.
func (s *measurementService) commit(ctx context.Context) error {
	if err := s.store.Persist(ctx); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	if s.store.CloudSyncEnabled() {
		s.syncer.Request()
	}
	return nil
}

func (s *measurementService) Add(ctx context.Context, in NewMeasurement) (models.Measurement, error) {
	if err := s.ready(); err != nil {
		return models.Measurement{}, err
	}

	results, class, err := bodyfat.Compute(in.Formula, in.Gender, in.System, in.Inputs)
	if err != nil {
		return models.Measurement{}, err
	}

	m := s.store.Add(models.Fields{
		Formula:        in.Formula,
		Gender:         in.Gender,
		System:         in.System,
		Inputs:         in.Inputs,
		Results:        results,
		Classification: class,
	})
	s.log.Info(ctx, "measurement added", "client_id", m.ClientID, "formula", m.Formula)

	return m, s.commit(ctx)
}

func (s *measurementService) List(ctx context.Context) ([]models.Measurement, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Active(), nil
}

func (s *measurementService) Get(ctx context.Context, id string) (models.Measurement, error) {
	if err := s.ready(); err != nil {
		return models.Measurement{}, err
	}
	m, ok := s.store.Get(id)
	if !ok || m.IsDeleted() {
		return models.Measurement{}, fmt.Errorf("measurement %s: %w", id, common.ErrorNotFound)
	}
	return m, nil
}

// Delete tombstones a record. Deleting a record twice is not an error.
func (s *measurementService) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("measurement %s: %w", id, common.ErrorNotFound)
	}
	if !s.store.Delete(id) {
		return nil
	}
	s.log.Info(ctx, "measurement deleted", "client_id", id)
	return s.commit(ctx)
}

func (s *measurementService) AttachPhoto(ctx context.Context, id, src string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	path, err := s.photos.Import(id, src)
	if err != nil {
		return err
	}
	if !s.store.AttachPhoto(id, path) {
		// deleted concurrently
		_ = s.photos.Remove(id)
		return fmt.Errorf("measurement %s: %w", id, common.ErrorNotFound)
	}
	return s.commit(ctx)
}

func (s *measurementService) DetachPhoto(ctx context.Context, id string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !m.HasPhoto {
		return nil
	}
	if !s.store.DetachPhoto(id) {
		return fmt.Errorf("measurement %s: %w", id, common.ErrorNotFound)
	}
	if err := s.photos.Remove(id); err != nil {
		s.log.Warn(ctx, "failed to remove local photo", "client_id", id, "error", err)
	}
	return s.commit(ctx)
}

func (s *measurementService) SetCloudSync(ctx context.Context, enabled bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.store.SetCloudSyncEnabled(enabled)
	s.log.Info(ctx, "cloud sync toggled", "enabled", enabled)
	return s.commit(ctx)
}

func (s *measurementService) CloudSyncEnabled(context.Context) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.store.CloudSyncEnabled(), nil
}

// SyncNow runs a pass in the caller's goroutine.
func (s *measurementService) SyncNow(ctx context.Context) (models.SyncResult, error) {
	if err := s.ready(); err != nil {
		return models.SyncResult{}, err
	}
	if !s.store.CloudSyncEnabled() {
		return models.SyncResult{}, common.ErrCloudSyncDisabled
	}
	return s.syncer.Sync(ctx), nil
}

func (s *measurementService) RequestSync() {
	if s.store.Hydrated() && s.store.CloudSyncEnabled() {
		s.syncer.Request()
	}
}

func (s *measurementService) Status(context.Context) (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	st, last := s.syncer.Status()
	return Status{
		CloudSyncEnabled: s.store.CloudSyncEnabled(),
		Sync:             st,
		LastSyncedAt:     s.store.LastSyncedAt(),
		LastPass:         last,
		Active:           len(s.store.Active()),
		Pending:          len(s.store.Unsynced()),
	}, nil
}

func (s *measurementService) History(ctx context.Context, limit int) ([]models.SyncResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}
