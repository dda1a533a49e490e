package cloudsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/photos"
	"github.com/dmitrijs2005/bodykeeper/internal/client/remote"
	"github.com/dmitrijs2005/bodykeeper/internal/client/store"
	"github.com/dmitrijs2005/bodykeeper/internal/logging"
	"github.com/dmitrijs2005/bodykeeper/internal/tracing"
)

// HistorySize is how many pass summaries are kept by the Recorder.
const HistorySize = 100

// Recorder keeps a bounded history of pass results.
type Recorder interface {
	Append(ctx context.Context, r models.SyncResult, keep int) error
}

// Syncer owns the sync lifecycle of one store and one remote channel.
type Syncer struct {
	store    *store.Store
	ch       remote.Channel
	local    *photos.Store
	transfer *photos.Transfer

	log      logging.Logger
	tracer   *tracing.Tracer
	history  Recorder
	onResult func(models.SyncResult)

	running  atomic.Bool
	seq      atomic.Uint64
	requests chan struct{}

	mu     sync.RWMutex
	status models.SyncStatus
	last   *models.SyncResult
}

type Option func(*Syncer)

func WithLogger(l logging.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Syncer) { s.tracer = t }
}

// WithHistory records every pass that was not skipped.
func WithHistory(r Recorder) Option {
	return func(s *Syncer) { s.history = r }
}

// WithResultHook calls fn after every pass that was not skipped.
func WithResultHook(fn func(models.SyncResult)) Option {
	return func(s *Syncer) { s.onResult = fn }
}

func New(st *store.Store, ch remote.Channel, local *photos.Store, opts ...Option) *Syncer {
	s := &Syncer{
		store:    st,
		ch:       ch,
		local:    local,
		transfer: photos.NewTransfer(ch, local),
		log:      logging.Nop(),
		tracer:   tracing.Noop(),
		requests: make(chan struct{}, 1),
		status:   models.SyncStatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current status and the last finished pass, if any.
func (s *Syncer) Status() (models.SyncStatus, *models.SyncResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return s.status, nil
	}
	last := *s.last
	return s.status, &last
}

func (s *Syncer) setStatus(st models.SyncStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Request asks Run for a pass. It never blocks.
func (s *Syncer) Request() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Run serves Request calls until ctx is done. Requests are ignored while
// cloud sync is disabled.
func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.requests:
			if !s.store.CloudSyncEnabled() {
				s.log.Debug(ctx, "sync requested while cloud sync is disabled")
				continue
			}
			s.Sync(ctx)
		}
	}
}

// Sync runs one pass and returns its result. It never returns an error:
// failures are reported in the result.
func (s *Syncer) Sync(ctx context.Context) models.SyncResult {
	if !s.running.CompareAndSwap(false, true) {
		now := s.store.Now()
		s.log.Debug(ctx, "sync pass skipped, another one is running")
		return models.SyncResult{Skipped: true, StartedAt: now, FinishedAt: now}
	}
	defer s.running.Store(false)

	ctx = logging.ContextWith(ctx, "pass", s.seq.Add(1))
	s.setStatus(models.SyncStatusSyncing)
	res := s.pass(ctx)
	s.finish(ctx, &res)
	return res
}

func (s *Syncer) pass(ctx context.Context) models.SyncResult {
	res := models.SyncResult{StartedAt: s.store.Now()}

	ctx, span := s.tracer.Start(ctx, "sync.pass")
	defer func() {
		span.SetAttributes(
			attribute.Int("pushed", res.Pushed),
			attribute.Int("pulled", res.Pulled),
			attribute.Int("purged", res.Purged),
			attribute.Bool("unavailable", res.Unavailable),
		)
		tracing.End(span, len(res.Errors))
	}()

	if !s.ch.IsCloudAvailable(ctx) {
		s.log.Warn(ctx, "cloud is not available, sync pass aborted")
		res.Unavailable = true
		res.FinishedAt = s.store.Now()
		return res
	}

	for _, dir := range []string{remote.MeasurementsDirKey, remote.PhotosDirKey} {
		if err := s.ch.Mkdir(ctx, dir); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mkdir %s: %v", dir, err))
		}
	}

	dirty := s.store.Unsynced()

	s.phase(ctx, "sync.push", &res, func(ctx context.Context) { s.push(ctx, dirty, &res) })

	var pulledPhotos []string
	s.phase(ctx, "sync.pull", &res, func(ctx context.Context) { pulledPhotos = s.pull(ctx, &res) })

	s.phase(ctx, "sync.photos", &res, func(ctx context.Context) {
		s.pushPhotos(ctx, dirty, &res)
		s.pullPhotos(ctx, pulledPhotos, &res)
	})

	s.phase(ctx, "sync.gc", &res, func(ctx context.Context) { s.gc(ctx, &res) })

	res.FinishedAt = s.store.Now()
	return res
}

func (s *Syncer) phase(ctx context.Context, name string, res *models.SyncResult, fn func(ctx context.Context)) {
	before := len(res.Errors)
	ctx = logging.ContextWith(ctx, "phase", name)
	ctx, span := s.tracer.Start(ctx, name)
	fn(ctx)
	tracing.End(span, len(res.Errors)-before)
}

// finish publishes the result and persists the store.
func (s *Syncer) finish(ctx context.Context, res *models.SyncResult) {
	if res.Completed() {
		s.store.SetLastSyncedAt(res.FinishedAt)
	}

	if err := s.store.Persist(ctx); err != nil {
		s.log.Error(ctx, "failed to persist store after sync", "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("persist: %v", err))
	}

	s.mu.Lock()
	s.status = res.Status()
	last := *res
	s.last = &last
	s.mu.Unlock()

	s.log.Info(ctx, "sync pass finished",
		"pushed", res.Pushed, "pulled", res.Pulled, "purged", res.Purged,
		"errors", len(res.Errors), "unavailable", res.Unavailable,
		"duration", res.FinishedAt.Sub(res.StartedAt))
	for _, e := range res.Errors {
		s.log.Warn(ctx, "sync error", "error", e)
	}

	if s.history != nil {
		if err := s.history.Append(ctx, *res, HistorySize); err != nil {
			s.log.Warn(ctx, "failed to record sync pass", "error", err)
		}
	}

	if s.onResult != nil {
		s.onResult(*res)
	}
}
