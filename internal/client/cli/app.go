package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/cloudsync"
	"github.com/dmitrijs2005/bodykeeper/internal/client/config"
	"github.com/dmitrijs2005/bodykeeper/internal/client/localdb"
	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/photos"
	"github.com/dmitrijs2005/bodykeeper/internal/client/remote"
	"github.com/dmitrijs2005/bodykeeper/internal/client/services"
	"github.com/dmitrijs2005/bodykeeper/internal/client/store"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
	"github.com/dmitrijs2005/bodykeeper/internal/logging"
	"github.com/dmitrijs2005/bodykeeper/internal/tracing"
)

// Mode is the cloud connectivity state shown in the prompt.
type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

const availabilityTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	service services.MeasurementService
	syncer  *cloudsync.Syncer
	channel remote.Channel
	// drive is nil for the s3 backend.
	drive *remote.Drive
	log   logging.Logger

	modeMu sync.RWMutex
	mode   Mode

	wg sync.WaitGroup

	reader *bufio.Reader
	out    io.Writer

	closers []func(context.Context) error
}

// NewApp opens the local database, hydrates the store and wires the cloud
// channel and the syncer. Close must be called on shutdown.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	a := &App{config: c, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	log, logCloser := logging.New(logging.Config{File: c.LogFile, Level: c.LogLevel, JSON: c.LogFile != ""})
	a.log = log
	a.closers = append(a.closers, func(context.Context) error { return logCloser.Close() })

	ok := false
	defer func() {
		if !ok {
			_ = a.Close(ctx)
		}
	}()

	tracer, err := a.openTracer()
	if err != nil {
		return nil, err
	}

	repos, err := localdb.Open(ctx, c.DatabasePath())
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return repos.Close() })

	st := store.New(store.NewKVPersister(repos.Metadata, common.StateKey), store.WithRetention(c.RetentionPeriod))
	if err := st.Hydrate(ctx); err != nil {
		return nil, err
	}

	ph, err := photos.NewStore(c.DataDir)
	if err != nil {
		return nil, err
	}

	if err := a.openChannel(ctx); err != nil {
		return nil, err
	}

	a.syncer = cloudsync.New(st, a.channel, ph,
		cloudsync.WithLogger(log),
		cloudsync.WithTracer(tracer),
		cloudsync.WithHistory(repos.Passes),
		cloudsync.WithResultHook(a.onSyncResult),
	)
	a.service = services.NewMeasurementService(st, ph, a.syncer, repos.Passes, log)

	ok = true
	return a, nil
}

func (a *App) openTracer() (*tracing.Tracer, error) {
	if a.config.TraceFile == "" {
		return tracing.Noop(), nil
	}

	f, err := os.OpenFile(a.config.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	tracer, err := tracing.New(tracing.Config{Enabled: true, Output: f})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	// Closers run in reverse, so the provider flushes before the file closes.
	a.closers = append(a.closers,
		func(context.Context) error { return f.Close() },
		tracer.Shutdown,
	)
	return tracer, nil
}

func (a *App) openChannel(ctx context.Context) error {
	c := a.config

	switch c.CloudBackend {
	case config.BackendS3:
		s3, err := remote.NewS3(ctx, remote.S3Config{
			Bucket:       c.S3Bucket,
			Prefix:       c.CloudRoot,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return err
		}
		a.channel = s3

	default:
		if c.CloudRoot == "" {
			if err := os.MkdirAll(c.DriveRoot(), 0o700); err != nil {
				return fmt.Errorf("failed to create drive folder: %w", err)
			}
		}
		var opts []remote.DriveOption
		if c.MaterializeCommand != "" {
			opts = append(opts, remote.WithMaterializeCommand(c.MaterializeCommand))
		}
		a.drive = remote.NewDrive(c.DriveRoot(), opts...)
		a.channel = a.drive
	}
	return nil
}

// Close releases what NewApp acquired, in reverse order. Call Wait first
// when Start was used.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) getMode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

// setMode records the new mode and reports whether it changed.
func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.modeMu.Lock()
	prev := a.mode
	a.mode = mode
	a.modeMu.Unlock()

	if prev == mode {
		return false
	}
	a.log.Info(ctx, "cloud mode changed", "from", prev, "to", mode)
	return true
}

func (a *App) onSyncResult(r models.SyncResult) {
	switch {
	case r.Unavailable:
		a.setMode(context.Background(), ModeOffline)
	case r.Completed():
		a.setMode(context.Background(), ModeOnline)
	}
}

func (a *App) goBackground(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Start launches the background goroutines: the sync loop, the availability
// watcher and, for the drive backend, the folder watcher. They stop when ctx
// is done; Wait blocks until they have.
func (a *App) Start(ctx context.Context) {
	a.goBackground(func() { a.syncer.Run(ctx) })
	a.goBackground(func() { a.StartAvailabilityWatcher(ctx, a.config.AvailabilityCheckInterval) })

	if a.drive == nil || !a.config.WatchRemote {
		return
	}
	w, err := remote.WatchDrive(a.drive, a.log, remote.DefaultDebounce, a.service.RequestSync)
	if err != nil {
		a.log.Warn(ctx, "remote folder watcher disabled", "error", err)
		return
	}
	a.goBackground(func() {
		if err := w.Run(ctx); err != nil {
			a.log.Warn(ctx, "remote folder watcher stopped", "error", err)
		}
	})
}

// Wait blocks until the goroutines launched by Start have returned.
func (a *App) Wait() {
	a.wg.Wait()
}

// checkAvailability probes the cloud once and requests a pass when it has
// just become reachable.
func (a *App) checkAvailability(ctx context.Context) {
	enabled, err := a.service.CloudSyncEnabled(ctx)
	if err != nil || !enabled {
		a.setMode(ctx, ModeDisabled)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	available := a.channel.IsCloudAvailable(probeCtx)
	cancel()

	if !available {
		a.setMode(ctx, ModeOffline)
		return
	}
	if a.setMode(ctx, ModeOnline) {
		a.service.RequestSync()
	}
}

// StartAvailabilityWatcher probes the cloud every interval until ctx is done.
func (a *App) StartAvailabilityWatcher(ctx context.Context, interval time.Duration) {
	a.checkAvailability(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkAvailability(ctx)
		case <-ctx.Done():
			return
		}
	}
}
