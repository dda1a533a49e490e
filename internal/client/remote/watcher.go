package remote

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/bodykeeper/internal/logging"
)

// DefaultDebounce groups bursts of drive-client writes into one notification.
const DefaultDebounce = 2 * time.Second

// Watcher reports changes under the record and photo folders of a Drive.
// Bursts of events are coalesced; notify is called once per quiet period.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	notify   func()
	log      logging.Logger
}

// NewWatcher watches dirs (absolute paths). Missing dirs are created so a
// fresh sync root can be watched before the first pass.
func NewWatcher(log logging.Logger, debounce time.Duration, notify func(), dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fs: fw, debounce: debounce, notify: notify, log: log}, nil
}

// WatchDrive watches the measurements and photos folders of d.
func WatchDrive(d *Drive, log logging.Logger, debounce time.Duration, notify func()) (*Watcher, error) {
	ctx := context.Background()
	if err := d.Mkdir(ctx, MeasurementsDirKey); err != nil {
		return nil, err
	}
	if err := d.Mkdir(ctx, PhotosDirKey); err != nil {
		return nil, err
	}
	return NewWatcher(log, debounce, notify,
		filepath.Join(d.Root(), MeasurementsDirKey),
		filepath.Join(d.Root(), PhotosDirKey))
}

// relevant filters out our own temp files. Placeholders are kept: a new
// ".<id>.json.icloud" is how a remote record first appears.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.Contains(name, ".tmp-") {
		return false
	}
	if _, ok := realName(name); ok {
		return true
	}
	return !strings.HasPrefix(name, ".")
}

// Run delivers notifications until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug(ctx, "remote change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.notify()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "watcher error", "error", err)
		}
	}
}
