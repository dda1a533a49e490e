package remote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/filex"
)

const (
	placeholderSuffix = ".icloud"
	pathToken         = "{path}"

	defaultPollInterval       = 250 * time.Millisecond
	defaultMaterializeTimeout = 30 * time.Second
)

// Drive is a Channel over a local folder that a desktop cloud-drive client
// keeps in sync with the cloud.
type Drive struct {
	root string

	materialize        []string
	pollInterval       time.Duration
	materializeTimeout time.Duration

	runCommand func(ctx context.Context, name string, args ...string) error
}

var _ Channel = (*Drive)(nil)

type DriveOption func(*Drive)

// WithMaterializeCommand sets the command that downloads a placeholder, for
// example "brctl download {path}". The {path} token is replaced with the
// absolute placeholder path; without it the path is appended.
func WithMaterializeCommand(cmd string) DriveOption {
	return func(d *Drive) { d.materialize = strings.Fields(cmd) }
}

// WithMaterializeTimeout bounds how long TriggerSync waits for a download.
func WithMaterializeTimeout(timeout time.Duration) DriveOption {
	return func(d *Drive) { d.materializeTimeout = timeout }
}

func WithPollInterval(interval time.Duration) DriveOption {
	return func(d *Drive) { d.pollInterval = interval }
}

func NewDrive(root string, opts ...DriveOption) *Drive {
	d := &Drive{
		root:               root,
		pollInterval:       defaultPollInterval,
		materializeTimeout: defaultMaterializeTimeout,
		runCommand:         runCommand,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the absolute folder the drive is rooted at.
func (d *Drive) Root() string { return d.root }

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Drive) abs(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func placeholderPath(p string) string {
	dir, base := filepath.Split(p)
	return filepath.Join(dir, "."+base+placeholderSuffix)
}

// realName returns the name a placeholder stands for.
func realName(name string) (string, bool) {
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, placeholderSuffix) {
		return "", false
	}
	target := strings.TrimSuffix(name[1:], placeholderSuffix)
	return target, target != ""
}

func fileExists(p string) (bool, error) {
	_, err := os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (d *Drive) IsCloudAvailable(context.Context) bool {
	fi, err := os.Stat(d.root)
	return err == nil && fi.IsDir()
}

func (d *Drive) Exists(_ context.Context, key string) (bool, error) {
	p, err := d.abs(key)
	if err != nil {
		return false, err
	}
	ok, err := fileExists(p)
	if err != nil || ok {
		return ok, err
	}
	return fileExists(placeholderPath(p))
}

func (d *Drive) Mkdir(_ context.Context, dir string) error {
	p, err := d.abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

func (d *Drive) Readdir(_ context.Context, dir string) ([]Entry, error) {
	p, err := d.abs(dir)
	if err != nil {
		return nil, err
	}

	items, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", dir, err)
	}

	byName := make(map[string]Entry, len(items))
	for _, it := range items {
		if it.IsDir() {
			continue
		}
		info, err := it.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}

		name := it.Name()
		if target, ok := realName(name); ok {
			if _, seen := byName[target]; !seen {
				byName[target] = Entry{Name: target, ModTime: info.ModTime(), Placeholder: true}
			}
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		byName[name] = Entry{Name: name, ModTime: info.ModTime()}
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// notFound maps a missing file to ErrNotExist or, when only a placeholder is
// present, to ErrNotMaterialized.
func (d *Drive) notFound(key, p string) error {
	if ok, _ := fileExists(placeholderPath(p)); ok {
		return fmt.Errorf("%w: %s", ErrNotMaterialized, key)
	}
	return fmt.Errorf("%w: %s", ErrNotExist, key)
}

func (d *Drive) ReadFile(_ context.Context, key string) ([]byte, error) {
	p, err := d.abs(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, d.notFound(key, p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (d *Drive) WriteFile(_ context.Context, key string, data []byte) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return fmt.Errorf("mkdir for %s: %w", key, err)
	}
	if err := filex.WriteFileAtomic(p, data, 0o660); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (d *Drive) Unlink(_ context.Context, key string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.Remove(placeholderPath(p))
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, key)
		}
	}
	if err != nil {
		return fmt.Errorf("unlink %s: %w", key, err)
	}
	return nil
}

func (d *Drive) UploadFile(_ context.Context, key, localPath string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := filex.CopyFile(p, localPath); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (d *Drive) DownloadFile(_ context.Context, key, localPath string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	ok, err := fileExists(p)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	if !ok {
		return d.notFound(key, p)
	}
	if err := filex.CopyFile(localPath, p); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// TriggerSync materializes a placeholder by running the configured command
// and waiting until the real file shows up.
func (d *Drive) TriggerSync(ctx context.Context, key string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	if ok, err := fileExists(p); err != nil || ok {
		return err
	}

	ph := placeholderPath(p)
	if ok, err := fileExists(ph); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrNotExist, key)
	}

	if len(d.materialize) == 0 {
		return fmt.Errorf("%w: %s: no materialize command configured", ErrNotMaterialized, key)
	}

	ctx, cancel := context.WithTimeout(ctx, d.materializeTimeout)
	defer cancel()

	name, args := d.commandFor(ph)
	if err := d.runCommand(ctx, name, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotMaterialized, key, err)
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		if ok, _ := fileExists(p); ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrNotMaterialized, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *Drive) commandFor(placeholder string) (string, []string) {
	args := slices.Clone(d.materialize[1:])
	substituted := false
	for i, a := range args {
		if strings.Contains(a, pathToken) {
			args[i] = strings.ReplaceAll(a, pathToken, placeholder)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, placeholder)
	}
	return d.materialize[0], args
}
