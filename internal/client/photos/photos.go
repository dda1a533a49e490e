// Package photos keeps progress photos next to their records: a local photo
// directory keyed by clientId, and best-effort transfer of those files over
// the remote channel. Photo failures are reported to the caller, which logs
// them; they never affect record sync.
package photos

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/remote"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
	"github.com/dmitrijs2005/bodykeeper/internal/filex"
)

// Store is the local photo directory, <data_dir>/photos/<clientId>.jpg.
type Store struct {
	dir string
}

func NewStore(dataDir string) (*Store, error) {
	dir, err := filex.EnsureDir(dataDir, common.PhotosDir)
	if err != nil {
		return nil, fmt.Errorf("photo dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// LocalPath is where the photo of clientID lives on this device.
func (s *Store) LocalPath(clientID string) string {
	return filepath.Join(s.dir, clientID+common.PhotoExt)
}

func (s *Store) Exists(clientID string) bool {
	_, err := os.Stat(s.LocalPath(clientID))
	return err == nil
}

// Import copies src into the photo directory and returns the local path.
func (s *Store) Import(clientID, src string) (string, error) {
	dst := s.LocalPath(clientID)
	if err := filex.CopyFile(dst, src); err != nil {
		return "", fmt.Errorf("import photo: %w", err)
	}
	return dst, nil
}

// Remove deletes the local photo; a missing file is not an error.
func (s *Store) Remove(clientID string) error {
	err := os.Remove(s.LocalPath(clientID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// Transfer moves photos between the local Store and a remote channel.
type Transfer struct {
	ch    remote.Channel
	local *Store
}

func NewTransfer(ch remote.Channel, local *Store) *Transfer {
	return &Transfer{ch: ch, local: local}
}

// Upload sends the photo of m. The record's PhotoURI is used when set,
// otherwise the conventional local path.
func (t *Transfer) Upload(ctx context.Context, m models.Measurement) error {
	src := m.PhotoURI
	if src == "" {
		src = t.local.LocalPath(m.ClientID)
	}
	return t.ch.UploadFile(ctx, remote.PhotoPath(m.ClientID), src)
}

// Download fetches the photo of clientID into the local Store.
func (t *Transfer) Download(ctx context.Context, clientID string) error {
	key := remote.PhotoPath(clientID)
	if err := t.ch.TriggerSync(ctx, key); err != nil {
		return err
	}
	return t.ch.DownloadFile(ctx, key, t.local.LocalPath(clientID))
}

// RemoveRemote deletes the remote photo if there is one.
func (t *Transfer) RemoveRemote(ctx context.Context, clientID string) error {
	key := remote.PhotoPath(clientID)
	ok, err := t.ch.Exists(ctx, key)
	if err != nil || !ok {
		return err
	}
	err = t.ch.Unlink(ctx, key)
	if errors.Is(err, remote.ErrNotExist) {
		return nil
	}
	return err
}

// Purge removes both copies of a garbage-collected record's photo and
// reports both failures.
func (t *Transfer) Purge(ctx context.Context, clientID string) error {
	remoteErr := t.RemoveRemote(ctx, clientID)
	localErr := t.local.Remove(clientID)
	return errors.Join(remoteErr, localErr)
}
