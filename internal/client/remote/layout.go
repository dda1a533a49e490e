package remote

import (
	"path"
	"strings"

	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

// MeasurementPath is the key of a record object.
func MeasurementPath(clientID string) string {
	return path.Join(common.MeasurementsDir, clientID+common.MeasurementExt)
}

// PhotoPath is the key of a record's photo blob.
func PhotoPath(clientID string) string {
	return path.Join(common.PhotosDir, clientID+common.PhotoExt)
}

// ClientIDFromName extracts the clientId from a record object name such as
// "0b6c...json". Hidden files, temp files and other extensions are rejected.
func ClientIDFromName(name string) (string, bool) {
	name = path.Base(name)
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	id, ok := strings.CutSuffix(name, common.MeasurementExt)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// cleanKey validates a key and returns it in canonical form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	c := path.Clean(key)
	if c == "." || path.IsAbs(c) || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidKey
	}
	return c, nil
}

// Directory keys of the remote layout.
const (
	MeasurementsDirKey = common.MeasurementsDir
	PhotosDirKey       = common.PhotosDir
)
