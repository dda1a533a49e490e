package remote

import "errors"

var (
	// ErrNotExist is returned when a key has no object.
	ErrNotExist = errors.New("remote object does not exist")
	// ErrCloudUnavailable is returned when the cloud account or root cannot
	// be reached.
	ErrCloudUnavailable = errors.New("cloud is not available")
	// ErrNotMaterialized is returned when a placeholder could not be turned
	// into a local file in time.
	ErrNotMaterialized = errors.New("remote object is not materialized")
	// ErrInvalidKey is returned for keys that escape the sync root.
	ErrInvalidKey = errors.New("invalid remote key")
	// ErrObjectTooLarge is returned for record objects over MaxObjectSize.
	ErrObjectTooLarge = errors.New("remote object too large")
)
