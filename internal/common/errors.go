// Package common defines shared constants and sentinel errors used across
// the store, the remote channel and the CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Store lifecycle errors.
	ErrNotHydrated = errors.New("store is not hydrated yet")

	// Validation errors.
	ErrorValidation       = errors.New("validation error")
	ErrDivergentDuplicate = errors.New("divergent active duplicate")

	// Sync errors.
	ErrCloudSyncDisabled = errors.New("cloud sync is disabled")
)
