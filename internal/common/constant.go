// Package common contains shared constants and sentinel errors used across
// bodykeeper components.
package common

// StateKey is the key under which the record store snapshot is persisted in
// the local key-value store.
const StateKey = "bodykeeper.state"

// Remote layout. Every record lives at MeasurementsDir/<clientId>.json and
// its optional photo at PhotosDir/<clientId>.jpg.
const (
	MeasurementsDir = "measurements"
	PhotosDir       = "photos"

	MeasurementExt = ".json"
	PhotoExt       = ".jpg"
)
