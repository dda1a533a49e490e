// Package services contains the application services of the bodykeeper
// client. MeasurementService is the single entry point used by the CLI: it
// validates input, computes results, mutates and persists the record store,
// and asks the syncer for a pass whenever something changed.
package services
