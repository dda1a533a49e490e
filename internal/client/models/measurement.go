// Package models defines the client-side data model of bodykeeper: the
// measurement record that is stored locally and mirrored to the cloud, and
// the value types describing a sync pass.
package models

import (
	"maps"
	"time"
)

// Formula identifies the estimator used to compute a measurement.
type Formula string

const (
	FormulaNavy Formula = "navy"
	FormulaBMI  Formula = "bmi"
)

// Gender selects gender-specific coefficients of a formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// System is the unit system the raw inputs were entered in.
type System string

const (
	SystemMetric   System = "metric"
	SystemImperial System = "imperial"
)

// Results holds the computed outputs of a formula. Masses use the unit of
// the record's System (kg or lb).
type Results struct {
	BodyFatPercentage float64 `json:"bodyFatPercentage"`
	FatMass           float64 `json:"fatMass"`
	LeanMass          float64 `json:"leanMass"`
}

// Fields is the user-supplied payload of a new measurement.
type Fields struct {
	Formula        Formula
	Gender         Gender
	System         System
	Inputs         map[string]float64
	Results        Results
	Classification string
	HasPhoto       bool
	PhotoURI       string
}

// Measurement is the unit of sync. Payload fields never change after
// creation; only DeletedAt, SyncedAt and the photo reference move.
type Measurement struct {
	// ClientID is generated locally and is the join key with the remote
	// object and the photo blob.
	ClientID string `json:"clientId"`

	Formula        Formula            `json:"formula"`
	Gender         Gender             `json:"gender"`
	System         System             `json:"measurementSystem"`
	Inputs         map[string]float64 `json:"inputs"`
	Results        Results            `json:"results"`
	Classification string             `json:"classification"`

	// MeasuredAt is the display ordering key.
	MeasuredAt time.Time `json:"measuredAt"`
	// DeletedAt marks a tombstone when non-nil.
	DeletedAt *time.Time `json:"deletedAt"`
	// Version is stamped at creation and serves as a coarse clock.
	Version time.Time `json:"version"`
	// SyncedAt is nil while the record has changes the remote has not seen.
	SyncedAt *time.Time `json:"syncedAt"`

	HasPhoto bool   `json:"hasPhoto"`
	PhotoURI string `json:"photoUri,omitempty"`
}

// IsDeleted reports whether m is a tombstone.
func (m Measurement) IsDeleted() bool { return m.DeletedAt != nil }

// IsSynced reports whether the remote is known to hold m.
func (m Measurement) IsSynced() bool { return m.SyncedAt != nil }

// Clone returns a deep copy of m so callers can never alias store state.
func (m Measurement) Clone() Measurement {
	c := m
	if m.Inputs != nil {
		c.Inputs = maps.Clone(m.Inputs)
	}
	c.DeletedAt = cloneTime(m.DeletedAt)
	c.SyncedAt = cloneTime(m.SyncedAt)
	return c
}

// SamePayload reports whether m and o carry the same immutable payload.
// Sync bookkeeping and photo fields are ignored.
func (m Measurement) SamePayload(o Measurement) bool {
	return m.ClientID == o.ClientID &&
		m.Formula == o.Formula &&
		m.Gender == o.Gender &&
		m.System == o.System &&
		maps.Equal(m.Inputs, o.Inputs) &&
		m.Results == o.Results &&
		m.Classification == o.Classification &&
		m.MeasuredAt.Equal(o.MeasuredAt)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
