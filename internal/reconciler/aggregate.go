// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package reconciler

// HourBucket is one slot of the 24-hour in/out flow arrays.
type HourBucket struct {
	In  int64 `json:"in"`
	Out int64 `json:"out"`
}

// LocationBucket accumulates flow for one named location.
type LocationBucket struct {
	Label string `json:"label"`
	In    int64  `json:"in"`
	Out   int64  `json:"out"`
	Total int64  `json:"total"`
}

// CameraBucket accumulates per-camera sub-type counts.
type CameraBucket struct {
	CameraSN  string           `json:"cameraSn"`
	Total     int64            `json:"total"`
	SubCounts map[string]int64 `json:"subCounts"`
}

// Aggregates is the reconciler's ledger: summary totals, hourly flow,
// per-type, per-location, and per-camera buckets. The reconciler owns the
// only mutable instance; everything handed out is a deep copy.
type Aggregates struct {
	Total int64 `json:"total"`
	In    int64 `json:"in"`
	Out   int64 `json:"out"`

	ByType map[string]int64 `json:"byType"`

	Hourly [24]HourBucket `json:"hourly"`

	// LocationLabels preserves insertion order for chart label stability.
	LocationLabels []string                   `json:"locationLabels"`
	ByLocation     map[string]*LocationBucket `json:"byLocation"`

	ByCamera map[string]*CameraBucket `json:"byCamera"`
}

func newAggregates() Aggregates {
	return Aggregates{
		ByType:     make(map[string]int64),
		ByLocation: make(map[string]*LocationBucket),
		ByCamera:   make(map[string]*CameraBucket),
	}
}

// Copy returns a deep copy safe to hand to readers.
func (a *Aggregates) Copy() Aggregates {
	out := *a

	out.ByType = make(map[string]int64, len(a.ByType))
	for k, v := range a.ByType {
		out.ByType[k] = v
	}

	out.LocationLabels = make([]string, len(a.LocationLabels))
	copy(out.LocationLabels, a.LocationLabels)

	out.ByLocation = make(map[string]*LocationBucket, len(a.ByLocation))
	for k, v := range a.ByLocation {
		bucket := *v
		out.ByLocation[k] = &bucket
	}

	out.ByCamera = make(map[string]*CameraBucket, len(a.ByCamera))
	for k, v := range a.ByCamera {
		bucket := CameraBucket{
			CameraSN:  v.CameraSN,
			Total:     v.Total,
			SubCounts: make(map[string]int64, len(v.SubCounts)),
		}
		for sk, sv := range v.SubCounts {
			bucket.SubCounts[sk] = sv
		}
		out.ByCamera[k] = &bucket
	}

	return out
}

// location returns the bucket for a label, creating it (and appending the
// label) when absent. New labels extend the chart's label set rather than
// dropping the data.
func (a *Aggregates) location(label string) *LocationBucket {
	if bucket, ok := a.ByLocation[label]; ok {
		return bucket
	}
	bucket := &LocationBucket{Label: label}
	a.ByLocation[label] = bucket
	a.LocationLabels = append(a.LocationLabels, label)
	return bucket
}

// camera returns the bucket for a camera, created at zero baseline when
// absent.
func (a *Aggregates) camera(sn string) *CameraBucket {
	if bucket, ok := a.ByCamera[sn]; ok {
		return bucket
	}
	bucket := &CameraBucket{CameraSN: sn, SubCounts: make(map[string]int64)}
	a.ByCamera[sn] = bucket
	return bucket
}
