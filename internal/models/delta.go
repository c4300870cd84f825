// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package models

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// DeltaEvent is a normalized incremental update pushed from the backend.
// Every numeric field is a delta to be added to the aggregates, never an
// absolute value.
//
// The push channel carries two historical schemas: a flat map of
// vehicle/violation type counts, and a camera-keyed map of sub-counts.
// ParseDelta folds both into this one shape so the reconciler never sees
// the difference. Schema is the optional version tag; it is parsed and
// preserved but not yet dispatched on.
type DeltaEvent struct {
	Schema   string
	CameraSN string
	Location string
	Hour     *int
	In       int64
	Out      int64

	// TypeCounts holds flat per-type deltas, e.g. {"car": 3, "speeding": 1}.
	TypeCounts map[string]int64

	// CameraCounts holds camera-keyed sub-type deltas,
	// e.g. {"CAM-0012": {"redLight": 2}}.
	CameraCounts map[string]map[string]int64
}

// FieldError records a single malformed field skipped during delta parsing.
// One bad field never aborts the rest of the message.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

// Empty reports whether the delta carries no usable change.
func (d *DeltaEvent) Empty() bool {
	return d.In == 0 && d.Out == 0 &&
		len(d.TypeCounts) == 0 && len(d.CameraCounts) == 0 &&
		d.Hour == nil
}

// TypeTotal returns the sum of all flat per-type deltas.
func (d *DeltaEvent) TypeTotal() int64 {
	var total int64
	for _, n := range d.TypeCounts {
		total += n
	}
	return total
}

// rawDelta mirrors the wire envelope.
type rawDelta struct {
	Schema      string                     `json:"schema"`
	DataChanges map[string]json.RawMessage `json:"dataChanges"`
}

// Well-known dataChanges keys that are carried as delta metadata rather
// than as counters.
const (
	fieldHour     = "hour"
	fieldLocation = "location"
	fieldInTotal  = "inTotal"
	fieldOutTotal = "outTotal"
)

// cameraKeys are the aliases different screens used for the camera
// identifier field.
var cameraKeys = map[string]bool{
	"camera":   true,
	"cameraSn": true,
	"cameraSN": true,
}

// ParseDelta decodes a push payload into a normalized DeltaEvent.
// Malformed fields are skipped and reported individually; the returned
// event contains every field that did parse. A nil event is returned only
// when the envelope itself cannot be decoded.
func ParseDelta(payload []byte) (*DeltaEvent, []FieldError) {
	var raw rawDelta
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, []FieldError{{Field: "dataChanges", Err: err}}
	}

	event := &DeltaEvent{Schema: raw.Schema}
	var fieldErrs []FieldError

	// Deterministic field order keeps error reporting stable.
	keys := make([]string, 0, len(raw.DataChanges))
	for k := range raw.DataChanges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw.DataChanges[key]
		if err := event.applyField(key, value); err != nil {
			fieldErrs = append(fieldErrs, FieldError{Field: key, Err: err})
		}
	}
	return event, fieldErrs
}

func (d *DeltaEvent) applyField(key string, value json.RawMessage) error {
	switch {
	case key == fieldHour:
		var hour int
		if err := json.Unmarshal(value, &hour); err != nil {
			return err
		}
		if hour < 0 || hour > 23 {
			return fmt.Errorf("hour %d out of range", hour)
		}
		d.Hour = &hour
		return nil

	case key == fieldLocation:
		return json.Unmarshal(value, &d.Location)

	case cameraKeys[key]:
		// A bare string camera field tags the whole delta.
		var sn string
		if err := json.Unmarshal(value, &sn); err == nil {
			d.CameraSN = sn
			return nil
		}
		return d.applyCameraMap(key, value)

	case key == fieldInTotal:
		return json.Unmarshal(value, &d.In)

	case key == fieldOutTotal:
		return json.Unmarshal(value, &d.Out)

	default:
		// Object values are camera-keyed sub-counts; numbers are flat
		// type counts. This structural sniffing is what the two wire
		// schemas require (see DeltaEvent doc).
		if len(value) > 0 && value[0] == '{' {
			return d.applyCameraMap(key, value)
		}
		var n int64
		if err := json.Unmarshal(value, &n); err != nil {
			return err
		}
		if d.TypeCounts == nil {
			d.TypeCounts = make(map[string]int64)
		}
		d.TypeCounts[key] += n
		return nil
	}
}

func (d *DeltaEvent) applyCameraMap(camera string, value json.RawMessage) error {
	var sub map[string]flexInt
	if err := json.Unmarshal(value, &sub); err != nil {
		return err
	}
	if d.CameraCounts == nil {
		d.CameraCounts = make(map[string]map[string]int64)
	}
	bucket := d.CameraCounts[camera]
	if bucket == nil {
		bucket = make(map[string]int64, len(sub))
		d.CameraCounts[camera] = bucket
	}
	for k, n := range sub {
		bucket[k] += int64(n)
	}
	return nil
}

// CombineDeltas merges two deltas into one whose application is equivalent
// to applying both in sequence. Metadata fields (camera, location, hour)
// must agree or be unset on one side; counters add.
func CombineDeltas(a, b DeltaEvent) DeltaEvent {
	out := DeltaEvent{
		Schema:   firstNonEmpty(a.Schema, b.Schema),
		CameraSN: firstNonEmpty(a.CameraSN, b.CameraSN),
		Location: firstNonEmpty(a.Location, b.Location),
		In:       a.In + b.In,
		Out:      a.Out + b.Out,
	}
	if a.Hour != nil {
		h := *a.Hour
		out.Hour = &h
	} else if b.Hour != nil {
		h := *b.Hour
		out.Hour = &h
	}
	for _, src := range []map[string]int64{a.TypeCounts, b.TypeCounts} {
		for k, n := range src {
			if out.TypeCounts == nil {
				out.TypeCounts = make(map[string]int64)
			}
			out.TypeCounts[k] += n
		}
	}
	for _, src := range []map[string]map[string]int64{a.CameraCounts, b.CameraCounts} {
		for camera, sub := range src {
			if out.CameraCounts == nil {
				out.CameraCounts = make(map[string]map[string]int64)
			}
			bucket := out.CameraCounts[camera]
			if bucket == nil {
				bucket = make(map[string]int64, len(sub))
				out.CameraCounts[camera] = bucket
			}
			for k, n := range sub {
				bucket[k] += n
			}
		}
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
