// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package reconciler maintains the dashboard's aggregate counters by
// folding incremental telemetry deltas into the last full snapshot. It
// never refetches on a delta: each event mutates only the buckets it
// names, filtered deltas are discarded whole, and readers get deep
// copies.
package reconciler

import (
	"sync"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
	"github.com/opslens/camgrid/internal/models"
)

// Filter gates which deltas reach the aggregates. Zero values match
// everything. While a camera or location filter is active, a delta
// attributed elsewhere (or carrying no attribution at all) is discarded
// whole: partial application would desynchronize summary and charts.
type Filter struct {
	CameraSN string `json:"cameraSn,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.CameraSN == "" && f.Location == ""
}

const defaultReplayLimit = 4096

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithReplayLimit bounds the retained delta log used to rebuild
// aggregates after a filter change.
func WithReplayLimit(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.replayLimit = n
		}
	}
}

// Reconciler folds deltas into an aggregate ledger. All mutation is
// serialized under one mutex; change listeners run outside it with a
// deep copy.
type Reconciler struct {
	mu     sync.Mutex
	agg    Aggregates
	filter Filter

	// replay holds deltas received since the last snapshot reset,
	// including ones the active filter discarded, so a filter change can
	// re-derive the ledger without a refetch.
	replay      []*models.DeltaEvent
	replayLimit int

	listeners []func(Aggregates)
}

// New creates an empty reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		agg:         newAggregates(),
		replayLimit: defaultReplayLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers a listener invoked with a copy of the aggregates
// after every mutation. Register before the stream starts.
func (r *Reconciler) OnChange(fn func(Aggregates)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Filter returns the active filter.
func (r *Reconciler) Filter() Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// Snapshot returns a deep copy of the current aggregates.
func (r *Reconciler) Snapshot() Aggregates {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agg.Copy()
}

// ResetFromCameras rebuilds the ledger baseline from a full camera
// snapshot, then replays the retained delta log on top of it. The
// replay log survives the reset: those deltas arrived after the
// snapshot was cut and still apply.
func (r *Reconciler) ResetFromCameras(cams []models.CameraLocation) {
	r.mu.Lock()
	r.agg = baselineFrom(cams)
	for _, d := range r.replay {
		if r.admitLocked(d) {
			r.applyLocked(d)
		}
	}
	snap := r.agg.Copy()
	listeners := r.listeners
	r.mu.Unlock()

	logging.Debug().Int("cameras", len(cams)).Msg("aggregates reset from snapshot")
	notify(listeners, snap)
}

// SetFilter swaps the active filter and re-derives the ledger: baseline
// from the provided camera snapshot, then the retained delta log
// replayed under the new gate. No upstream refetch happens.
func (r *Reconciler) SetFilter(f Filter, cams []models.CameraLocation) {
	r.mu.Lock()
	r.filter = f
	r.agg = baselineFrom(cams)
	for _, d := range r.replay {
		if r.admitLocked(d) {
			r.applyLocked(d)
		}
	}
	snap := r.agg.Copy()
	listeners := r.listeners
	r.mu.Unlock()

	notify(listeners, snap)
}

// Apply folds one delta into the ledger. Empty deltas and deltas gated
// out by the active filter are discarded whole; a discarded delta still
// enters the replay log so a later filter change can recover it.
func (r *Reconciler) Apply(d *models.DeltaEvent) {
	if d == nil || d.Empty() {
		metrics.DeltasDiscarded.WithLabelValues("empty").Inc()
		return
	}

	r.mu.Lock()
	r.recordLocked(d)
	if !r.admitLocked(d) {
		r.mu.Unlock()
		metrics.DeltasDiscarded.WithLabelValues("filter_mismatch").Inc()
		return
	}
	r.applyLocked(d)
	snap := r.agg.Copy()
	listeners := r.listeners
	r.mu.Unlock()

	metrics.DeltasApplied.Inc()
	notify(listeners, snap)
}

// recordLocked appends a delta to the bounded replay log, dropping the
// oldest entry when full.
func (r *Reconciler) recordLocked(d *models.DeltaEvent) {
	if len(r.replay) >= r.replayLimit {
		copy(r.replay, r.replay[1:])
		r.replay[len(r.replay)-1] = nil
		r.replay = r.replay[:len(r.replay)-1]
	}
	r.replay = append(r.replay, d)
}

// admitLocked applies the filter gate to a whole delta.
func (r *Reconciler) admitLocked(d *models.DeltaEvent) bool {
	if r.filter.CameraSN != "" && !deltaMentionsCamera(d, r.filter.CameraSN) {
		return false
	}
	if r.filter.Location != "" && d.Location != r.filter.Location {
		return false
	}
	return true
}

// applyLocked mutates only the buckets the delta names.
func (r *Reconciler) applyLocked(d *models.DeltaEvent) {
	// Type-keyed counts feed the summary and the type breakdown.
	for k, n := range d.TypeCounts {
		r.agg.ByType[k] += n
		r.agg.Total += n
	}

	// Camera-keyed counts feed per-camera buckets, created at zero
	// baseline when the camera is new.
	for sn, sub := range d.CameraCounts {
		bucket := r.agg.camera(sn)
		for k, n := range sub {
			bucket.SubCounts[k] += n
			bucket.Total += n
			r.agg.Total += n
		}
	}

	// In/out flow feeds the summary and, when present, the hour slot and
	// the location bucket. Hourly buckets always accumulate; whether
	// they render is the chart adapter's call.
	if d.In != 0 || d.Out != 0 {
		r.agg.In += d.In
		r.agg.Out += d.Out
		r.agg.Total += d.In + d.Out

		if d.Hour != nil {
			r.agg.Hourly[*d.Hour].In += d.In
			r.agg.Hourly[*d.Hour].Out += d.Out
		}
		if d.Location != "" {
			bucket := r.agg.location(d.Location)
			bucket.In += d.In
			bucket.Out += d.Out
			bucket.Total += d.In + d.Out
		}
	}
}

// deltaMentionsCamera reports whether a delta is attributed to sn,
// either directly or via a camera-keyed count map.
func deltaMentionsCamera(d *models.DeltaEvent, sn string) bool {
	if d.CameraSN == sn {
		return true
	}
	_, ok := d.CameraCounts[sn]
	return ok
}

// baselineFrom derives the ledger baseline from a camera snapshot:
// per-type totals from each camera's headline count, per-camera buckets
// from camera codes. In/out flow and hourly slots start at zero; the
// snapshot does not carry them.
func baselineFrom(cams []models.CameraLocation) Aggregates {
	agg := newAggregates()
	for i := range cams {
		cam := &cams[i]
		n := cam.CountForType()
		agg.Total += n
		agg.ByType[string(cam.Type)] += n
		if cam.CameraCode != "" {
			bucket := agg.camera(cam.CameraCode)
			bucket.Total += n
		}
		if cam.Address != "" {
			bucket := agg.location(cam.Address)
			bucket.Total += n
		}
	}
	return agg
}

func notify(listeners []func(Aggregates), snap Aggregates) {
	for _, fn := range listeners {
		fn(snap)
	}
}
