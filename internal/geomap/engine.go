// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"sync"
	"time"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
	"github.com/opslens/camgrid/internal/models"
)

// Filter narrows the camera batch the engine renders. Zero values match
// everything.
type Filter struct {
	Type       models.CameraType `json:"type,omitempty"`
	Region     string            `json:"region,omitempty"`
	CameraCode string            `json:"cameraCode,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Type == "" && f.Region == "" && f.CameraCode == ""
}

// Snapshot is one published state of the visible marker set. Slices are
// owned by the receiver; the engine never mutates a published snapshot.
type Snapshot struct {
	Level    ZoomLevel
	Markers  []models.MarkerData
	Clusters []models.ClusterMarker
	MaxCount int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithInvalidate registers a hook invoked on every zoom-level transition,
// used to flush the composited-icon cache.
func WithInvalidate(fn func()) Option {
	return func(e *Engine) { e.invalidate = fn }
}

// WithListener registers a callback invoked after each rebuild with the
// freshly published snapshot.
func WithListener(fn func(Snapshot)) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, fn) }
}

// Engine owns the visible marker set. Camera batches, zoom changes, and
// filter changes all funnel into a serialized rebuild that swaps the
// visible slice atomically; the previous slice is never spliced in place,
// so readers always observe a consistent set.
type Engine struct {
	mu         sync.Mutex
	thresholds Thresholds
	debounce   time.Duration
	builder    *Builder

	cameras []models.CameraLocation
	filter  Filter

	zoom        float64
	pendingZoom float64
	level       ZoomLevel
	gridDeg     float64
	built       bool

	visible  []models.MarkerData
	clusters []models.ClusterMarker
	maxCount int64

	timer      *time.Timer
	invalidate func()
	listeners  []func(Snapshot)
}

// NewEngine creates an engine. A zero debounce applies zoom changes
// synchronously, which tests rely on.
func NewEngine(thresholds Thresholds, debounce time.Duration, builder *Builder, opts ...Option) *Engine {
	if builder == nil {
		builder = NewBuilder(nil, "")
	}
	e := &Engine{
		thresholds: thresholds,
		debounce:   debounce,
		builder:    builder,
		level:      ZoomLow,
		gridDeg:    GridSizeFor(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCameras replaces the engine's camera batch. Records with invalid
// coordinates are dropped here, before any marker set can include them.
func (e *Engine) SetCameras(recs []models.CameraLocation) {
	e.mu.Lock()
	e.cameras = FilterValid(recs)
	snap := e.rebuildLocked(false)
	e.mu.Unlock()
	e.publish(snap)
}

// SetFilter swaps the active filter and rebuilds from the current batch.
func (e *Engine) SetFilter(f Filter) {
	e.mu.Lock()
	e.filter = f
	snap := e.rebuildLocked(false)
	e.mu.Unlock()
	e.publish(snap)
}

// Cameras returns a copy of the current validated camera batch.
func (e *Engine) Cameras() []models.CameraLocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CameraLocation, len(e.cameras))
	copy(out, e.cameras)
	return out
}

// Filter returns the active filter.
func (e *Engine) Filter() Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// SetZoom records a zoom change. Changes are coalesced over the debounce
// window so a drag gesture triggers one rebuild, not one per frame.
func (e *Engine) SetZoom(zoom float64) {
	e.mu.Lock()
	e.pendingZoom = zoom
	if e.debounce <= 0 {
		snap := e.applyZoomLocked()
		e.mu.Unlock()
		e.publish(snap)
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.flushZoom)
	e.mu.Unlock()
}

// flushZoom runs on the debounce timer with the last pending zoom value;
// superseded intermediate values were overwritten and never rebuild.
func (e *Engine) flushZoom() {
	e.mu.Lock()
	snap := e.applyZoomLocked()
	e.mu.Unlock()
	e.publish(snap)
}

// applyZoomLocked commits the pending zoom. Rebuilds happen only when the
// zoom level or the low-zoom grid size actually changes.
func (e *Engine) applyZoomLocked() *Snapshot {
	e.zoom = e.pendingZoom
	newLevel := e.thresholds.LevelFor(e.zoom)
	newGrid := GridSizeFor(e.zoom)

	levelChanged := newLevel != e.level
	gridChanged := newLevel == ZoomLow && newGrid != e.gridDeg
	e.level = newLevel
	e.gridDeg = newGrid

	if e.built && !levelChanged && !gridChanged {
		return nil
	}
	if levelChanged && e.invalidate != nil {
		// Composited icons are sized per level; stale entries must not
		// survive a transition.
		e.invalidate()
	}
	return e.rebuildLocked(levelChanged)
}

// rebuildLocked recomputes the visible set for the current level and
// swaps it in as one new slice.
func (e *Engine) rebuildLocked(levelChanged bool) *Snapshot {
	cams := e.filteredLocked()

	var visible []models.MarkerData
	var clusters []models.ClusterMarker

	switch e.level {
	case ZoomLow:
		clusters = ClusterCameras(cams, e.gridDeg, e.builder.RegionFor)
		visible = clusterMarkerData(clusters)
	case ZoomMedium:
		visible = e.builder.CameraMarkers(cams)
	case ZoomHigh:
		visible = e.builder.IndividualMarkers(cams)
	}

	var maxCount int64
	for i := range visible {
		if visible[i].Count > maxCount {
			maxCount = visible[i].Count
		}
	}

	e.visible = visible
	e.clusters = clusters
	e.maxCount = maxCount
	e.built = true

	metrics.MarkerRebuilds.WithLabelValues(e.level.String()).Inc()
	metrics.ClustersBuilt.Set(float64(len(clusters)))
	logging.Debug().
		Stringer("level", e.level).
		Int("markers", len(visible)).
		Int("clusters", len(clusters)).
		Bool("level_changed", levelChanged).
		Msg("visible marker set rebuilt")

	snap := e.snapshotLocked()
	return &snap
}

// filteredLocked applies the active filter to the camera batch.
func (e *Engine) filteredLocked() []models.CameraLocation {
	if e.filter.IsZero() {
		return e.cameras
	}
	out := make([]models.CameraLocation, 0, len(e.cameras))
	for _, cam := range e.cameras {
		if e.filter.Type != "" && cam.Type != e.filter.Type {
			continue
		}
		if e.filter.Region != "" && e.builder.RegionFor(cam.Lat) != e.filter.Region {
			continue
		}
		if e.filter.CameraCode != "" && cam.CameraCode != e.filter.CameraCode {
			continue
		}
		out = append(out, cam)
	}
	return out
}

// Snapshot returns the current visible state. Returned slices are copies.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	markers := make([]models.MarkerData, len(e.visible))
	copy(markers, e.visible)
	clusters := make([]models.ClusterMarker, len(e.clusters))
	copy(clusters, e.clusters)
	return Snapshot{
		Level:    e.level,
		Markers:  markers,
		Clusters: clusters,
		MaxCount: e.maxCount,
	}
}

// Level returns the current zoom level.
func (e *Engine) Level() ZoomLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// MaxVisibleCount returns the largest marker count in the visible set,
// the denominator for low-zoom icon scaling.
func (e *Engine) MaxVisibleCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxCount
}

// Close stops any pending debounce timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// publish notifies listeners outside the engine lock.
func (e *Engine) publish(snap *Snapshot) {
	if snap == nil {
		return
	}
	for _, fn := range e.listeners {
		fn(*snap)
	}
}
