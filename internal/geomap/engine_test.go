// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"testing"
	"time"

	"github.com/opslens/camgrid/internal/models"
)

func testCameras() []models.CameraLocation {
	return []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88, CameraCode: "HN-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 10},
		{Lat: 21.02, Lng: 105.80, CameraCode: "HN-2", Type: models.CameraTypeTraffic, TotalTrafficDetected: 5},
		{Lat: 10.77, Lng: 106.70, CameraCode: "HCMC-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 20},
	}
}

// newTestEngine builds an engine with synchronous zoom handling.
func newTestEngine(opts ...Option) *Engine {
	return NewEngine(Thresholds{Medium: 9, High: 14}, 0, testBuilder(), opts...)
}

func TestEngine_LowZoomClusters(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	defer e.Close()
	e.SetCameras(testCameras())

	snap := e.Snapshot()
	if snap.Level != ZoomLow {
		t.Fatalf("level = %v, want low", snap.Level)
	}
	if len(snap.Clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(snap.Clusters))
	}
	if snap.Clusters[0].TotalEvents != 15 || snap.Clusters[1].TotalEvents != 20 {
		t.Errorf("cluster totals = %d, %d, want 15, 20",
			snap.Clusters[0].TotalEvents, snap.Clusters[1].TotalEvents)
	}
	if snap.MaxCount != 20 {
		t.Errorf("MaxCount = %d, want 20", snap.MaxCount)
	}
}

func TestEngine_MediumZoomOneMarkerPerCamera(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	defer e.Close()
	e.SetCameras(testCameras())
	e.SetZoom(10)

	snap := e.Snapshot()
	if snap.Level != ZoomMedium {
		t.Fatalf("level = %v, want medium", snap.Level)
	}
	if len(snap.Markers) != 3 {
		t.Errorf("got %d markers, want one per camera (3)", len(snap.Markers))
	}
	if len(snap.Clusters) != 0 {
		t.Errorf("medium zoom carried %d clusters, want none", len(snap.Clusters))
	}
}

func TestEngine_HighZoomExpandsGroups(t *testing.T) {
	t.Parallel()

	cams := testCameras()
	cams[0].IndividualCameras = []models.CameraLocation{
		{Lat: 21.031, Lng: 105.881, CameraCode: "HN-1a", TotalTrafficDetected: 6},
		{Lat: 21.032, Lng: 105.882, CameraCode: "HN-1b", TotalTrafficDetected: 4},
	}

	e := newTestEngine()
	defer e.Close()
	e.SetCameras(cams)
	e.SetZoom(15)

	snap := e.Snapshot()
	if snap.Level != ZoomHigh {
		t.Fatalf("level = %v, want high", snap.Level)
	}
	if len(snap.Markers) != 4 {
		t.Errorf("got %d markers, want 4 (group expanded)", len(snap.Markers))
	}
}

func TestEngine_InvalidCoordinatesDropped(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	defer e.Close()
	e.SetCameras([]models.CameraLocation{
		{Lat: 0, Lng: 0, CameraCode: "BAD", Type: models.CameraTypeTraffic, TotalTrafficDetected: 999},
		{Lat: 21.03, Lng: 105.88, CameraCode: "OK", Type: models.CameraTypeTraffic, TotalTrafficDetected: 1},
	})

	snap := e.Snapshot()
	if len(snap.Clusters) != 1 {
		t.Fatalf("got %d clusters, want 1 (sentinel record dropped)", len(snap.Clusters))
	}
	if snap.Clusters[0].TotalEvents != 1 {
		t.Errorf("cluster total = %d, want 1", snap.Clusters[0].TotalEvents)
	}
}

func TestEngine_FilterByType(t *testing.T) {
	t.Parallel()

	cams := testCameras()
	cams = append(cams, models.CameraLocation{
		Lat: 16.06, Lng: 108.22, CameraCode: "DN-1",
		Type: models.CameraTypePerson, TotalPersonDetected: 7,
	})

	e := newTestEngine()
	defer e.Close()
	e.SetCameras(cams)
	e.SetZoom(10)

	e.SetFilter(Filter{Type: models.CameraTypePerson})
	snap := e.Snapshot()
	if len(snap.Markers) != 1 || snap.Markers[0].Label != "DN-1" {
		t.Fatalf("filtered markers = %+v, want only DN-1", snap.Markers)
	}

	// Clearing the filter restores the full batch without a new SetCameras.
	e.SetFilter(Filter{})
	if got := len(e.Snapshot().Markers); got != 4 {
		t.Errorf("after clearing filter got %d markers, want 4", got)
	}
}

func TestEngine_ZoomDebounceCoalesces(t *testing.T) {
	t.Parallel()

	var published int
	done := make(chan struct{}, 8)
	e := NewEngine(Thresholds{Medium: 9, High: 14}, 30*time.Millisecond, testBuilder(),
		WithListener(func(Snapshot) {
			published++
			done <- struct{}{}
		}))
	defer e.Close()

	e.SetCameras(testCameras())
	<-done
	published = 0

	// A zoom drag: many intermediate values inside one debounce window.
	for _, z := range []float64{3, 5, 7, 10, 12} {
		e.SetZoom(z)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced rebuild never fired")
	}
	if published != 1 {
		t.Errorf("published %d snapshots for one gesture, want 1", published)
	}
	if e.Level() != ZoomMedium {
		t.Errorf("level = %v, want medium (last zoom wins)", e.Level())
	}
}

func TestEngine_NoRebuildWithinSameLevel(t *testing.T) {
	t.Parallel()

	var published int
	e := NewEngine(Thresholds{Medium: 9, High: 14}, 0, testBuilder(),
		WithListener(func(Snapshot) { published++ }))
	defer e.Close()

	e.SetCameras(testCameras())
	e.SetZoom(10)
	base := published

	// 10 → 12 stays medium; no grid is in play above low zoom.
	e.SetZoom(12)
	if published != base {
		t.Errorf("same-level zoom change published %d extra snapshots", published-base)
	}
}

func TestEngine_InvalidateOnLevelTransition(t *testing.T) {
	t.Parallel()

	var invalidations int
	e := NewEngine(Thresholds{Medium: 9, High: 14}, 0, testBuilder(),
		WithInvalidate(func() { invalidations++ }))
	defer e.Close()

	e.SetCameras(testCameras())
	e.SetZoom(10) // low -> medium
	e.SetZoom(15) // medium -> high
	e.SetZoom(16) // high -> high, no transition

	if invalidations != 2 {
		t.Errorf("invalidate hook ran %d times, want 2", invalidations)
	}
}

func TestEngine_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	defer e.Close()
	e.SetCameras(testCameras())

	snap := e.Snapshot()
	if len(snap.Clusters) == 0 {
		t.Fatal("no clusters to mutate")
	}
	snap.Clusters[0].TotalEvents = -1

	if e.Snapshot().Clusters[0].TotalEvents == -1 {
		t.Error("mutating a returned snapshot changed engine state")
	}
}

func TestThresholds_LevelFor(t *testing.T) {
	t.Parallel()

	th := Thresholds{Medium: 9, High: 14}
	tests := []struct {
		zoom float64
		want ZoomLevel
	}{
		{zoom: 0, want: ZoomLow},
		{zoom: 8.99, want: ZoomLow},
		{zoom: 9, want: ZoomMedium},
		{zoom: 13.99, want: ZoomMedium},
		{zoom: 14, want: ZoomHigh},
		{zoom: 22, want: ZoomHigh},
	}
	for _, tt := range tests {
		if got := th.LevelFor(tt.zoom); got != tt.want {
			t.Errorf("LevelFor(%v) = %v, want %v", tt.zoom, got, tt.want)
		}
	}
}
