// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"testing"

	"github.com/opslens/camgrid/internal/models"
)

func TestClusterCameras_GridMerging(t *testing.T) {
	t.Parallel()

	// Two northern cameras share a 2-degree cell; the southern one is on
	// its own. Positions and counts mirror the two-city layout the
	// dashboard was built around.
	cams := []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88, CameraCode: "HN-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 10},
		{Lat: 21.02, Lng: 105.80, CameraCode: "HN-2", Type: models.CameraTypeTraffic, TotalTrafficDetected: 5},
		{Lat: 10.77, Lng: 106.70, CameraCode: "HCMC-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 20},
	}

	clusters := ClusterCameras(cams, 2.0, nil)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}

	north := clusters[0]
	if north.TotalEvents != 15 || north.CameraCount != 2 {
		t.Errorf("north cluster = %d events / %d cameras, want 15/2", north.TotalEvents, north.CameraCount)
	}
	// Anchor is the first member's exact position, not a centroid.
	if north.Position.Lat != 21.03 || north.Position.Lng != 105.88 {
		t.Errorf("north anchor = %+v, want first member (21.03, 105.88)", north.Position)
	}

	south := clusters[1]
	if south.TotalEvents != 20 || south.CameraCount != 1 {
		t.Errorf("south cluster = %d events / %d cameras, want 20/1", south.TotalEvents, south.CameraCount)
	}
	if south.Position.Lat != 10.77 || south.Position.Lng != 106.70 {
		t.Errorf("south anchor = %+v", south.Position)
	}
}

func TestClusterCameras_FinerGridNeverMergesMore(t *testing.T) {
	t.Parallel()

	// Every pair sits in distinct 0.1-degree cells; the two Hanoi
	// cameras still share cells at 2 degrees and coarser.
	cams := []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88, Count: 1},
		{Lat: 21.02, Lng: 105.61, Count: 1},
		{Lat: 20.10, Lng: 105.10, Count: 1},
		{Lat: 10.77, Lng: 106.70, Count: 1},
		{Lat: 10.01, Lng: 106.01, Count: 1},
	}

	prev := 0
	for _, cellDeg := range []float64{8, 4, 2, 1, 0.5, 0.1} {
		got := len(ClusterCameras(cams, cellDeg, nil))
		if got < prev {
			t.Fatalf("grid %v produced %d clusters, fewer than coarser grid's %d", cellDeg, got, prev)
		}
		prev = got
	}
	if prev != len(cams) {
		t.Errorf("finest grid produced %d clusters, want one per camera (%d)", prev, len(cams))
	}
}

func TestClusterCameras_RegionNaming(t *testing.T) {
	t.Parallel()

	regionOf := func(lat float64) string {
		if lat > 16.5 {
			return "North"
		}
		return "South"
	}
	cams := []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88},
		{Lat: 10.77, Lng: 106.70},
	}

	clusters := ClusterCameras(cams, 2.0, regionOf)
	if clusters[0].Region != "North" || clusters[1].Region != "South" {
		t.Errorf("regions = %q, %q", clusters[0].Region, clusters[1].Region)
	}
}

func TestClusterCameras_LongitudeWrap(t *testing.T) {
	t.Parallel()

	// 190 east is 170 west; both sides of the wrap share a cell.
	cams := []models.CameraLocation{
		{Lat: 10, Lng: 190.5, Count: 1},
		{Lat: 10, Lng: -169.5, Count: 1},
	}
	clusters := ClusterCameras(cams, 2.0, nil)
	if len(clusters) != 1 {
		t.Errorf("wrapped longitudes produced %d clusters, want 1", len(clusters))
	}
}

func TestClusterCameras_DeterministicOrder(t *testing.T) {
	t.Parallel()

	cams := []models.CameraLocation{
		{Lat: 10.77, Lng: 106.70, CameraCode: "A"},
		{Lat: 21.03, Lng: 105.88, CameraCode: "B"},
		{Lat: 10.01, Lng: 106.01, CameraCode: "C"},
	}

	first := ClusterCameras(cams, 2.0, nil)
	for i := 0; i < 10; i++ {
		again := ClusterCameras(cams, 2.0, nil)
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d clusters, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].Position != first[j].Position {
				t.Fatalf("run %d cluster %d at %+v, want %+v", i, j, again[j].Position, first[j].Position)
			}
		}
	}
}

func TestGridSizeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		zoom float64
		want float64
	}{
		{zoom: 0, want: 2.0},
		{zoom: 5.9, want: 2.0},
		{zoom: 6, want: 1.0},
		{zoom: 8, want: 0.5},
		{zoom: 10, want: 0.1},
		{zoom: 22, want: 0.1},
	}
	for _, tt := range tests {
		if got := GridSizeFor(tt.zoom); got != tt.want {
			t.Errorf("GridSizeFor(%v) = %v, want %v", tt.zoom, got, tt.want)
		}
	}
}
