// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"testing"

	"github.com/opslens/camgrid/internal/config"
	"github.com/opslens/camgrid/internal/models"
)

func testBuilder() *Builder {
	return NewBuilder([]config.RegionBand{
		{Name: "North", MinLat: 16.5},
		{Name: "Central", MinLat: 14},
		{Name: "South", MinLat: 11},
	}, "South-Island")
}

func TestRegionFor(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	tests := []struct {
		lat  float64
		want string
	}{
		{lat: 21.03, want: "North"},
		{lat: 16.5, want: "Central"},
		{lat: 15, want: "Central"},
		{lat: 12, want: "South"},
		{lat: 10.77, want: "South-Island"},
	}
	for _, tt := range tests {
		if got := b.RegionFor(tt.lat); got != tt.want {
			t.Errorf("RegionFor(%v) = %q, want %q", tt.lat, got, tt.want)
		}
	}
}

func TestCameraMarkers_GroupEntriesNotExpanded(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	cams := []models.CameraLocation{
		{
			Lat: 21.03, Lng: 105.88, CameraCode: "GROUP-1",
			Type: models.CameraTypeTraffic, TotalTrafficDetected: 15,
			IndividualCameras: []models.CameraLocation{
				{Lat: 21.031, Lng: 105.881, CameraCode: "CAM-A", TotalTrafficDetected: 10},
				{Lat: 21.032, Lng: 105.882, CameraCode: "CAM-B", TotalTrafficDetected: 5},
			},
		},
		{Lat: 10.77, Lng: 106.70, CameraCode: "CAM-C", Type: models.CameraTypeTraffic, TotalTrafficDetected: 20},
	}

	markers := b.CameraMarkers(cams)
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want one per top-level entry (2)", len(markers))
	}
	if markers[0].Label != "GROUP-1" || markers[0].Count != 15 {
		t.Errorf("group marker = %q/%d, want GROUP-1/15", markers[0].Label, markers[0].Count)
	}
	if markers[0].Area != "North" || markers[1].Area != "South-Island" {
		t.Errorf("areas = %q, %q", markers[0].Area, markers[1].Area)
	}
}

func TestIndividualMarkers_ExpandsGroups(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	cams := []models.CameraLocation{
		{
			Lat: 21.03, Lng: 105.88, CameraCode: "GROUP-1",
			IndividualCameras: []models.CameraLocation{
				{Lat: 21.031, Lng: 105.881, CameraCode: "CAM-A"},
				{Lat: 21.032, Lng: 105.882, CameraCode: "CAM-B"},
			},
		},
		{Lat: 10.77, Lng: 106.70, CameraCode: "CAM-C"},
	}

	markers := b.IndividualMarkers(cams)
	if len(markers) != 3 {
		t.Fatalf("got %d markers, want 3 (two expanded plus one standalone)", len(markers))
	}
	labels := []string{markers[0].Label, markers[1].Label, markers[2].Label}
	want := []string{"CAM-A", "CAM-B", "CAM-C"}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("marker %d = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestBuildHierarchy(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	cams := []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88, CameraCode: "HN-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 10},
		{Lat: 21.02, Lng: 105.80, CameraCode: "HN-2", Type: models.CameraTypeTraffic, TotalTrafficDetected: 5},
		{Lat: 10.77, Lng: 106.70, CameraCode: "HCMC-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 20},
		{Lat: 0, Lng: 0, CameraCode: "BAD", TotalTrafficDetected: 999},
	}

	h := b.BuildHierarchy(cams)

	if len(h.Country) != 1 {
		t.Fatalf("country level has %d markers, want 1", len(h.Country))
	}
	if h.Country[0].Count != 35 {
		t.Errorf("country total = %d, want 35 (invalid record excluded)", h.Country[0].Count)
	}
	if h.Country[0].Position.Lat != 21.03 {
		t.Errorf("country anchor = %+v, want first valid camera", h.Country[0].Position)
	}

	if len(h.City) != 2 {
		t.Fatalf("city level has %d markers, want 2", len(h.City))
	}
	if h.City[0].Label != "North" || h.City[0].Count != 15 {
		t.Errorf("first city = %q/%d, want North/15", h.City[0].Label, h.City[0].Count)
	}
	if h.City[1].Label != "South-Island" || h.City[1].Count != 20 {
		t.Errorf("second city = %q/%d, want South-Island/20", h.City[1].Label, h.City[1].Count)
	}

	if len(h.District) == 0 {
		t.Fatal("district level is empty")
	}
	var districtTotal int64
	for _, d := range h.District {
		districtTotal += d.Count
	}
	if districtTotal != 35 {
		t.Errorf("district totals sum to %d, want 35", districtTotal)
	}
}

func TestBuildHierarchy_Empty(t *testing.T) {
	t.Parallel()

	h := testBuilder().BuildHierarchy(nil)
	if len(h.Country) != 0 || len(h.City) != 0 || len(h.District) != 0 {
		t.Errorf("empty batch produced non-empty hierarchy: %+v", h)
	}
}
