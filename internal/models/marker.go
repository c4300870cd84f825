// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package models

// MarkerLevel identifies the resolution a marker belongs to.
type MarkerLevel string

// Marker levels, finest to coarsest.
const (
	LevelCamera    MarkerLevel = "camera"
	LevelAggregate MarkerLevel = "aggregate"
	LevelDistrict  MarkerLevel = "district"
	LevelCity      MarkerLevel = "city"
	LevelCountry   MarkerLevel = "country"
)

// LatLng is a validated geographic position.
// Lat is in [-90, 90], Lng in [-180, 180], both finite.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MarkerData is a single renderable map point. Instances are never mutated
// once published in a visible set; rebuilds replace the whole slice.
type MarkerData struct {
	Position   LatLng      `json:"position"`
	Label      string      `json:"label"`
	Count      int64       `json:"count"`
	Level      MarkerLevel `json:"level"`
	ID         string      `json:"id"`
	Area       string      `json:"area,omitempty"`
	CameraCode string      `json:"cameraCode,omitempty"`
	Address    string      `json:"address,omitempty"`
}

// ClusterMarker aggregates cameras that share a spatial grid cell at low
// zoom. Position is the first member's exact coordinates; positions are
// never averaged because a centroid of geographically distant deployments
// can land on invalid terrain between them.
type ClusterMarker struct {
	Position    LatLng   `json:"position"`
	TotalEvents int64    `json:"totalEvents"`
	CameraCount int      `json:"cameraCount"`
	Cameras     []string `json:"cameras"`
	Region      string   `json:"region,omitempty"`
}
