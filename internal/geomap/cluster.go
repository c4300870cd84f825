// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"fmt"
	"math"

	"github.com/opslens/camgrid/internal/models"
)

// cellKey identifies a spatial grid cell. Dividing geographic space into
// fixed-degree cells turns clustering into a single O(n) pass: cameras
// sharing a cell merge into one marker, no pairwise distance checks.
type cellKey struct {
	X, Y int
}

// cellFor floors a position into its grid cell. Longitude is normalized
// to [-180, 180] first so wrapped inputs land in the same cell.
func cellFor(lat, lng, cellDeg float64) cellKey {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return cellKey{
		X: int(math.Floor(lng / cellDeg)),
		Y: int(math.Floor(lat / cellDeg)),
	}
}

// ClusterCameras merges cameras into one ClusterMarker per occupied grid
// cell of cellDeg degrees. The cluster's position is the first-seen
// member's exact coordinates, never a centroid, and totalEvents is the
// running sum of member counts. Output order follows first appearance in
// the input, so repeated runs over the same batch are deterministic.
//
// regionOf may be nil; when set it names the region of a cluster from its
// anchor member's latitude.
func ClusterCameras(cams []models.CameraLocation, cellDeg float64, regionOf func(lat float64) string) []models.ClusterMarker {
	if cellDeg <= 0 {
		cellDeg = 2.0
	}

	byCell := make(map[cellKey]*models.ClusterMarker, len(cams))
	order := make([]cellKey, 0, len(cams))

	for i := range cams {
		cam := &cams[i]
		key := cellFor(cam.Lat, cam.Lng, cellDeg)

		cluster, ok := byCell[key]
		if !ok {
			cluster = &models.ClusterMarker{
				Position: models.LatLng{Lat: cam.Lat, Lng: cam.Lng},
			}
			if regionOf != nil {
				cluster.Region = regionOf(cam.Lat)
			}
			byCell[key] = cluster
			order = append(order, key)
		}

		cluster.TotalEvents += cam.CountForType()
		cluster.CameraCount++
		cluster.Cameras = append(cluster.Cameras, cam.CameraCode)
	}

	out := make([]models.ClusterMarker, 0, len(order))
	for _, key := range order {
		out = append(out, *byCell[key])
	}
	return out
}

// clusterMarkerData converts clusters into the uniform MarkerData shape
// the visible set uses at low zoom.
func clusterMarkerData(clusters []models.ClusterMarker) []models.MarkerData {
	out := make([]models.MarkerData, len(clusters))
	for i, c := range clusters {
		out[i] = models.MarkerData{
			Position: c.Position,
			Label:    c.Region,
			Count:    c.TotalEvents,
			Level:    models.LevelAggregate,
			ID:       fmt.Sprintf("cluster:%.6f:%.6f", c.Position.Lat, c.Position.Lng),
			Area:     c.Region,
		}
	}
	return out
}
