// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"fmt"
	"math"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
	"github.com/opslens/camgrid/internal/models"
)

// ValidCoords reports whether a lat/lng pair is renderable. The exact
// (0,0) pair is the upstream "unset" sentinel and is treated as invalid.
func ValidCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Validate converts a camera record into a camera-level marker, or returns
// nil when its coordinates are unusable. Rejections are logged with the
// offending record and never raise an error.
func Validate(rec models.CameraLocation) *models.MarkerData {
	if !ValidCoords(rec.Lat, rec.Lng) {
		logRejected(rec)
		return nil
	}
	return &models.MarkerData{
		Position:   models.LatLng{Lat: rec.Lat, Lng: rec.Lng},
		Label:      rec.CameraCode,
		Count:      rec.CountForType(),
		Level:      models.LevelCamera,
		ID:         markerID(rec),
		CameraCode: rec.CameraCode,
		Address:    rec.Address,
	}
}

// FilterValid drops records with unusable coordinates, logging each one.
// Nested individual cameras are filtered the same way so an invalid child
// never surfaces at high zoom.
func FilterValid(recs []models.CameraLocation) []models.CameraLocation {
	out := make([]models.CameraLocation, 0, len(recs))
	for _, rec := range recs {
		if !ValidCoords(rec.Lat, rec.Lng) {
			logRejected(rec)
			continue
		}
		if len(rec.IndividualCameras) > 0 {
			rec.IndividualCameras = FilterValid(rec.IndividualCameras)
		}
		out = append(out, rec)
	}
	return out
}

func logRejected(rec models.CameraLocation) {
	metrics.MarkersRejected.Inc()
	logging.Debug().
		Str("camera_code", rec.CameraCode).
		Float64("lat", rec.Lat).
		Float64("lng", rec.Lng).
		Msg("dropped camera record with invalid coordinates")
}

func markerID(rec models.CameraLocation) string {
	if rec.CameraCode != "" {
		return rec.CameraCode
	}
	return fmt.Sprintf("%.6f:%.6f", rec.Lat, rec.Lng)
}
