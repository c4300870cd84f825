// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

// ZoomLevel is one of three coarse buckets derived from the numeric map
// zoom, driving which marker resolution is rendered.
type ZoomLevel int

// Zoom levels in ascending detail.
const (
	ZoomLow ZoomLevel = iota
	ZoomMedium
	ZoomHigh
)

// String implements fmt.Stringer for logs and metric labels.
func (z ZoomLevel) String() string {
	switch z {
	case ZoomLow:
		return "low"
	case ZoomMedium:
		return "medium"
	case ZoomHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Thresholds holds the two zoom boundaries: zoom < Medium is Low,
// zoom < High is Medium, else High.
type Thresholds struct {
	Medium float64
	High   float64
}

// DefaultThresholds matches the map widget's defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 9, High: 14}
}

// LevelFor buckets a numeric zoom value.
func (t Thresholds) LevelFor(zoom float64) ZoomLevel {
	switch {
	case zoom < t.Medium:
		return ZoomLow
	case zoom < t.High:
		return ZoomMedium
	default:
		return ZoomHigh
	}
}

// GridSizeFor returns the clustering cell size in degrees for a zoom
// value: the further out, the coarser the grid.
func GridSizeFor(zoom float64) float64 {
	switch {
	case zoom < 6:
		return 2.0
	case zoom < 8:
		return 1.0
	case zoom < 10:
		return 0.5
	default:
		return 0.1
	}
}
