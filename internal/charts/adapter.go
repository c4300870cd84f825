// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package charts turns reconciler aggregates into chart-ready series.
// The adapter types here are plain labels-and-values; nothing above this
// boundary knows which charting library renders them, and the renderers
// below it never see reconciler internals.
package charts

import (
	"fmt"
	"sort"

	"github.com/opslens/camgrid/internal/reconciler"
)

// Series is one renderable data series: parallel label and value slices.
type Series struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// MultiSeries is a set of series sharing one label axis.
type MultiSeries struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// HourlySeries adapts the 24-slot in/out arrays into two line series.
// When singleDay is false the hourly breakdown is not rendered and the
// result is empty; the underlying buckets keep accumulating regardless.
func HourlySeries(agg reconciler.Aggregates, singleDay bool) MultiSeries {
	if !singleDay {
		return MultiSeries{}
	}
	labels := make([]string, 24)
	in := make([]float64, 24)
	out := make([]float64, 24)
	for h := 0; h < 24; h++ {
		labels[h] = fmt.Sprintf("%02d:00", h)
		in[h] = float64(agg.Hourly[h].In)
		out[h] = float64(agg.Hourly[h].Out)
	}
	return MultiSeries{
		Labels: labels,
		Series: []Series{
			{Name: "in", Labels: labels, Values: in},
			{Name: "out", Labels: labels, Values: out},
		},
	}
}

// LocationSeries adapts per-location totals into one bar series. Label
// order is the reconciler's insertion order, so a location that first
// appears mid-stream extends the axis instead of reshuffling it.
func LocationSeries(agg reconciler.Aggregates) Series {
	labels := make([]string, 0, len(agg.LocationLabels))
	values := make([]float64, 0, len(agg.LocationLabels))
	for _, label := range agg.LocationLabels {
		bucket := agg.ByLocation[label]
		if bucket == nil {
			continue
		}
		labels = append(labels, label)
		values = append(values, float64(bucket.Total))
	}
	return Series{Name: "events", Labels: labels, Values: values}
}

// TypeSeries adapts the per-type totals into one series, sorted by label
// for stable output.
func TypeSeries(agg reconciler.Aggregates) Series {
	labels := make([]string, 0, len(agg.ByType))
	for k := range agg.ByType {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, label := range labels {
		values[i] = float64(agg.ByType[label])
	}
	return Series{Name: "type", Labels: labels, Values: values}
}

// CameraSeries adapts per-camera totals into one bar series, sorted by
// total descending and capped at limit entries. A limit <= 0 keeps all.
func CameraSeries(agg reconciler.Aggregates, limit int) Series {
	labels := make([]string, 0, len(agg.ByCamera))
	for sn := range agg.ByCamera {
		labels = append(labels, sn)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := agg.ByCamera[labels[i]], agg.ByCamera[labels[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return labels[i] < labels[j]
	})
	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}
	values := make([]float64, len(labels))
	for i, sn := range labels {
		values[i] = float64(agg.ByCamera[sn].Total)
	}
	return Series{Name: "cameras", Labels: labels, Values: values}
}
