// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package metrics provides Prometheus instrumentation for CamGrid:
// delta-stream throughput, clustering rebuilds, icon compositing cache
// efficiency, and WebSocket fan-out.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Delta stream metrics

	DeltasApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_deltas_applied_total",
			Help: "Total number of delta events folded into the aggregates",
		},
	)

	DeltasDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camgrid_deltas_discarded_total",
			Help: "Total number of delta events discarded before application",
		},
		[]string{"reason"}, // "filter_mismatch", "empty", "malformed"
	)

	DeltaFieldErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_delta_field_errors_total",
			Help: "Total number of malformed delta fields skipped during parsing",
		},
	)

	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_stream_reconnects_total",
			Help: "Total number of delta-stream reconnect attempts",
		},
	)

	// Clustering engine metrics

	MarkerRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camgrid_marker_rebuilds_total",
			Help: "Total number of visible marker set rebuilds",
		},
		[]string{"level"}, // "low", "medium", "high"
	)

	ClustersBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camgrid_clusters_visible",
			Help: "Number of cluster markers in the current visible set",
		},
	)

	MarkersRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_markers_rejected_total",
			Help: "Total number of camera records rejected for invalid coordinates",
		},
	)

	// Badge compositor metrics

	CompositeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_composite_cache_hits_total",
			Help: "Total number of badge composites served from cache",
		},
	)

	CompositeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_composite_cache_misses_total",
			Help: "Total number of badge composites rendered by the draw pipeline",
		},
	)

	// Snapshot client metrics

	SnapshotFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camgrid_snapshot_fetches_total",
			Help: "Total number of upstream snapshot fetch attempts",
		},
		[]string{"outcome"}, // "success", "error", "breaker_open"
	)

	// WebSocket metrics

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camgrid_websocket_clients",
			Help: "Number of currently connected WebSocket clients",
		},
	)

	WebSocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camgrid_websocket_dropped_total",
			Help: "Total number of broadcast messages dropped due to full buffers",
		},
	)
)
